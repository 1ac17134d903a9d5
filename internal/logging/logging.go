// Package logging builds the application's slog handler on top of a
// size-rotated log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Stderr mirrors every record to standard error.
	Stderr bool
}

// Logger wraps the rotating file so callers can close it on exit.
type Logger struct {
	*slog.Logger
	out *lumberjack.Logger
}

// New opens (or creates) the log file at path and returns a text logger
// writing to it.
func New(path string, opts Options) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   false,
	}

	var w io.Writer = out
	if opts.Stderr {
		w = io.MultiWriter(out, os.Stderr)
	}

	return &Logger{Logger: slog.New(NewHandler(w, opts.Level)), out: out}, nil
}

// NewHandler returns the text handler used for every log destination: source
// locations trimmed to the file name.
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.SourceKey {
				if source, ok := attr.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return attr
		},
	})
}

// Rotate forces the current log file to be rotated.
func (l *Logger) Rotate() error {
	return l.out.Rotate()
}

func (l *Logger) Close() error {
	return l.out.Close()
}
