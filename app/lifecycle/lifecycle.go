package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ncruces/zenity"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/ReEnvision-AI/focus/app/shortcut"
	"github.com/ReEnvision-AI/focus/app/store"
	"github.com/ReEnvision-AI/focus/app/timer"
	"github.com/ReEnvision-AI/focus/app/tray"
	"github.com/ReEnvision-AI/focus/app/tray/commontray"
	"github.com/ReEnvision-AI/focus/app/window"
	"github.com/ReEnvision-AI/focus/internal/config"
	"github.com/ReEnvision-AI/focus/version"
)

// quitter is what the callback loop needs to shut the app down.
type quitter interface {
	Quit()
}

// Run builds the tray, shortcut, timer and updater, then hands the main
// thread to the window host until the app quits.
func Run(assets fs.FS) {
	cfg, cfgErr := loadSettings(AppDataDir)
	InitLogging(cfg.Log)
	defer closeLogging()
	slog.Info("Focus app starting", "version", version.Version)
	if cfgErr != nil {
		slog.Warn("problem loading settings", "error", cfgErr, "updates", cfg.Update.Enabled)
	}

	store.SetPath(StoreFile)

	binding, err := shortcut.Parse(cfg.Shortcut.Binding)
	if err != nil {
		slog.Warn("invalid shortcut binding, using default", "binding", cfg.Shortcut.Binding, "error", err)
		binding, _ = shortcut.Parse(config.Default().Shortcut.Binding)
	}

	t, err := tray.NewTray(binding.Label)
	if err != nil {
		log.Fatalf("Failed to start: %s", err)
	}

	host := window.NewWails(cfg.Window.StartHidden)
	win := window.NewController(host)
	tm := timer.New(timer.WithTotal(store.TodayMinutes(time.Now())))
	defer tm.Close()
	app := NewApp(t, win, host, tm, binding.Label)

	updater := NewUpdater(cfg.Update)
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	shutdown := func() {
		appCancel()
		host.Quit()
		t.Quit()
	}
	go callbackLoop(appCtx, t.GetCallbacks(), signals, win, updater, quitFunc(shutdown))

	// Are we first use?
	if !store.GetFirstTimeRun() {
		slog.Debug("First time run")
		if err := t.DisplayFirstUseNotification(); err != nil {
			slog.Debug(fmt.Sprintf("failed to display first use notification %v", err))
		}
		store.SetFirstTimeRun(true)
	} else {
		slog.Debug("Not first time, skipping first run notification")
	}

	// The window host owns the main thread; the tray joins its native loop.
	t.Register()

	var (
		updaterDone <-chan struct{}
		hotkey      *shortcut.Registration
	)
	err = wails.Run(&options.App{
		Title:         AppName,
		Width:         cfg.Window.Width,
		Height:        cfg.Window.Height,
		DisableResize: true,
		StartHidden:   cfg.Window.StartHidden,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 255, G: 255, B: 255, A: 1},
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: "ai.reenvision.focus",
			OnSecondInstanceLaunch: func(options.SecondInstanceData) {
				win.Reveal()
			},
		},
		OnStartup: func(ctx context.Context) {
			host.Startup(ctx)
			if cfg.Shortcut.Enabled {
				reg, err := shortcut.Register(appCtx, binding, win.Toggle)
				if err != nil {
					slog.Warn("global shortcut unavailable", "error", err)
				}
				hotkey = reg
			}
			if cfg.Update.Enabled {
				updaterDone = updater.StartBackgroundUpdaterChecker(appCtx, cfg.Update.InitialDelay, cfg.Update.Interval, t.UpdateAvailable)
			}
		},
		OnBeforeClose: host.BeforeClose,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		slog.Error("window host failed", "error", err)
	}

	appCancel()
	slog.Info("Waiting for app to shutdown..")
	if hotkey != nil {
		hotkey.Unregister()
	}
	if updaterDone != nil {
		<-updaterDone
	}
	if err := holdSleep(false); err != nil {
		slog.Warn("failed to allow system sleep", "error", err)
	}
	slog.Info("Focus app exiting")
}

// loadSettings keeps the loaded settings when only the update endpoint is
// missing, turning updates off. Any other failure falls back to defaults.
func loadSettings(dir string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(dir)
	switch {
	case errors.Is(err, config.ErrMissingEndpoint):
		cfg.Update.Enabled = false
	case err != nil:
		cfg = config.Default()
	}
	return cfg, err
}

type quitFunc func()

func (f quitFunc) Quit() { f() }

// callbackLoop serves tray menu clicks and OS signals until ctx is done.
func callbackLoop(ctx context.Context, cb commontray.Callbacks, signals <-chan os.Signal, win *window.Controller, updater *Updater, q quitter) {
	slog.Debug("starting callback loop")
	for {
		select {
		case <-ctx.Done():
			return
		case <-cb.Show:
			win.Reveal()
		case <-cb.Quit:
			slog.Debug("quit called")
			handleQuit(q)
		case <-signals:
			slog.Debug("shutting down due to signal")
			handleQuit(q)
		case <-cb.Update:
			if !confirmUpgrade() {
				continue
			}
			if err := DoUpgrade(updater.Staged()); err != nil {
				slog.Warn(fmt.Sprintf("upgrade attempt failed: %s", err))
				continue
			}
			handleQuit(q)
		case <-cb.ShowLogs:
			ShowLogs()
		}
	}
}

var confirmUpgrade = func() bool {
	err := zenity.Question("A new version of Focus has been downloaded. Restart now to install it?",
		zenity.Title(AppName),
		zenity.OKLabel("Restart"),
		zenity.CancelLabel("Later"))
	return err == nil
}

func handleQuit(q quitter) {
	slog.Info("Quitting..")
	q.Quit()
	slog.Info("Finished exit procedures.")
}
