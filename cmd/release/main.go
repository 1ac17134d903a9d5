// Command release builds the update manifest (latest.json) that the app's
// background updater polls.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ReEnvision-AI/focus/internal/manifest"
	"github.com/ReEnvision-AI/focus/version"
)

const logPrefix = "[generate-latest-json]"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "release",
		Short:         "Focus release tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}
	rootCmd.AddCommand(newLatestJSONCmd())
	return rootCmd
}

func newLatestJSONCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "latest-json",
		Short: "Write latest.json for the signed artifacts in a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLatestJSON(cmd.OutOrStdout(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("artifacts-dir", "artifacts", "directory holding the signed release artifacts")
	flags.String("app-version", "", "release version")
	flags.String("host", "", "release host base URL")
	flags.String("channel", "latest", "update channel")
	flags.String("prefix", "", "path prefix under the release host")
	flags.String("notes", "", "release notes")

	for flag, env := range map[string]string{
		"artifacts-dir": "ARTIFACTS_DIR",
		"app-version":   "APP_VERSION",
		"host":          "RELEASE_HOST",
		"channel":       "UPDATE_CHANNEL",
		"prefix":        "AWS_S3_PREFIX",
		"notes":         "RELEASE_NOTES",
	} {
		_ = v.BindPFlag(flag, flags.Lookup(flag))
		_ = v.BindEnv(flag, env)
	}
	return cmd
}

func runLatestJSON(out io.Writer, v *viper.Viper) error {
	m, report, err := manifest.Generate(manifest.Options{
		ArtifactsDir: v.GetString("artifacts-dir"),
		Version:      v.GetString("app-version"),
		ReleaseHost:  v.GetString("host"),
		Channel:      v.GetString("channel"),
		Prefix:       v.GetString("prefix"),
		Notes:        v.GetString("notes"),
	})
	for _, s := range report.Skipped {
		fmt.Fprintf(out, "%s Skipping %s: %s\n", logPrefix, s.Label, s.Err)
	}
	if err != nil {
		return err
	}
	for _, a := range report.Added {
		fmt.Fprintf(out, "%s Added %s: %s\n", logPrefix, a.Label, a.Path)
	}

	path, err := manifest.Write(strings.TrimSpace(v.GetString("artifacts-dir")), m)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Wrote %s\n", logPrefix, path)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", logPrefix, err)
		os.Exit(1)
	}
}
