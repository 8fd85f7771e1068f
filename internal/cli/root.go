package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"timetracker/internal/core/model"
	"timetracker/internal/core/worklog"
	"timetracker/internal/platform"
	"timetracker/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// AppName names the settings directory and the desktop app.
const AppName = "SimpleTimeTracker"

// Options is everything the UI needs to start.
type Options struct {
	Config       model.TrackerConfig
	LogPath      string
	SettingsPath string
}

// Runner starts the application with resolved options.
type Runner func(ctx context.Context, options Options) error

type flagValues struct {
	breakInterval int
	policy        string
	logDir        string
	stopOnClose   bool
	settingsPath  string
	saveSettings  bool
	debug         bool
}

// NewRootCommand builds the CLI. run is invoked once flags and settings are resolved.
func NewRootCommand(run Runner) *cobra.Command {
	values := flagValues{}
	defaults := model.DefaultTrackerConfig()

	rootCmd := &cobra.Command{
		Use:   "timetracker",
		Short: "Simple Time Tracker with configurable break intervals.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd.ErrOrStderr(), values.debug)

			options, err := resolveOptions(cmd.Flags(), values, time.Now())
			if err != nil {
				return err
			}

			slog.Debug("resolved options",
				"break_interval", options.Config.BreakInterval,
				"policy", options.Config.BreakPolicy,
				"stop_on_close", options.Config.StopOnClose,
				"log_path", options.LogPath,
			)
			return run(cmd.Context(), options)
		},
	}

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	flags := rootCmd.Flags()
	flags.IntVar(&values.breakInterval, "break-interval", int(defaults.BreakInterval/time.Minute), "Break interval in minutes.")
	flags.StringVar(&values.policy, "policy", string(defaults.BreakPolicy), "Break reminder policy: wallclock or elapsed.")
	flags.StringVar(&values.logDir, "log-dir", defaults.LogDir, "Directory the session log file is written to.")
	flags.BoolVar(&values.stopOnClose, "stop-on-close", defaults.StopOnClose, "Close an active session when the window closes.")
	flags.StringVar(&values.settingsPath, "settings", "", "Settings file (default: <user config dir>/"+AppName+"/settings.yaml).")
	flags.BoolVar(&values.saveSettings, "save-settings", false, "Write the effective settings back to the settings file.")
	rootCmd.PersistentFlags().BoolVar(&values.debug, "debug", false, "Enable debug logging")

	return rootCmd
}

func resolveOptions(flags *pflag.FlagSet, values flagValues, now time.Time) (Options, error) {
	settingsPath := values.settingsPath
	if settingsPath == "" {
		path, err := storage.SettingsPath(platform.NewService(), AppName)
		if err != nil {
			slog.Warn("settings file unavailable, using defaults", "err", err)
		}
		settingsPath = path
	}

	config := model.DefaultTrackerConfig()
	if settingsPath != "" {
		loaded, err := storage.LoadSettings(settingsPath)
		if err != nil {
			return Options{}, fmt.Errorf("load settings: %w", err)
		}
		config = loaded
	}

	if err := applyFlags(flags, values, &config); err != nil {
		return Options{}, err
	}
	if err := config.Validate(); err != nil {
		return Options{}, err
	}

	if values.saveSettings {
		if settingsPath == "" {
			return Options{}, fmt.Errorf("save settings: no settings path")
		}
		if err := storage.SaveSettings(settingsPath, config); err != nil {
			return Options{}, fmt.Errorf("save settings: %w", err)
		}
		slog.Info("settings saved", "path", settingsPath)
	}

	return Options{
		Config:       config,
		LogPath:      filepath.Join(config.LogDir, worklog.FileName(now)),
		SettingsPath: settingsPath,
	}, nil
}

func applyFlags(flags *pflag.FlagSet, values flagValues, config *model.TrackerConfig) error {
	if flags.Changed("break-interval") {
		if values.breakInterval <= 0 {
			return fmt.Errorf("--break-interval must be positive, got %d", values.breakInterval)
		}
		config.BreakInterval = time.Duration(values.breakInterval) * time.Minute
	}
	if flags.Changed("policy") {
		policy, err := model.ParseBreakPolicy(values.policy)
		if err != nil {
			return fmt.Errorf("--policy: %w", err)
		}
		config.BreakPolicy = policy
	}
	if flags.Changed("log-dir") {
		config.LogDir = values.logDir
	}
	if flags.Changed("stop-on-close") {
		config.StopOnClose = values.stopOnClose
	}
	return nil
}

func setupLogging(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
