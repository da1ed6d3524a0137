package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/star/isstrack/internal/config"
	"github.com/star/isstrack/internal/propagation"
	"github.com/star/isstrack/internal/telemetry"
	"github.com/star/isstrack/internal/tle"
)

var (
	configPath string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "isstrack",
	Short: "Live ISS position, speed and altitude tracker",
	Long: `isstrack polls the ISS location APIs (or propagates its orbit locally),
keeps a rolling window of speed and altitude samples, and serves them as
live charts together with a distance and a solar power calculator and a
CSV table viewer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			configPath = os.Getenv("ISSTRACK_CONFIG")
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}

		// Env overrides are applied with a stderr logger; the final logger
		// depends on the resulting level.
		bootstrap := newLogger(os.Stderr, slog.LevelInfo)
		config.ApplyEnv(&loaded, bootstrap)
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		level, _ := config.ParseLevel(loaded.LogLevel)
		out := io.Writer(os.Stderr)
		if cmd.Name() == serveCmd.Name() {
			out = os.Stdout
		}
		cfg = loaded
		logger = newLogger(out, level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file (env: ISSTRACK_CONFIG).")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level. One of debug, info, warn, error (env: ISSTRACK_LOG_LEVEL).")

	rootCmd.AddCommand(serveCmd, watchCmd, distanceCmd, powerCmd, csvCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// newSource builds the configured telemetry source. The TLE store is
// returned for the sgp4 source so its age can be reported; it is nil otherwise.
func newSource(cfg config.Config, logger *slog.Logger) (telemetry.Source, *tle.Store) {
	if cfg.Source.Kind == config.SourceSGP4 {
		store := tle.NewStore()
		src := propagation.NewSource(
			tle.NewFetcher(cfg.Source.TLEURL, logger),
			store,
			propagation.Config{NORADID: cfg.Source.NORADID, MaxAge: cfg.Source.TLEMaxAge},
			logger,
		)
		return src, store
	}
	return telemetry.NewClient(cfg.Source.PositionURL, cfg.Source.TelemetryURL, logger), nil
}
