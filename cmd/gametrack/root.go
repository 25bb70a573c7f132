package main

import (
	"fmt"
	"os"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/classify"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/config"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	redisstore "github.com/HalleyB/Gaming-Time-Tracker/internal/storage/redis"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage/sqlite"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gametrack",
	Short: "Gametrack - gaming time tracker with earned-time budgets",
	Long: `Gametrack watches running game processes, records play sessions and
enforces a daily gaming budget of allowance, rolled-over unused minutes
and minutes earned through logged learning activities.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to the daemon when no subcommand is provided
		return runDaemon(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// openStorage opens the configured storage backend
func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "redis":
		return redisstore.Open(cfg.Redis)
	case "sqlite", "":
		return sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// openConfiguredStorage loads the configuration and opens the storage
// backend it names. Used by the read-only subcommands that do not need
// the rest of the daemon wiring.
func openConfiguredStorage() (storage.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// newClassifier builds a classifier seeded with the defaults plus the
// games and exclusions from the configuration.
func newClassifier(cfg config.MonitorConfig, logger zerolog.Logger) *classify.Classifier {
	classifier := classify.New(logger)
	for _, game := range cfg.Games {
		display := game.DisplayName
		if display == "" {
			display = game.ProcessName
		}
		classifier.AddGame(game.ProcessName, display)
	}
	for _, process := range cfg.ExcludedProcesses {
		classifier.Exclude(process)
	}
	return classifier
}
