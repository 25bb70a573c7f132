package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/budget"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/clock"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/config"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/metrics"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/monitor"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/procs"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/systemd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// budgetGaugeInterval controls how often the remaining-budget gauge is
// refreshed from live tracker state.
const budgetGaugeInterval = 30 * time.Second

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the gametrack monitoring daemon",
	Long:  `Start the process monitor, budget closeout scheduler and metrics endpoint.`,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting gametrack")

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	classifier := newClassifier(cfg.Monitor, logger)
	clk := clock.RealClock{}
	persistMu := &sync.Mutex{}

	tracker := monitor.NewTracker(classifier, clk, logger)
	source := procs.NewSystemSource(logger)
	loop := monitor.NewLoop(
		source,
		tracker,
		store.Sessions(),
		persistMu,
		parseDuration(cfg.Monitor.TickInterval, monitor.DefaultTickInterval),
		logger,
	)

	engine := budget.NewEngine(store, persistMu, tracker, clk, logger)

	closeout, err := budget.NewCloseoutScheduler(
		store,
		persistMu,
		cfg.Budget.DailyResetTime,
		cfg.Budget.RetentionDays,
		clk,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize closeout scheduler: %w", err)
	}

	loop.Start()
	closeout.Start()
	logger.Info().Msg("Closeout scheduler started")

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.Metrics.BindAddress, cfg.Metrics.Port)
		metricsServer = metrics.NewServer(addr, logger)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		logger.Info().Str("addr", addr).Msg("Metrics server started")
	}

	gaugeStop := make(chan struct{})
	go refreshBudgetGauge(engine, logger, gaugeStop)

	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	}
	if interval := systemd.WatchdogInterval(); interval > 0 {
		go feedWatchdog(interval, logger, gaugeStop)
	}

	logger.Info().Msg("Gametrack startup complete")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)

	for {
		sig := <-sigChan

		switch sig {
		case syscall.SIGUSR1:
			logger.Info().Msg("SIGUSR1 received, pausing monitoring")
			tracker.Pause()
			continue

		case syscall.SIGUSR2:
			logger.Info().Msg("SIGUSR2 received, resuming monitoring")
			tracker.Resume()
			continue

		case os.Interrupt, syscall.SIGTERM:
			logger.Info().Msg("Shutdown signal received, gracefully stopping...")
		}
		break
	}

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	close(gaugeStop)
	closeout.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	loop.Shutdown(shutdownCtx)

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	logger.Info().Msg("Gametrack stopped")
	return nil
}

// refreshBudgetGauge keeps the remaining-minutes gauge in sync with
// the live budget, counting sessions still in flight.
func refreshBudgetGauge(engine *budget.Engine, logger zerolog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(budgetGaugeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			status := engine.LiveStatus(ctx)
			cancel()
			metrics.BudgetRemainingMinutes.Set(float64(status.RemainingTodayMinutes))
		case <-stop:
			return
		}
	}
}

// feedWatchdog pings the systemd watchdog at half the configured
// timeout.
func feedWatchdog(interval time.Duration, logger zerolog.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := systemd.NotifyWatchdog(); err != nil {
				logger.Warn().Err(err).Msg("Failed to feed systemd watchdog")
			}
		case <-stop:
			return
		}
	}
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
