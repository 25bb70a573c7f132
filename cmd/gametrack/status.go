package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/budget"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/clock"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's gaming budget",
	Long:  `Show the current day's allowance, usage, rollover, earned minutes and remaining budget.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	engine := budget.NewEngine(store, &sync.Mutex{}, nil, clock.RealClock{}, logger)
	status := engine.Status(ctx)

	settings, err := store.Settings().Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Println(bold("Today's gaming budget"))
	fmt.Printf("  Allowance:  %d min\n", status.DailyAllowanceMinutes)
	fmt.Printf("  Rollover:   %d min\n", status.RolloverMinutes)
	fmt.Printf("  Earned:     %d min\n", status.EarnedMinutes)
	fmt.Printf("  Available:  %d min\n", status.TotalAvailableMinutes)
	fmt.Printf("  Used:       %d min\n", status.UsedTodayMinutes)
	fmt.Printf("  Remaining:  %s\n", colorRemaining(status, settings.WarningThresholdMinutes))

	return nil
}

// colorRemaining renders the remaining minutes green, yellow inside
// the warning threshold, red when exhausted.
func colorRemaining(status budget.Status, warningThreshold int) string {
	text := fmt.Sprintf("%d min", status.RemainingTodayMinutes)
	switch {
	case status.RemainingTodayMinutes <= 0:
		return color.New(color.FgHiRed).Sprint(text)
	case status.RemainingTodayMinutes <= warningThreshold:
		return color.New(color.FgHiYellow).Sprint(text)
	default:
		return color.New(color.FgHiGreen).Sprint(text)
	}
}
