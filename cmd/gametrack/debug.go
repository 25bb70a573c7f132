package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

var fakeSessionGame string

var debugCmd = &cobra.Command{
	Use:    "debug",
	Short:  "Manual budget adjustments for testing",
	Hidden: true,
}

var debugAddMinutesCmd = &cobra.Command{
	Use:   "add-minutes N",
	Short: "Credit N gaming minutes via a synthetic activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDebugAdjust(args[0], 1)
	},
}

var debugRemoveMinutesCmd = &cobra.Command{
	Use:   "remove-minutes N",
	Short: "Debit N gaming minutes via a synthetic activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDebugAdjust(args[0], -1)
	},
}

var debugFakeSessionCmd = &cobra.Command{
	Use:   "fake-session N",
	Short: "Record a synthetic completed session of N minutes ending now",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebugFakeSession,
}

var debugResetTodayCmd = &cobra.Command{
	Use:   "reset-today",
	Short: "Delete every session recorded since local midnight",
	RunE:  runDebugResetToday,
}

func init() {
	debugFakeSessionCmd.Flags().StringVar(&fakeSessionGame, "game", "Debug Game", "Game name for the synthetic session")

	debugCmd.AddCommand(debugAddMinutesCmd)
	debugCmd.AddCommand(debugRemoveMinutesCmd)
	debugCmd.AddCommand(debugFakeSessionCmd)
	debugCmd.AddCommand(debugResetTodayCmd)
	rootCmd.AddCommand(debugCmd)
}

// runDebugAdjust credits or debits gaming minutes by appending a
// synthetic learning activity, so adjustments stay visible in the
// ledger instead of silently mutating state.
func runDebugAdjust(arg string, sign int) error {
	minutes, err := strconv.Atoi(arg)
	if err != nil || minutes <= 0 {
		return fmt.Errorf("expected a positive number of minutes, got %q", arg)
	}

	store, err := openConfiguredStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	activity := storage.LearningActivity{
		ID:                  ulid.Make().String(),
		ActivityType:        "adjustment",
		Description:         "manual budget adjustment",
		DurationMinutes:     0,
		EarnedGamingMinutes: sign * minutes,
		Timestamp:           time.Now(),
	}

	if err := store.Activities().Add(context.Background(), activity); err != nil {
		return fmt.Errorf("failed to record adjustment: %w", err)
	}

	fmt.Printf("Adjusted budget by %+d minutes.\n", sign*minutes)
	return nil
}

func runDebugFakeSession(cmd *cobra.Command, args []string) error {
	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes <= 0 {
		return fmt.Errorf("expected a positive number of minutes, got %q", args[0])
	}

	store, err := openConfiguredStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	end := time.Now()
	start := end.Add(-time.Duration(minutes) * time.Minute)
	duration := int64(minutes * 60)

	session := storage.GameSession{
		ID:              ulid.Make().String(),
		GameName:        fakeSessionGame,
		ProcessName:     "debug.exe",
		StartTime:       start,
		EndTime:         &end,
		DurationSeconds: &duration,
	}

	if err := store.Sessions().Save(context.Background(), session); err != nil {
		return fmt.Errorf("failed to save synthetic session: %w", err)
	}

	fmt.Printf("Recorded %d min synthetic session for %s.\n", minutes, fakeSessionGame)
	return nil
}

func runDebugResetToday(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	n, err := store.Sessions().DeleteSince(context.Background(), midnight)
	if err != nil {
		return fmt.Errorf("failed to reset today's sessions: %w", err)
	}

	fmt.Printf("Deleted %d sessions recorded since %s.\n", n, midnight.Format("15:04"))
	return nil
}
