package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and change budget settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the effective budget settings",
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Update a budget setting",
	Example: `  gametrack settings set daily_allowance_minutes 90
  gametrack settings set rollover_days 5
  gametrack settings set notifications_enabled false`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	settings, err := store.Settings().Get(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	fmt.Printf("%s = %d\n", storage.SettingDailyAllowanceMinutes, settings.DailyAllowanceMinutes)
	fmt.Printf("%s = %d\n", storage.SettingRolloverDays, settings.RolloverDays)
	fmt.Printf("%s = %t\n", storage.SettingNotificationsEnabled, settings.NotificationsEnabled)
	fmt.Printf("%s = %d\n", storage.SettingWarningThresholdMinutes, settings.WarningThresholdMinutes)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := validateSetting(key, value); err != nil {
		return err
	}

	store, err := openConfiguredStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Settings().Update(context.Background(), key, value); err != nil {
		return fmt.Errorf("failed to update setting: %w", err)
	}

	fmt.Printf("Updated %s = %s\n", key, value)
	return nil
}

// validateSetting rejects unknown keys and values that would fall back
// to defaults when read.
func validateSetting(key, value string) error {
	switch key {
	case storage.SettingDailyAllowanceMinutes,
		storage.SettingRolloverDays,
		storage.SettingWarningThresholdMinutes:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s requires a non-negative integer, got %q", key, value)
		}
	case storage.SettingNotificationsEnabled:
		if value != "true" && value != "false" {
			return fmt.Errorf("%s requires true or false, got %q", key, value)
		}
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return nil
}
