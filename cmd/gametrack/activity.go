package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/budget"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

var (
	activityType        string
	activityMinutes     int
	activityDescription string
	activityLimit       int
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Log and list learning activities",
}

var activityLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Log a learning activity and earn gaming minutes",
	Example: `  gametrack activity log --type coding --minutes 60 --description "Go exercises"
  gametrack activity log --type reading --minutes 30`,
	RunE: runActivityLog,
}

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent learning activities",
	RunE:  runActivityList,
}

func init() {
	activityLogCmd.Flags().StringVar(&activityType, "type", "", "Activity type (coding, reading, course, exercise)")
	activityLogCmd.Flags().IntVar(&activityMinutes, "minutes", 0, "Activity duration in minutes")
	activityLogCmd.Flags().StringVar(&activityDescription, "description", "", "What was done")
	activityLogCmd.MarkFlagRequired("type")
	activityLogCmd.MarkFlagRequired("minutes")

	activityListCmd.Flags().IntVarP(&activityLimit, "limit", "n", 20, "Maximum number of activities to show")

	activityCmd.AddCommand(activityLogCmd)
	activityCmd.AddCommand(activityListCmd)
	rootCmd.AddCommand(activityCmd)
}

func runActivityLog(cmd *cobra.Command, args []string) error {
	if activityMinutes <= 0 {
		return fmt.Errorf("minutes must be positive")
	}

	store, err := openConfiguredStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	earned := budget.EarnedMinutes(activityType, activityMinutes)
	activity := storage.LearningActivity{
		ID:                  ulid.Make().String(),
		ActivityType:        activityType,
		Description:         activityDescription,
		DurationMinutes:     activityMinutes,
		EarnedGamingMinutes: earned,
		Timestamp:           time.Now(),
	}

	if err := store.Activities().Add(context.Background(), activity); err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}

	fmt.Printf("Logged %d min of %s, earned %d gaming minutes.\n", activityMinutes, activityType, earned)
	return nil
}

func runActivityList(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	activities, err := store.Activities().Recent(context.Background(), activityLimit)
	if err != nil {
		return fmt.Errorf("failed to list activities: %w", err)
	}

	if len(activities) == 0 {
		fmt.Println("No activities logged.")
		return nil
	}

	table := newListTable([]string{"When", "Type", "Minutes", "Earned", "Description"})
	for _, a := range activities {
		table.Append([]string{
			a.Timestamp.Local().Format("2006-01-02 15:04"),
			a.ActivityType,
			strconv.Itoa(a.DurationMinutes),
			strconv.Itoa(a.EarnedGamingMinutes),
			a.Description,
		})
	}
	table.Render()

	return nil
}
