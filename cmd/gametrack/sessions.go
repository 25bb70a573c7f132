package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent game sessions",
	RunE:  runSessions,
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum number of sessions to show")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions().Recent(context.Background(), sessionsLimit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}

	table := newListTable([]string{"Game", "Started", "Duration", "Concurrent"})
	for _, s := range sessions {
		table.Append([]string{
			s.GameName,
			s.StartTime.Local().Format("2006-01-02 15:04"),
			formatDuration(s),
			formatConcurrent(s),
		})
	}
	table.Render()

	return nil
}

// newListTable creates a borderless table for listing records.
func newListTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

func formatDuration(s storage.GameSession) string {
	if s.DurationSeconds == nil {
		return "active"
	}
	return (time.Duration(*s.DurationSeconds) * time.Second).String()
}

func formatConcurrent(s storage.GameSession) string {
	if !s.IsConcurrent {
		return ""
	}
	return "yes (" + strconv.Itoa(len(s.ConcurrentSessionIDs)) + " linked)"
}
