package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/config"
	"github.com/HalleyB/Gaming-Time-Tracker/internal/procs"
	"github.com/spf13/cobra"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Inspect and act on monitored games",
}

var gamesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered game processes",
	RunE:  runGamesList,
}

var gamesCloseCmd = &cobra.Command{
	Use:   "close [process ...]",
	Short: "Close running game processes",
	Long: `Close running game processes. With no arguments every registered game
process is closed; otherwise only the named processes are.`,
	RunE: runGamesClose,
}

func init() {
	gamesCmd.AddCommand(gamesListCmd)
	gamesCmd.AddCommand(gamesCloseCmd)
	rootCmd.AddCommand(gamesCmd)
}

func runGamesList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	classifier := newClassifier(cfg.Monitor, logger)

	registered := classifier.MonitoredProcesses()
	processes := make([]string, 0, len(registered))
	for process := range registered {
		processes = append(processes, process)
	}
	sort.Strings(processes)

	table := newListTable([]string{"Process", "Game"})
	for _, process := range processes {
		table.Append([]string{process, registered[process]})
	}
	table.Render()

	return nil
}

func runGamesClose(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	targets := make(map[string]struct{})
	if len(args) > 0 {
		for _, process := range args {
			targets[process] = struct{}{}
		}
	} else {
		classifier := newClassifier(cfg.Monitor, logger)
		for process := range classifier.MonitoredProcesses() {
			targets[process] = struct{}{}
		}
	}

	source := procs.NewSystemSource(logger)
	killed := source.KillByName(context.Background(), targets)

	if len(killed) == 0 {
		fmt.Println("No matching game processes running.")
		return nil
	}
	for _, name := range killed {
		fmt.Printf("Closed %s\n", name)
	}
	return nil
}
