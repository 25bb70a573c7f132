package procs

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo is one entry of a point-in-time process snapshot.
type ProcessInfo struct {
	Name    string
	ExePath string
}

// Source supplies snapshots of currently running processes. The
// snapshot carries no ordering guarantee.
type Source interface {
	ListProcesses(ctx context.Context) ([]ProcessInfo, error)
}

// SystemSource enumerates processes via the OS process table.
type SystemSource struct {
	logger zerolog.Logger
}

// NewSystemSource creates a snapshot source backed by the OS.
func NewSystemSource(logger zerolog.Logger) *SystemSource {
	return &SystemSource{
		logger: logger.With().Str("component", "procs").Logger(),
	}
}

// ListProcesses returns a snapshot of running processes. Processes
// whose name cannot be read (raced exits, permission limits) are
// skipped; the executable path is best-effort and may be empty.
func (s *SystemSource) ListProcesses(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		exePath, err := p.ExeWithContext(ctx)
		if err != nil {
			exePath = ""
		}
		infos = append(infos, ProcessInfo{Name: name, ExePath: exePath})
	}

	return infos, nil
}

// KillByName terminates every running process with one of the given
// names and returns the names that were actually signalled. This is a
// plain side action: failures are logged and skipped, never retried.
func (s *SystemSource) KillByName(ctx context.Context, names map[string]struct{}) []string {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to enumerate processes for kill")
		return nil
	}

	var killed []string
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if _, ok := names[name]; !ok {
			continue
		}
		if err := p.KillWithContext(ctx); err != nil {
			s.logger.Warn().Err(err).Str("process", name).Msg("Failed to close process")
			continue
		}
		s.logger.Info().Str("process", name).Msg("Closed process")
		killed = append(killed, name)
	}

	return killed
}
