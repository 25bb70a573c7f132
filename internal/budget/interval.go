package budget

import (
	"sort"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

// CoveredSeconds returns the total wall-clock seconds covered by the
// union of the given [start, end) intervals. Overlapping time is
// counted once, so concurrent sessions never double-count usage.
//
// The sweep is commutative over start-sorted input: ties in start time
// may be ordered arbitrarily without changing the result. The result
// is at most the sum of the individual durations, with equality
// exactly when no two intervals overlap.
func CoveredSeconds(intervals []storage.Interval) int64 {
	if len(intervals) == 0 {
		return 0
	}

	sorted := make([]storage.Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	total := int64(0)
	currentEnd := sorted[0].Start

	for i, iv := range sorted {
		switch {
		case i == 0 || !iv.Start.Before(currentEnd):
			// Disjoint from everything seen so far.
			total += int64(iv.End.Sub(iv.Start).Seconds())
			currentEnd = iv.End
		case iv.End.After(currentEnd):
			// Partial overlap: only the new tail counts.
			total += int64(iv.End.Sub(currentEnd).Seconds())
			currentEnd = iv.End
		default:
			// Fully contained, contributes nothing.
		}
	}

	return total
}
