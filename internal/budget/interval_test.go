package budget

import (
	"testing"
	"time"

	"github.com/HalleyB/Gaming-Time-Tracker/internal/storage"
)

var dayStart = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return dayStart.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func iv(startHour, startMin, endHour, endMin int) storage.Interval {
	return storage.Interval{Start: at(startHour, startMin), End: at(endHour, endMin)}
}

func TestCoveredSecondsEmpty(t *testing.T) {
	if got := CoveredSeconds(nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %d", got)
	}
}

func TestCoveredSecondsDisjointEqualsSum(t *testing.T) {
	intervals := []storage.Interval{
		iv(10, 0, 10, 30),
		iv(11, 0, 11, 15),
		iv(12, 0, 12, 45),
	}

	want := int64((30 + 15 + 45) * 60)
	if got := CoveredSeconds(intervals); got != want {
		t.Fatalf("disjoint intervals must sum exactly: want %d, got %d", want, got)
	}
}

func TestCoveredSecondsPartialOverlap(t *testing.T) {
	// A = [10:00, 10:30), B = [10:15, 10:45) -> 45 minutes, not 60.
	intervals := []storage.Interval{
		iv(10, 0, 10, 30),
		iv(10, 15, 10, 45),
	}

	if got := CoveredSeconds(intervals); got != 45*60 {
		t.Fatalf("expected 45 minutes covered, got %d seconds", got)
	}
}

func TestCoveredSecondsNestedContributesNothing(t *testing.T) {
	// C = [10:05, 10:10) sits fully inside A = [10:00, 10:30).
	intervals := []storage.Interval{
		iv(10, 0, 10, 30),
		iv(10, 5, 10, 10),
	}

	if got := CoveredSeconds(intervals); got != 30*60 {
		t.Fatalf("nested interval must add zero: got %d seconds", got)
	}
}

func TestCoveredSecondsOrderIndependent(t *testing.T) {
	a := []storage.Interval{iv(10, 0, 10, 30), iv(10, 15, 10, 45), iv(10, 5, 10, 10)}
	b := []storage.Interval{iv(10, 5, 10, 10), iv(10, 15, 10, 45), iv(10, 0, 10, 30)}

	if CoveredSeconds(a) != CoveredSeconds(b) {
		t.Fatal("result must not depend on input order")
	}
}

func TestCoveredSecondsNeverExceedsSum(t *testing.T) {
	cases := [][]storage.Interval{
		{iv(10, 0, 11, 0), iv(10, 0, 11, 0)},
		{iv(10, 0, 10, 30), iv(10, 15, 10, 45), iv(10, 20, 12, 0)},
		{iv(9, 0, 17, 0), iv(10, 0, 10, 5), iv(16, 59, 17, 1)},
	}

	for i, intervals := range cases {
		var sum int64
		for _, v := range intervals {
			sum += int64(v.End.Sub(v.Start).Seconds())
		}
		if got := CoveredSeconds(intervals); got > sum {
			t.Fatalf("case %d: covered %d exceeds duration sum %d", i, got, sum)
		}
	}
}

func TestEarnedMinutesRates(t *testing.T) {
	tests := []struct {
		activityType string
		duration     int
		want         int
	}{
		{ActivityCoding, 60, 15},
		{ActivityReading, 60, 10},
		{ActivityCourse, 60, 15},
		{ActivityExercise, 60, 20},
		{"gardening", 100, 20},
		{ActivityReading, 5, 0}, // floors to zero
	}

	for _, tt := range tests {
		if got := EarnedMinutes(tt.activityType, tt.duration); got != tt.want {
			t.Fatalf("earned(%s, %d) = %d, want %d", tt.activityType, tt.duration, got, tt.want)
		}
	}
}
