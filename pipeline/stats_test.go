package pipeline_test

import (
	"math"
	"testing"
	"time"

	"github.com/e7canasta/visor/pipeline"
)

// evenTimestamps builds n frame timestamps spaced exactly interval apart.
func evenTimestamps(n int, interval time.Duration) []time.Time {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * interval)
	}
	return times
}

func TestCalculateFPSStatsStable(t *testing.T) {
	// 90 frames at a perfect 30 Hz over 3 seconds
	times := evenTimestamps(90, time.Second/30)
	stats := pipeline.CalculateFPSStats(times, 3*time.Second)

	if stats.FramesReceived != 90 {
		t.Errorf("FramesReceived = %d, want 90", stats.FramesReceived)
	}
	if math.Abs(stats.FPSMean-30) > 0.5 {
		t.Errorf("FPSMean = %.2f, want ~30", stats.FPSMean)
	}
	if !stats.IsStable {
		t.Errorf("IsStable = false for a perfectly even stream (stddev=%.3f, jitter=%.5f)",
			stats.FPSStdDev, stats.JitterMean)
	}
	if stats.FPSMin > stats.FPSMean || stats.FPSMax < stats.FPSMean {
		t.Errorf("min/max (%.2f/%.2f) do not bracket mean %.2f",
			stats.FPSMin, stats.FPSMax, stats.FPSMean)
	}
}

func TestCalculateFPSStatsUnstable(t *testing.T) {
	// Alternating 5 ms / 200 ms intervals: heavy jitter, must not pass
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	times := []time.Time{base}
	cursor := base
	for i := 0; i < 30; i++ {
		gap := 5 * time.Millisecond
		if i%2 == 0 {
			gap = 200 * time.Millisecond
		}
		cursor = cursor.Add(gap)
		times = append(times, cursor)
	}

	stats := pipeline.CalculateFPSStats(times, cursor.Sub(base))
	if stats.IsStable {
		t.Errorf("IsStable = true for an alternating-interval stream (stddev=%.2f of mean %.2f)",
			stats.FPSStdDev, stats.FPSMean)
	}
}

func TestCalculateFPSStatsEdgeCases(t *testing.T) {
	empty := pipeline.CalculateFPSStats(nil, time.Second)
	if empty.FramesReceived != 0 || empty.IsStable {
		t.Errorf("empty input: FramesReceived=%d IsStable=%v, want 0/false",
			empty.FramesReceived, empty.IsStable)
	}

	single := pipeline.CalculateFPSStats(evenTimestamps(1, time.Second), time.Second)
	if single.FramesReceived != 1 || single.IsStable {
		t.Errorf("single frame: FramesReceived=%d IsStable=%v, want 1/false",
			single.FramesReceived, single.IsStable)
	}

	// Duplicate timestamps produce no valid intervals
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	dup := pipeline.CalculateFPSStats([]time.Time{base, base, base}, time.Second)
	if dup.IsStable {
		t.Error("duplicate timestamps: IsStable = true, want false")
	}
}
