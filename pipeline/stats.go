package pipeline

import (
	"math"
	"time"

	"github.com/e7canasta/visor/capture"
)

// PipelineStats is a snapshot of pipeline telemetry.
type PipelineStats struct {
	// State is the pipeline state at snapshot time
	State State
	// FramesPublished is the total number of frames published to the slot
	FramesPublished uint64
	// SlotOverwrites counts frames replaced before any reader took them
	SlotOverwrites uint64
	// FPSTarget is the configured target FPS
	FPSTarget float64
	// FPSReal is the measured publish rate since Start
	FPSReal float64
	// LatencyMS is the time since the last published frame in milliseconds
	LatencyMS int64
	// Resolution is the configured geometry (e.g., "1280x720")
	Resolution string
	// Source holds the underlying source counters, zero when stopped
	Source capture.SourceStats
}

// WarmupStats contains statistics collected during the warm-up phase
type WarmupStats struct {
	// FramesReceived is the number of frames observed during warm-up
	FramesReceived int
	// Duration is the actual warm-up duration
	Duration time.Duration
	// FPSMean is the mean FPS across all frames
	FPSMean float64
	// FPSStdDev is the standard deviation of instantaneous FPS
	FPSStdDev float64
	// FPSMin is the minimum instantaneous FPS
	FPSMin float64
	// FPSMax is the maximum instantaneous FPS
	FPSMax float64
	// JitterMean is the mean deviation from the expected frame interval (seconds)
	JitterMean float64
	// JitterMax is the largest observed interval deviation (seconds)
	JitterMax float64
	// IsStable is true when stddev and jitter are inside their thresholds
	IsStable bool
}

const (
	// fpsStabilityThreshold is the maximum allowed FPS standard deviation
	// as a fraction of mean FPS. A session is stable if stddev < 15% of
	// mean. Example: 30 FPS mean -> stable if stddev < 4.5 FPS.
	fpsStabilityThreshold = 0.15

	// jitterStabilityThreshold is the maximum allowed mean jitter as a
	// fraction of the expected inter-frame interval.
	jitterStabilityThreshold = 0.20
)

// CalculateFPSStats analyzes capture timestamps collected over a warm-up
// window: mean FPS, per-interval instantaneous FPS (min/max/stddev),
// inter-frame jitter, and an overall stability verdict.
func CalculateFPSStats(frameTimes []time.Time, totalDuration time.Duration) *WarmupStats {
	n := len(frameTimes)
	if n == 0 {
		return &WarmupStats{Duration: totalDuration}
	}

	fpsMean := float64(n) / totalDuration.Seconds()

	instantaneous := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		interval := frameTimes[i].Sub(frameTimes[i-1]).Seconds()
		if interval > 0 {
			instantaneous = append(instantaneous, 1.0/interval)
		}
	}

	if len(instantaneous) == 0 {
		return &WarmupStats{
			FramesReceived: n,
			Duration:       totalDuration,
			FPSMean:        fpsMean,
		}
	}

	fpsMin, fpsMax := instantaneous[0], instantaneous[0]
	for _, fps := range instantaneous {
		if fps < fpsMin {
			fpsMin = fps
		}
		if fps > fpsMax {
			fpsMax = fps
		}
	}

	var sumSquares float64
	for _, fps := range instantaneous {
		diff := fps - fpsMean
		sumSquares += diff * diff
	}
	fpsStdDev := math.Sqrt(sumSquares / float64(len(instantaneous)))

	// Jitter = deviation from the expected inter-frame interval
	expectedInterval := 1.0 / fpsMean

	var jitterSum, jitterMax float64
	count := 0
	for i := 1; i < n; i++ {
		actual := frameTimes[i].Sub(frameTimes[i-1]).Seconds()
		jitter := math.Abs(actual - expectedInterval)
		jitterSum += jitter
		if jitter > jitterMax {
			jitterMax = jitter
		}
		count++
	}
	jitterMean := jitterSum / float64(count)

	fpsStable := fpsStdDev < (fpsMean * fpsStabilityThreshold)
	jitterStable := jitterMean < (expectedInterval * jitterStabilityThreshold)

	return &WarmupStats{
		FramesReceived: n,
		Duration:       totalDuration,
		FPSMean:        fpsMean,
		FPSStdDev:      fpsStdDev,
		FPSMin:         fpsMin,
		FPSMax:         fpsMax,
		JitterMean:     jitterMean,
		JitterMax:      jitterMax,
		IsStable:       fpsStable && jitterStable,
	}
}
