package overlay

import (
	"fmt"
	"image/color"
	"time"
)

// Performance readout thresholds, in the unit of the displayed value
// (frames per second for the capture readouts). Policy constants:
// deterministic, documented, not part of the bracket contract.
const (
	// PerfGoodThreshold - values at or above render in the good color
	PerfGoodThreshold = 24.0
	// PerfPoorThreshold - values below render in the alert color;
	// between the two thresholds renders in the warning color
	PerfPoorThreshold = 15.0
)

var (
	perfGoodColor  = color.RGBA{R: 96, G: 220, B: 112, A: 255}
	perfWarnColor  = color.RGBA{R: 240, G: 200, B: 64, A: 255}
	perfAlertColor = color.RGBA{R: 232, G: 72, B: 56, A: 255}

	readoutColor = color.RGBA{R: 235, G: 235, B: 235, A: 255}
)

// PerfColor maps a performance value onto its readout color by the fixed
// thresholds above.
func PerfColor(value float64) color.RGBA {
	switch {
	case value >= PerfGoodThreshold:
		return perfGoodColor
	case value >= PerfPoorThreshold:
		return perfWarnColor
	default:
		return perfAlertColor
	}
}

// DrawPerfCounter draws a threshold-colored performance readout
// (e.g. "27.3 FPS") at (x, y).
func (c *GGCompositor) DrawPerfCounter(x, y, value float64) {
	c.DrawText(x, y, fmt.Sprintf("%.1f FPS", value), PerfColor(value), c.defaultSize, AlignLeft)
}

// DrawTimestamp draws a wall-clock readout at (x, y).
func (c *GGCompositor) DrawTimestamp(x, y float64, t time.Time) {
	c.DrawText(x, y, t.Format("15:04:05.000"), readoutColor, c.defaultSize, AlignLeft)
}

// DrawFrameCounter draws the frame sequence readout at (x, y).
func (c *GGCompositor) DrawFrameCounter(x, y float64, seq uint64) {
	c.DrawText(x, y, fmt.Sprintf("frame %d", seq), readoutColor, c.defaultSize, AlignLeft)
}
