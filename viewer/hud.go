package viewer

import (
	"fmt"
	"image/color"
	"time"

	"github.com/e7canasta/visor/overlay"
	"github.com/e7canasta/visor/pipeline"
)

var (
	hudPanelColor   = color.RGBA{R: 16, G: 20, B: 26, A: 176}
	hudTextColor    = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	hudDimColor     = color.RGBA{R: 150, G: 160, B: 170, A: 255}
	hudReticleColor = color.RGBA{R: 235, G: 235, B: 235, A: 96}
	hudErrorColor   = color.RGBA{R: 232, G: 72, B: 56, A: 255}
	hudPauseColor   = color.RGBA{R: 240, G: 200, B: 64, A: 255}
)

// drawHUD issues the per-frame telemetry primitives inside the already
// open compositor bracket. w and h are logical pixels.
func (v *Viewer) drawHUD(w, h float64, frame *pipeline.Frame) {
	stats := v.pipe.Stats()

	// Stats panel, top-left
	v.comp.DrawRoundedRect(12, 12, 190, 96, 6, hudPanelColor)
	v.comp.DrawPerfCounter(22, 18, stats.FPSReal)
	if frame != nil {
		v.comp.DrawTimestamp(22, 38, frame.Timestamp)
		v.comp.DrawFrameCounter(22, 58, frame.Seq)
	} else {
		v.comp.DrawTimestamp(22, 38, time.Now())
		v.comp.DrawText(22, 58, "no frame yet", hudDimColor, 0, overlay.AlignLeft)
	}
	v.comp.DrawText(22, 78, fmt.Sprintf("%s  %s", stats.Resolution, stats.State), hudDimColor, 12, overlay.AlignLeft)

	// Crosshair reticle, window center
	cx, cy := w/2, h/2
	v.comp.DrawLine(cx-18, cy, cx-6, cy, 1.5, hudReticleColor)
	v.comp.DrawLine(cx+6, cy, cx+18, cy, 1.5, hudReticleColor)
	v.comp.DrawLine(cx, cy-18, cx, cy-6, 1.5, hudReticleColor)
	v.comp.DrawLine(cx, cy+6, cx, cy+18, 1.5, hudReticleColor)
	v.comp.DrawCircle(cx, cy, 2, hudReticleColor)

	switch v.pipe.State() {
	case pipeline.StateError:
		// Fault banner plus border so the condition is visible even at a glance
		v.comp.DrawRectOutline(2, 2, w-4, h-4, 3, hudErrorColor)
		v.comp.DrawText(w/2, h-48, "capture fault: "+v.pipe.LastError(), hudErrorColor, 16, overlay.AlignCenter)
	case pipeline.StatePaused:
		v.comp.DrawText(w/2, 20, "PAUSED", hudPauseColor, 16, overlay.AlignCenter)
	}

	if frame == nil && v.pipe.State() != pipeline.StateError {
		v.comp.DrawText(w/2, h/2+36, "waiting for camera...", hudTextColor, 18, overlay.AlignCenter)
	}
}
