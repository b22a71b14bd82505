// Package viewer drives the render loop: it pulls the latest frame from
// the pipeline each tick, uploads it to the GPU, brackets a compositor
// frame for the telemetry HUD, and presents.
//
// The viewer is the pipeline's only consumer and the only code that
// touches the compositor, so everything here runs on the render thread.
package viewer

import (
	"image"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/e7canasta/visor/overlay"
	"github.com/e7canasta/visor/pipeline"
	"github.com/e7canasta/visor/platform"
)

// Viewer implements ebiten.Game over the frame pipeline and compositor.
type Viewer struct {
	pipe *pipeline.FramePipeline
	comp overlay.Compositor
	desc *platform.Descriptor

	windowW int
	windowH int
	title   string

	frameImage   *ebiten.Image
	overlayImage *ebiten.Image
	lastSeq      uint64

	hudVisible bool
	// hudDisabled is set when the compositor failed to initialize; the
	// viewer keeps presenting frames and simply skips drawing.
	hudDisabled bool
}

// New creates a viewer over an initialized pipeline and compositor.
// Pass hudDisabled=true when compositor initialization failed; the
// render loop then skips overlay drawing instead of crashing.
func New(pipe *pipeline.FramePipeline, comp overlay.Compositor, desc *platform.Descriptor, width, height int, hudDisabled bool) *Viewer {
	return &Viewer{
		pipe:        pipe,
		comp:        comp,
		desc:        desc,
		windowW:     width,
		windowH:     height,
		title:       "visor",
		hudVisible:  true,
		hudDisabled: hudDisabled,
	}
}

// Run starts the render loop. Must be called from the main goroutine;
// blocks until the window closes.
func (v *Viewer) Run() error {
	ebiten.SetWindowSize(v.windowW, v.windowH)
	ebiten.SetWindowTitle(v.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	slog.Info("viewer: starting render loop",
		"window", image.Point{X: v.windowW, Y: v.windowH},
		"backend", v.desc.Backend.String(),
	)

	return ebiten.RunGame(v)
}

// --- ebiten.Game interface ---

// Update handles per-tick input: H toggles the HUD, Space pauses and
// resumes capture, Escape quits.
func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		v.hudVisible = !v.hudVisible
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		switch v.pipe.State() {
		case pipeline.StateRunning:
			if err := v.pipe.Pause(); err != nil {
				slog.Warn("viewer: pause failed", "error", err)
			}
		case pipeline.StatePaused:
			if err := v.pipe.Resume(); err != nil {
				slog.Warn("viewer: resume failed", "error", err)
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

// Draw pulls the latest frame, uploads it if it changed, then brackets
// one compositor frame for the HUD. A missing frame is not an error:
// the loop presents the placeholder and keeps polling.
func (v *Viewer) Draw(screen *ebiten.Image) {
	frame := v.pipe.LatestFrame()
	if frame != nil {
		v.blitFrame(screen, frame)
	}

	if v.hudDisabled || !v.hudVisible {
		return
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale := ebiten.Monitor().DeviceScaleFactor()
	if scale <= 0 {
		scale = 1.0
	}

	v.comp.BeginFrame(sw, sh, scale)
	v.drawHUD(float64(sw)/scale, float64(sh)/scale, frame)
	v.comp.EndFrame()

	v.blitOverlay(screen)
}

// Layout sizes the backbuffer in physical pixels so the HUD stays sharp
// on HiDPI displays; the compositor maps logical coordinates back.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := ebiten.Monitor().DeviceScaleFactor()
	if scale <= 0 {
		scale = 1.0
	}
	return int(float64(outsideWidth) * scale), int(float64(outsideHeight) * scale)
}

// blitFrame uploads the frame texture when the sequence number moved and
// draws it aspect-fit into the window.
func (v *Viewer) blitFrame(screen *ebiten.Image, frame *pipeline.Frame) {
	if v.frameImage == nil ||
		v.frameImage.Bounds().Dx() != frame.Width ||
		v.frameImage.Bounds().Dy() != frame.Height {
		v.frameImage = ebiten.NewImage(frame.Width, frame.Height)
		v.lastSeq = 0
	}
	if frame.Seq != v.lastSeq {
		v.frameImage.WritePixels(frame.Data)
		v.lastSeq = frame.Seq
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale, offsetX, offsetY := aspectFitTransform(
		float64(sw), float64(sh),
		float64(frame.Width), float64(frame.Height),
	)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(v.frameImage, op)
}

// blitOverlay draws the composited HUD surface over the frame.
func (v *Viewer) blitOverlay(screen *ebiten.Image) {
	img := v.comp.Image()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba == nil {
		return
	}

	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	if v.overlayImage == nil ||
		v.overlayImage.Bounds().Dx() != w ||
		v.overlayImage.Bounds().Dy() != h {
		v.overlayImage = ebiten.NewImage(w, h)
	}
	v.overlayImage.WritePixels(rgba.Pix)

	screen.DrawImage(v.overlayImage, nil)
}

// aspectFitTransform computes the scale and offsets that letterbox a
// frame of size (fw, fh) into a surface of size (sw, sh).
func aspectFitTransform(sw, sh, fw, fh float64) (scale, offsetX, offsetY float64) {
	if fw <= 0 || fh <= 0 {
		return 1, 0, 0
	}
	scale = sw / fw
	if s := sh / fh; s < scale {
		scale = s
	}
	offsetX = (sw - fw*scale) / 2
	offsetY = (sh - fh*scale) / 2
	return scale, offsetX, offsetY
}
