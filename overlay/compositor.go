package overlay

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
)

// Startup failures. Returned, never thrown; after a failed Initialize
// only Shutdown is legal.
var (
	// ErrContextCreationFailed means the raster context could not be built
	ErrContextCreationFailed = errors.New("overlay: context creation failed")
	// ErrFontLoadFailed means the configured font could not be loaded
	ErrFontLoadFailed = errors.New("overlay: font load failed")
)

// Align controls horizontal text placement relative to the x coordinate.
type Align int

const (
	// AlignLeft places the left edge of the text at x
	AlignLeft Align = iota
	// AlignCenter centers the text on x
	AlignCenter
	// AlignRight places the right edge of the text at x
	AlignRight
)

// Config carries compositor startup parameters.
type Config struct {
	// FontPath is the filesystem path of the overlay font. Absence is a
	// startup failure, not a runtime fault.
	FontPath string
	// FontSize is the default text size in logical pixels (convenience
	// readouts use it); 14 when zero.
	FontSize float64
}

// Compositor is the frame-bracketed drawing surface consumed by the
// render loop.
type Compositor interface {
	Initialize(cfg Config) error
	Shutdown()

	BeginFrame(width, height int, pixelScale float64)
	EndFrame()

	DrawText(x, y float64, s string, col color.RGBA, size float64, align Align)
	DrawRect(x, y, w, h float64, col color.RGBA)
	DrawRectOutline(x, y, w, h, lineWidth float64, col color.RGBA)
	DrawRoundedRect(x, y, w, h, radius float64, col color.RGBA)
	DrawLine(x1, y1, x2, y2, lineWidth float64, col color.RGBA)
	DrawCircle(x, y, r float64, col color.RGBA)

	DrawPerfCounter(x, y, value float64)
	DrawTimestamp(x, y float64, t time.Time)
	DrawFrameCounter(x, y float64, seq uint64)

	// Image exposes the composited overlay for texture upload. Valid
	// after EndFrame until the next BeginFrame resizes the surface.
	Image() image.Image
	// FlushedBatches counts completed EndFrame flushes.
	FlushedBatches() uint64
}

// GGCompositor implements Compositor on a software raster context.
// Primitives are recorded into a display list and flushed to the surface
// as one batch at EndFrame.
type GGCompositor struct {
	fontSource  *text.FontSource
	faces       map[float64]text.Face
	defaultSize float64

	dc         *gg.Context
	width      int // physical pixels
	height     int
	pixelScale float64

	open        bool
	initialized bool

	ops     []func(dc *gg.Context)
	flushed uint64
	dropped uint64 // primitive calls issued outside a bracket
}

var _ Compositor = (*GGCompositor)(nil)

// New creates an uninitialized compositor.
func New() *GGCompositor {
	return &GGCompositor{}
}

// Initialize acquires the font and verifies a raster context can be
// built. On failure the compositor is unusable except for Shutdown.
func (c *GGCompositor) Initialize(cfg Config) error {
	if err := probeContext(); err != nil {
		return err
	}

	if cfg.FontPath == "" {
		return fmt.Errorf("%w: no font path configured", ErrFontLoadFailed)
	}
	source, err := text.NewFontSourceFromFile(cfg.FontPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFontLoadFailed, cfg.FontPath, err)
	}

	c.fontSource = source
	c.faces = make(map[float64]text.Face)
	c.defaultSize = cfg.FontSize
	if c.defaultSize <= 0 {
		c.defaultSize = 14
	}
	c.initialized = true

	slog.Info("overlay: compositor initialized",
		"font", cfg.FontPath,
		"default_size", c.defaultSize,
	)

	return nil
}

// probeContext builds and discards a tiny raster context. The raster
// backend panics rather than erroring on an unusable host, and that
// panic must not cross the call boundary.
func probeContext() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrContextCreationFailed, r)
		}
	}()
	dc := gg.NewContext(16, 16)
	return dc.Close()
}

// Shutdown releases font and surface resources. Always safe to call,
// including after a failed Initialize. Idempotent.
func (c *GGCompositor) Shutdown() {
	if c.dc != nil {
		if err := c.dc.Close(); err != nil {
			slog.Error("overlay: context close failed", "error", err)
		}
		c.dc = nil
	}
	c.fontSource = nil
	c.faces = nil
	c.ops = nil
	c.open = false
	c.initialized = false
}

// BeginFrame opens a drawing bracket sized to the physical surface.
// Must be called exactly once per rendered frame before any primitive.
// A BeginFrame while a bracket is already open is a no-op.
func (c *GGCompositor) BeginFrame(width, height int, pixelScale float64) {
	if !c.initialized {
		return
	}
	if c.open {
		slog.Warn("overlay: BeginFrame while bracket already open, ignoring")
		return
	}
	if width <= 0 || height <= 0 || pixelScale <= 0 {
		slog.Warn("overlay: BeginFrame with invalid surface",
			"width", width, "height", height, "pixel_scale", pixelScale)
		return
	}

	if c.dc == nil || c.width != width || c.height != height {
		if c.dc != nil {
			c.dc.Close()
		}
		c.dc = gg.NewContext(width, height)
		c.width = width
		c.height = height
	}

	c.pixelScale = pixelScale
	c.ops = c.ops[:0]
	c.open = true
}

// EndFrame flushes every primitive recorded since the matching
// BeginFrame to the surface in a single batch and closes the bracket.
// An EndFrame without an open bracket is a no-op.
func (c *GGCompositor) EndFrame() {
	if !c.open {
		if c.initialized {
			slog.Warn("overlay: EndFrame without open bracket, ignoring")
		}
		return
	}

	c.dc.ClearWithColor(gg.RGBA{})
	c.dc.Push()
	c.dc.Scale(c.pixelScale, c.pixelScale)
	for _, op := range c.ops {
		op(c.dc)
	}
	c.dc.Pop()

	c.flushed++
	c.open = false
}

// record appends a primitive to the display list; outside a bracket the
// call is dropped silently.
func (c *GGCompositor) record(op func(dc *gg.Context)) {
	if !c.open {
		c.dropped++
		return
	}
	c.ops = append(c.ops, op)
}

// face returns a cached font face at the given logical size, scaled to
// physical pixels.
func (c *GGCompositor) face(size float64) text.Face {
	if c.fontSource == nil {
		return nil
	}
	px := size * c.pixelScale
	if f, ok := c.faces[px]; ok {
		return f
	}
	f := c.fontSource.Face(px)
	c.faces[px] = f
	return f
}

// DrawText draws s with its top edge at y, horizontally placed by align.
// size is the font size in logical pixels.
func (c *GGCompositor) DrawText(x, y float64, s string, col color.RGBA, size float64, align Align) {
	// The face lookup needs a live font source, so the outside-bracket
	// no-op check happens before it rather than inside record.
	if !c.open {
		c.dropped++
		return
	}
	if size <= 0 {
		size = c.defaultSize
	}
	var ax float64
	switch align {
	case AlignCenter:
		ax = 0.5
	case AlignRight:
		ax = 1.0
	}
	face := c.face(size)
	scale := c.pixelScale
	c.record(func(dc *gg.Context) {
		if face == nil {
			return
		}
		dc.SetFont(face)
		dc.SetColor(col)
		// The face is sized in physical pixels while the transform is
		// logical: draw outside the scaled transform.
		dc.Push()
		dc.Identity()
		dc.DrawStringAnchored(s, x*scale, y*scale, ax, 1.0)
		dc.Pop()
	})
}

// DrawRect draws a filled rectangle.
func (c *GGCompositor) DrawRect(x, y, w, h float64, col color.RGBA) {
	c.record(func(dc *gg.Context) {
		dc.SetColor(col)
		dc.DrawRectangle(x, y, w, h)
		_ = dc.Fill()
	})
}

// DrawRectOutline draws a stroked rectangle outline.
func (c *GGCompositor) DrawRectOutline(x, y, w, h, lineWidth float64, col color.RGBA) {
	c.record(func(dc *gg.Context) {
		dc.SetColor(col)
		dc.SetLineWidth(lineWidth)
		dc.DrawRectangle(x, y, w, h)
		_ = dc.Stroke()
	})
}

// DrawRoundedRect draws a filled rounded rectangle.
func (c *GGCompositor) DrawRoundedRect(x, y, w, h, radius float64, col color.RGBA) {
	c.record(func(dc *gg.Context) {
		dc.SetColor(col)
		dc.DrawRoundedRectangle(x, y, w, h, radius)
		_ = dc.Fill()
	})
}

// DrawLine draws a line segment.
func (c *GGCompositor) DrawLine(x1, y1, x2, y2, lineWidth float64, col color.RGBA) {
	c.record(func(dc *gg.Context) {
		dc.SetColor(col)
		dc.SetLineWidth(lineWidth)
		dc.DrawLine(x1, y1, x2, y2)
		_ = dc.Stroke()
	})
}

// DrawCircle draws a filled circle centered at (x, y).
func (c *GGCompositor) DrawCircle(x, y, r float64, col color.RGBA) {
	c.record(func(dc *gg.Context) {
		dc.SetColor(col)
		dc.DrawCircle(x, y, r)
		_ = dc.Fill()
	})
}

// Image returns the composited overlay surface, or nil before the first
// bracket.
func (c *GGCompositor) Image() image.Image {
	if c.dc == nil {
		return nil
	}
	return c.dc.Image()
}

// FlushedBatches returns the number of completed EndFrame flushes.
func (c *GGCompositor) FlushedBatches() uint64 {
	return c.flushed
}

// DroppedCalls returns the number of primitives issued outside a bracket.
func (c *GGCompositor) DroppedCalls() uint64 {
	return c.dropped
}
