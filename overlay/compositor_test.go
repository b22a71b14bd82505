package overlay

import (
	"errors"
	"image/color"
	"testing"

	"github.com/gogpu/gg/text"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// newBareCompositor returns a compositor marked initialized but without
// a font source, so tests run on hosts with no font files. Text calls
// go through the full bracket machinery and flush as empty glyph runs.
func newBareCompositor() *GGCompositor {
	c := New()
	c.initialized = true
	c.faces = make(map[float64]text.Face)
	c.defaultSize = 14
	return c
}

func TestPrimitivesOutsideBracketAreDropped(t *testing.T) {
	c := newBareCompositor()

	c.DrawRect(0, 0, 10, 10, white)
	c.DrawText(10, 10, "FPS: 30", white, 18, AlignLeft)
	c.DrawLine(0, 0, 5, 5, 1, white)

	if got := c.DroppedCalls(); got != 3 {
		t.Errorf("DroppedCalls() = %d, want 3", got)
	}
	if got := c.FlushedBatches(); got != 0 {
		t.Errorf("FlushedBatches() = %d, want 0", got)
	}
	if img := c.Image(); img != nil {
		t.Error("Image() before first bracket is non-nil")
	}
}

func TestBracketFlushesSingleBatch(t *testing.T) {
	c := newBareCompositor()
	defer c.Shutdown()

	c.BeginFrame(1280, 720, 2.0)
	c.DrawText(10, 10, "FPS: 30", white, 18, AlignLeft)
	c.EndFrame()

	if got := c.FlushedBatches(); got != 1 {
		t.Errorf("FlushedBatches() = %d, want 1", got)
	}
	if got := c.DroppedCalls(); got != 0 {
		t.Errorf("DroppedCalls() = %d, want 0", got)
	}
	img := c.Image()
	if img == nil {
		t.Fatal("Image() = nil after EndFrame")
	}
	b := img.Bounds()
	if b.Dx() != 1280 || b.Dy() != 720 {
		t.Errorf("surface bounds = %dx%d, want 1280x720", b.Dx(), b.Dy())
	}
}

func TestBracketStrictAlternation(t *testing.T) {
	c := newBareCompositor()
	defer c.Shutdown()

	for i := 0; i < 3; i++ {
		c.BeginFrame(640, 480, 1.0)
		c.DrawRect(2, 2, 4, 4, white)
		c.EndFrame()
	}
	if got := c.FlushedBatches(); got != 3 {
		t.Errorf("FlushedBatches() = %d, want 3", got)
	}

	// A second BeginFrame while open is ignored, not a restart
	c.BeginFrame(640, 480, 1.0)
	c.DrawRect(2, 2, 4, 4, white)
	c.BeginFrame(640, 480, 1.0)
	if len(c.ops) != 1 {
		t.Errorf("nested BeginFrame cleared the display list: %d ops, want 1", len(c.ops))
	}
	c.EndFrame()

	// EndFrame without an open bracket is a no-op
	c.EndFrame()
	if got := c.FlushedBatches(); got != 4 {
		t.Errorf("FlushedBatches() = %d, want 4", got)
	}
}

func TestBeginFrameRejectsInvalidSurface(t *testing.T) {
	c := newBareCompositor()
	defer c.Shutdown()

	c.BeginFrame(0, 720, 1.0)
	if c.open {
		t.Fatal("bracket opened on zero-width surface")
	}
	c.BeginFrame(640, 480, 0)
	if c.open {
		t.Fatal("bracket opened on zero pixel scale")
	}
	c.DrawRect(0, 0, 1, 1, white)
	if got := c.DroppedCalls(); got != 1 {
		t.Errorf("DroppedCalls() = %d, want 1", got)
	}
}

func TestUninitializedCompositorIsInert(t *testing.T) {
	c := New()

	c.BeginFrame(640, 480, 1.0)
	c.DrawRect(0, 0, 1, 1, white)
	c.EndFrame()

	if c.FlushedBatches() != 0 {
		t.Errorf("FlushedBatches() = %d on uninitialized compositor, want 0", c.FlushedBatches())
	}
	if c.Image() != nil {
		t.Error("Image() non-nil on uninitialized compositor")
	}
}

func TestSurfaceRecreatedOnResize(t *testing.T) {
	c := newBareCompositor()
	defer c.Shutdown()

	c.BeginFrame(640, 480, 1.0)
	c.EndFrame()
	c.BeginFrame(1280, 720, 1.0)
	c.EndFrame()

	b := c.Image().Bounds()
	if b.Dx() != 1280 || b.Dy() != 720 {
		t.Errorf("surface bounds after resize = %dx%d, want 1280x720", b.Dx(), b.Dy())
	}
}

func TestRectFillReachesSurface(t *testing.T) {
	c := newBareCompositor()
	defer c.Shutdown()

	c.BeginFrame(32, 32, 1.0)
	c.DrawRect(4, 4, 16, 16, color.RGBA{R: 255, A: 255})
	c.EndFrame()

	img := c.Image()
	r, _, _, a := img.At(10, 10).RGBA()
	if a == 0 || r == 0 {
		t.Errorf("pixel inside filled rect = %v, want opaque red", img.At(10, 10))
	}
	_, _, _, a = img.At(30, 30).RGBA()
	if a != 0 {
		t.Errorf("pixel outside filled rect = %v, want transparent", img.At(30, 30))
	}
}

func TestShutdownAlwaysSafe(t *testing.T) {
	// Fresh, never initialized
	New().Shutdown()

	// After a failed Initialize
	c := New()
	if err := c.Initialize(Config{FontPath: "/nonexistent/font.ttf"}); err == nil {
		t.Fatal("Initialize with missing font succeeded")
	}
	c.Shutdown()
	c.Shutdown()

	// Mid-bracket
	c = newBareCompositor()
	c.BeginFrame(64, 64, 1.0)
	c.DrawRect(0, 0, 8, 8, white)
	c.Shutdown()
	if c.open || c.initialized {
		t.Error("Shutdown left compositor open or initialized")
	}
}

func TestInitializeFontFailures(t *testing.T) {
	c := New()
	if err := c.Initialize(Config{}); !errors.Is(err, ErrFontLoadFailed) {
		t.Errorf("Initialize with empty font path: err = %v, want ErrFontLoadFailed", err)
	}
	if err := c.Initialize(Config{FontPath: "/nonexistent/font.ttf"}); !errors.Is(err, ErrFontLoadFailed) {
		t.Errorf("Initialize with missing font: err = %v, want ErrFontLoadFailed", err)
	}
	if c.initialized {
		t.Error("compositor marked initialized after font failure")
	}
}

func TestPerfColorThresholds(t *testing.T) {
	tests := []struct {
		value float64
		want  color.RGBA
	}{
		{30, perfGoodColor},
		{24, perfGoodColor}, // boundary is inclusive
		{23.9, perfWarnColor},
		{15, perfWarnColor},
		{14.9, perfAlertColor},
		{0, perfAlertColor},
	}
	for _, tt := range tests {
		if got := PerfColor(tt.value); got != tt.want {
			t.Errorf("PerfColor(%.1f) = %v, want %v", tt.value, got, tt.want)
		}
	}
}
