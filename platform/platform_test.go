package platform

import (
	"strings"
	"testing"
)

func TestResolveOnHost(t *testing.T) {
	d, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	if d.CaptureTemplate == "" {
		t.Error("Resolve() returned empty capture template")
	}
	if d.DefaultDevice == "" {
		t.Error("Resolve() returned empty default device")
	}
	if len(d.Resolutions) == 0 {
		t.Error("Resolve() returned no supported resolutions")
	}
}

func TestCaptureDescription(t *testing.T) {
	d := &Descriptor{
		CaptureTemplate: templateLinux,
		DefaultDevice:   "/dev/video0",
	}

	desc := d.CaptureDescription("/dev/video2", 1280, 720, 30)
	for _, want := range []string{
		"v4l2src device=/dev/video2",
		"width=1280",
		"height=720",
		"framerate=30/1",
		"format=RGBA",
		"appsink name=sink",
		"max-buffers=1 drop=true",
	} {
		if !strings.Contains(desc, want) {
			t.Errorf("description missing %q:\n%s", want, desc)
		}
	}

	// Empty device falls back to the host default
	desc = d.CaptureDescription("", 640, 480, 15)
	if !strings.Contains(desc, "device=/dev/video0") {
		t.Errorf("description did not use default device:\n%s", desc)
	}
}

func TestFramerateFraction(t *testing.T) {
	tests := []struct {
		fps float64
		num int
		den int
	}{
		{30, 30, 1},
		{15, 15, 1},
		{1, 1, 1},
		{0.5, 1, 2},
		{0.25, 1, 4},
	}
	for _, tt := range tests {
		num, den := framerateFraction(tt.fps)
		if num != tt.num || den != tt.den {
			t.Errorf("framerateFraction(%.2f) = %d/%d, want %d/%d",
				tt.fps, num, den, tt.num, tt.den)
		}
	}
}

func TestSupportsResolution(t *testing.T) {
	d := &Descriptor{Resolutions: []Resolution{Res480p, Res720p, Res1080p}}

	tests := []struct {
		w, h int
		want bool
	}{
		{640, 480, true},
		{1280, 720, true},
		{1920, 1080, true},
		{800, 600, false},
		{0, 0, false},
	}
	for _, tt := range tests {
		if got := d.SupportsResolution(tt.w, tt.h); got != tt.want {
			t.Errorf("SupportsResolution(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestResolutionDimensions(t *testing.T) {
	tests := []struct {
		res  Resolution
		w, h int
		name string
	}{
		{Res480p, 640, 480, "480p"},
		{Res720p, 1280, 720, "720p"},
		{Res1080p, 1920, 1080, "1080p"},
		{Resolution(99), 640, 480, "480p"}, // safe default
	}
	for _, tt := range tests {
		w, h := tt.res.Dimensions()
		if w != tt.w || h != tt.h {
			t.Errorf("%v.Dimensions() = %dx%d, want %dx%d", tt.res, w, h, tt.w, tt.h)
		}
		if got := tt.res.String(); got != tt.name {
			t.Errorf("Resolution(%d).String() = %q, want %q", tt.res, got, tt.name)
		}
	}
}

func TestBackendString(t *testing.T) {
	if got := BackendDesktopGL.String(); got != "desktop-gl" {
		t.Errorf("BackendDesktopGL.String() = %q", got)
	}
	if got := BackendGLES.String(); got != "gles" {
		t.Errorf("BackendGLES.String() = %q", got)
	}
	if got := Backend(9).String(); got != "unknown" {
		t.Errorf("Backend(9).String() = %q", got)
	}
}
