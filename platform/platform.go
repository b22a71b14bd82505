// Package platform resolves the capture and graphics capabilities of the
// running host into an immutable Descriptor.
//
// Resolve() runs once at process start. The Descriptor is passed by
// reference into the components that need it (capture configuration,
// window/backend selection) and is never mutated afterwards, so it needs
// no synchronization and costs nothing per frame.
package platform

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
)

// Backend identifies the graphics backend for the running host.
type Backend int

const (
	// BackendDesktopGL is the desktop OpenGL backend (macOS, Windows, x86 Linux)
	BackendDesktopGL Backend = iota
	// BackendGLES is the OpenGL ES backend (embedded ARM Linux devices)
	BackendGLES
)

// String returns a human-readable string representation of the backend
func (b Backend) String() string {
	switch b {
	case BackendDesktopGL:
		return "desktop-gl"
	case BackendGLES:
		return "gles"
	default:
		return "unknown"
	}
}

// Resolution represents supported capture resolutions
type Resolution int

const (
	// Res480p represents 640x480 resolution
	Res480p Resolution = iota
	// Res720p represents 1280x720 resolution (HD)
	Res720p
	// Res1080p represents 1920x1080 resolution (Full HD)
	Res1080p
)

// Dimensions returns the width and height for the resolution
func (r Resolution) Dimensions() (width, height int) {
	switch r {
	case Res480p:
		return 640, 480
	case Res720p:
		return 1280, 720
	case Res1080p:
		return 1920, 1080
	default:
		// Safe default: 480p
		return 640, 480
	}
}

// String returns a human-readable string representation of the resolution
func (r Resolution) String() string {
	switch r {
	case Res480p:
		return "480p"
	case Res720p:
		return "720p"
	case Res1080p:
		return "1080p"
	default:
		return "480p"
	}
}

// Descriptor is the resolved, immutable set of backend and capability
// choices for the current host. Constructed once by Resolve(); read-only
// afterwards.
type Descriptor struct {
	// Backend is the graphics backend to create surfaces with
	Backend Backend
	// CaptureTemplate is the engine description template. Placeholders,
	// in order: device selector (%s), width (%d), height (%d),
	// framerate numerator (%d), framerate denominator (%d).
	CaptureTemplate string
	// DefaultDevice is the device selector to use when none is configured
	DefaultDevice string
	// HasCamera reports whether a capture device was found at startup
	HasCamera bool
	// Resolutions lists the capture resolutions supported on this host
	Resolutions []Resolution
}

// Host capture templates. All of them scale/convert to RGBA and end in an
// appsink named "sink" configured for latest-wins delivery (max-buffers=1,
// drop=true), so the rest of the system is host-independent.
const (
	templateDarwin = "avfvideosrc device-index=%s ! videoconvert ! videoscale ! " +
		"videorate drop-only=true skip-to-first=true ! " +
		"video/x-raw,format=RGBA,width=%d,height=%d,framerate=%d/%d ! " +
		"appsink name=sink sync=false max-buffers=1 drop=true"

	templateLinux = "v4l2src device=%s ! videoconvert ! videoscale ! " +
		"videorate drop-only=true skip-to-first=true ! " +
		"video/x-raw,format=RGBA,width=%d,height=%d,framerate=%d/%d ! " +
		"appsink name=sink sync=false max-buffers=1 drop=true"

	templateWindows = "mfvideosrc device-index=%s ! videoconvert ! videoscale ! " +
		"videorate drop-only=true skip-to-first=true ! " +
		"video/x-raw,format=RGBA,width=%d,height=%d,framerate=%d/%d ! " +
		"appsink name=sink sync=false max-buffers=1 drop=true"
)

// Resolve determines the Platform Descriptor for the running host.
//
// Dispatch only, no probing beyond a cheap device-node check on Linux.
// Returns an error if the host OS has no known capture template.
func Resolve() (*Descriptor, error) {
	d := &Descriptor{
		Resolutions: []Resolution{Res480p, Res720p, Res1080p},
	}

	switch runtime.GOOS {
	case "darwin":
		d.Backend = BackendDesktopGL
		d.CaptureTemplate = templateDarwin
		d.DefaultDevice = "0"
		d.HasCamera = true

	case "linux":
		d.CaptureTemplate = templateLinux
		d.DefaultDevice = "/dev/video0"
		// Embedded ARM boards drive GLES; x86 Linux gets desktop GL
		if runtime.GOARCH == "arm" || runtime.GOARCH == "arm64" {
			d.Backend = BackendGLES
		} else {
			d.Backend = BackendDesktopGL
		}
		if _, err := os.Stat(d.DefaultDevice); err == nil {
			d.HasCamera = true
		}

	case "windows":
		d.Backend = BackendDesktopGL
		d.CaptureTemplate = templateWindows
		d.DefaultDevice = "0"
		d.HasCamera = true

	default:
		return nil, fmt.Errorf("platform: no capture template for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	slog.Info("platform: resolved descriptor",
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
		"backend", d.Backend.String(),
		"default_device", d.DefaultDevice,
		"has_camera", d.HasCamera,
	)

	return d, nil
}

// CaptureDescription renders the host capture template into a concrete
// engine description for the given device and geometry.
//
// Handles fractional framerates the same way the capture engine expects:
//   - fps >= 1.0: framerate = fps/1 (e.g., 15.0 -> 15/1)
//   - fps < 1.0:  framerate = 1/(1/fps) (e.g., 0.5 -> 1/2)
func (d *Descriptor) CaptureDescription(device string, width, height int, fps float64) string {
	if device == "" {
		device = d.DefaultDevice
	}
	num, den := framerateFraction(fps)
	return fmt.Sprintf(d.CaptureTemplate, device, width, height, num, den)
}

// SupportsResolution reports whether the host advertises the given geometry.
func (d *Descriptor) SupportsResolution(width, height int) bool {
	for _, r := range d.Resolutions {
		w, h := r.Dimensions()
		if w == width && h == height {
			return true
		}
	}
	return false
}

func framerateFraction(fps float64) (num, den int) {
	num, den = 1, 1
	if fps < 1.0 {
		den = int(1.0 / fps)
	} else {
		num = int(fps)
	}
	return num, den
}
