package capture

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrorCategory classifies engine faults for diagnostics.
type ErrorCategory int

const (
	// ErrCategoryDevice indicates capture-device failures (missing, busy, unplugged)
	ErrCategoryDevice ErrorCategory = iota
	// ErrCategoryCodec indicates codec/format failures (decode errors, caps negotiation)
	ErrCategoryCodec
	// ErrCategoryPermission indicates access/permission failures
	ErrCategoryPermission
	// ErrCategoryUnknown indicates unclassified failures
	ErrCategoryUnknown
)

// String returns a human-readable string representation of the category
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryDevice:
		return "device"
	case ErrCategoryCodec:
		return "codec"
	case ErrCategoryPermission:
		return "permission"
	default:
		return "unknown"
	}
}

// ClassifyEngineError categorizes a GStreamer error for diagnostics.
//
// Distinguishes device problems (retry after replugging may help) from
// codec problems (retry will not help) and permission problems (the user
// must grant camera access). go-gst's GError does not expose a domain,
// so classification relies on message heuristics.
func ClassifyEngineError(gerr *gst.GError) ErrorCategory {
	if gerr == nil {
		return ErrCategoryUnknown
	}

	combined := strings.ToLower(gerr.Error()) + " " + strings.ToLower(gerr.DebugString())

	if containsAny(combined, permissionKeywords) {
		return ErrCategoryPermission
	}
	if containsAny(combined, codecKeywords) {
		return ErrCategoryCodec
	}
	if containsAny(combined, deviceKeywords) {
		return ErrCategoryDevice
	}

	return ErrCategoryUnknown
}

var permissionKeywords = []string{
	"permission",
	"not authorized",
	"access denied",
	"privacy",
}

var codecKeywords = []string{
	"codec",
	"decode",
	"format",
	"negotiation",
	"caps",
	"not negotiated",
	"no decoder",
	"missing plugin",
}

var deviceKeywords = []string{
	"device",
	"no such file",
	"busy",
	"not found",
	"disconnected",
	"unplugged",
	"v4l2",
	"could not open",
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
