package capture

import "testing"

func TestClassifyEngineErrorNil(t *testing.T) {
	if got := ClassifyEngineError(nil); got != ErrCategoryUnknown {
		t.Errorf("ClassifyEngineError(nil) = %v, want unknown", got)
	}
}

func TestErrorCategoryString(t *testing.T) {
	tests := []struct {
		cat  ErrorCategory
		want string
	}{
		{ErrCategoryDevice, "device"},
		{ErrCategoryCodec, "codec"},
		{ErrCategoryPermission, "permission"},
		{ErrCategoryUnknown, "unknown"},
		{ErrorCategory(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.cat.String(); got != tt.want {
			t.Errorf("ErrorCategory(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		s        string
		keywords []string
		want     bool
	}{
		{"v4l2 device is busy", deviceKeywords, true},
		{"caps negotiation failed", codecKeywords, true},
		{"access denied by privacy settings", permissionKeywords, true},
		{"something else entirely", deviceKeywords, false},
		{"", deviceKeywords, false},
	}
	for _, tt := range tests {
		if got := containsAny(tt.s, tt.keywords); got != tt.want {
			t.Errorf("containsAny(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

// Classification precedence: permission wins over device when both
// keyword families appear in the same message.
func TestClassificationPrecedence(t *testing.T) {
	// Can only be exercised via keyword matching since gst.GError cannot
	// be constructed without the engine; verify the keyword families
	// themselves do not shadow each other unexpectedly.
	msg := "could not open device: permission denied"
	if !containsAny(msg, permissionKeywords) {
		t.Error("permission keywords missed a permission message")
	}
	if !containsAny(msg, deviceKeywords) {
		t.Error("device keywords missed a device message")
	}
}
