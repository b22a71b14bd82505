package capture

import "time"

// Frame is a single decoded video frame with metadata.
//
// Frames are immutable once published: Data is an owned copy made at
// capture time and MUST NOT be modified by any holder. Sharing is by
// pointer; a new capture always allocates a new Frame.
type Frame struct {
	// Seq is the monotonic sequence number assigned at capture
	Seq uint64
	// Timestamp is when the frame was captured/decoded (monotonic clock)
	Timestamp time.Time
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// Data contains row-major RGBA pixels (width*height*4 bytes)
	Data []byte
	// TraceID is a unique identifier for distributed tracing
	TraceID string
}

// Config describes a concrete capture session.
type Config struct {
	// Description is the rendered engine description string. It must
	// contain an appsink named "sink" (see platform.CaptureDescription).
	Description string
	// Width in pixels
	Width int
	// Height in pixels
	Height int
	// TargetFPS is the requested frames per second (0.1 - 60.0)
	TargetFPS float64
}

// SourceStats contains current source statistics
type SourceStats struct {
	// FrameCount is the total number of frames captured
	FrameCount uint64
	// FramesDropped is the number of frames dropped before acquisition
	FramesDropped uint64
	// BytesRead is the total bytes copied out of the engine
	BytesRead uint64
	// IsRunning indicates whether the engine is currently playing
	IsRunning bool
}
