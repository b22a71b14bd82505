package pipeline

// State is the lifecycle state of a FramePipeline.
//
// Exactly one writer (the pipeline's own control operations); any number
// of concurrent readers.
type State int32

const (
	// StateUninitialized is the zero state before Initialize
	StateUninitialized State = iota
	// StateReady means configuration is valid and Start may be called
	StateReady
	// StateRunning means frames are being captured and published
	StateRunning
	// StatePaused means capture is suspended without releasing the device
	StatePaused
	// StateError means the engine faulted; only Stop then Initialize recovers
	StateError
)

// String returns a human-readable string representation of the state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
