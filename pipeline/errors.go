package pipeline

import "errors"

// Error taxonomy. All failures are returned, never thrown across the
// capture/render boundary; match with errors.Is.
var (
	// ErrConfigInvalid means bad caller input, rejected before any side effect
	ErrConfigInvalid = errors.New("pipeline: invalid configuration")

	// ErrSourceUnavailable means the capture device is missing or busy.
	// Retryable: the pipeline stays Ready and Start may be called again.
	ErrSourceUnavailable = errors.New("pipeline: capture source unavailable")

	// ErrEngineFault means the capture engine failed mid-session.
	// Terminal for the session: the pipeline is in StateError until
	// Stop followed by Initialize.
	ErrEngineFault = errors.New("pipeline: capture engine fault")

	// ErrInvalidTransition means the operation is not legal in the
	// current state
	ErrInvalidTransition = errors.New("pipeline: invalid state transition")
)
