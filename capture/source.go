package capture

import (
	"context"
	"time"
)

// Source is the contract for frame acquisition from a capture engine.
//
// Implementations must guarantee:
//   - Init() validates configuration fail-fast and takes no device yet
//   - Start() reaches the device or fails without leaking engine state
//   - TryAcquire() blocks at most its timeout and returns owned frames
//   - Stop() fully releases the engine before returning (idempotent)
//   - Stats() is safe to call from any goroutine
type Source interface {
	// Init validates the configuration and builds engine state without
	// touching the device. Must be called before Start.
	Init(cfg Config) error

	// Start brings the engine up. Returns an error if the configured
	// device cannot be reached; the source stays initialized and Start
	// may be retried.
	Start(ctx context.Context) error

	// Stop shuts the engine down and releases the device. Idempotent;
	// no background engine activity remains after Stop returns.
	Stop() error

	// TryAcquire waits up to timeout for the next frame. Returns
	// (nil, nil) when no frame arrived in time - a transient miss, not
	// an error. A non-nil error means the engine hit an unrecoverable
	// fault and the session is dead.
	TryAcquire(timeout time.Duration) (*Frame, error)

	// Stats returns current source statistics.
	Stats() SourceStats
}
