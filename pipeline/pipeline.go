package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/visor/capture"
	"github.com/e7canasta/visor/platform"
)

// Frame is re-exported from the capture package: the pipeline publishes
// exactly what the source produced, under the same immutability contract.
type Frame = capture.Frame

// Config carries the capture session parameters.
type Config struct {
	// Width in pixels (must be positive)
	Width int
	// Height in pixels (must be positive)
	Height int
	// TargetFPS is the requested frames per second (must be positive)
	TargetFPS float64
	// Device is an optional device selector; empty uses the host default
	Device string
}

// SourceFactory builds a capture source for a session. Injectable so
// tests can substitute a fake engine.
type SourceFactory func() capture.Source

// Option configures a FramePipeline at construction time.
type Option func(*FramePipeline)

// WithSourceFactory overrides the capture source constructor.
func WithSourceFactory(f SourceFactory) Option {
	return func(p *FramePipeline) { p.newSource = f }
}

// WithPollTimeout overrides the bounded wait of one acquire tick.
func WithPollTimeout(d time.Duration) Option {
	return func(p *FramePipeline) { p.pollTimeout = d }
}

// defaultPollTimeout bounds one tick of the capture-driving loop. It
// bounds the loop, not the render thread: LatestFrame never waits on it.
const defaultPollTimeout = 10 * time.Millisecond

// FramePipeline owns the capture lifecycle and guarantees the render loop
// always sees either the most recent frame or none - never a torn frame,
// never an older one than previously observed.
type FramePipeline struct {
	desc *platform.Descriptor

	mu         sync.Mutex // guards control operations and fields below
	cfg        Config
	captureCfg capture.Config
	source     capture.Source
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	started    time.Time

	// lastErr has its own lock: the capture loop writes it on a fault
	// while Stop may be holding mu waiting for that same loop to exit.
	errMu   sync.Mutex
	lastErr string

	state atomic.Int32 // State; written under mu, read lock-free

	slot        frameSlot
	newSource   SourceFactory
	pollTimeout time.Duration

	lastFrameNanos atomic.Int64 // monotonic-ish wall time of last publish
}

// New creates a pipeline bound to the resolved platform descriptor.
// The pipeline starts Uninitialized; call Initialize before Start.
func New(desc *platform.Descriptor, opts ...Option) *FramePipeline {
	p := &FramePipeline{
		desc:        desc,
		newSource:   func() capture.Source { return capture.NewGstSource() },
		pollTimeout: defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize validates the configuration and moves the pipeline to Ready.
//
// Fails with ErrConfigInvalid (no side effects) if geometry is
// non-positive or fps <= 0. Legal from Uninitialized and Ready; leaving
// Error requires Stop first.
func (p *FramePipeline) Initialize(cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch State(p.state.Load()) {
	case StateUninitialized, StateReady:
	default:
		return fmt.Errorf("%w: initialize while %s", ErrInvalidTransition, State(p.state.Load()))
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: geometry %dx%d", ErrConfigInvalid, cfg.Width, cfg.Height)
	}
	if cfg.TargetFPS <= 0 {
		return fmt.Errorf("%w: fps %.2f", ErrConfigInvalid, cfg.TargetFPS)
	}

	p.cfg = cfg
	p.captureCfg = capture.Config{
		Description: p.desc.CaptureDescription(cfg.Device, cfg.Width, cfg.Height, cfg.TargetFPS),
		Width:       cfg.Width,
		Height:      cfg.Height,
		TargetFPS:   cfg.TargetFPS,
	}
	p.errMu.Lock()
	p.lastErr = ""
	p.errMu.Unlock()
	p.state.Store(int32(StateReady))

	slog.Info("pipeline: initialized",
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"target_fps", cfg.TargetFPS,
		"device", cfg.Device,
	)

	return nil
}

// Start brings the capture engine up and begins publishing frames.
//
// Fails with ErrSourceUnavailable if the configured device cannot be
// reached, leaving the pipeline Ready so Start can be retried.
func (p *FramePipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if State(p.state.Load()) != StateReady {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, State(p.state.Load()))
	}

	src := p.newSource()
	if err := src.Init(p.captureCfg); err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := src.Start(ctx); err != nil {
		cancel()
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	p.source = src
	p.cancel = cancel
	p.started = time.Now()
	p.slot.reset()
	p.lastFrameNanos.Store(0)
	p.state.Store(int32(StateRunning))

	p.wg.Add(1)
	go p.captureLoop(ctx, src)

	slog.Info("pipeline: started", "poll_timeout", p.pollTimeout)

	return nil
}

// captureLoop drives the source: one bounded-wait acquire per tick, each
// arriving frame published atomically into the slot, overwriting the
// previous occupant.
func (p *FramePipeline) captureLoop(ctx context.Context, src capture.Source) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if State(p.state.Load()) == StatePaused {
			time.Sleep(p.pollTimeout)
			continue
		}

		frame, err := src.TryAcquire(p.pollTimeout)
		if err != nil {
			// Not a fault if we are being shut down
			if ctx.Err() != nil {
				return
			}
			fault := fmt.Errorf("%w: %v", ErrEngineFault, err)
			p.errMu.Lock()
			p.lastErr = fault.Error()
			p.errMu.Unlock()
			p.state.Store(int32(StateError))
			slog.Error("pipeline: engine fault, session dead until stop+initialize",
				"error", err,
			)
			return
		}
		if frame == nil {
			// Transient miss: no new frame this tick
			continue
		}

		p.slot.publish(frame)
		p.lastFrameNanos.Store(time.Now().UnixNano())
	}
}

// Pause suspends frame publication without releasing the device.
func (p *FramePipeline) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if State(p.state.Load()) != StateRunning {
		return fmt.Errorf("%w: pause while %s", ErrInvalidTransition, State(p.state.Load()))
	}
	p.state.Store(int32(StatePaused))
	slog.Info("pipeline: paused")
	return nil
}

// Resume continues frame publication after Pause.
func (p *FramePipeline) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if State(p.state.Load()) != StatePaused {
		return fmt.Errorf("%w: resume while %s", ErrInvalidTransition, State(p.state.Load()))
	}
	p.state.Store(int32(StateRunning))
	slog.Info("pipeline: resumed")
	return nil
}

// Stop releases the capture engine and returns the pipeline to Ready,
// keeping the configuration so Start can be retried.
//
// Safe to call from the controlling context at any time and from any
// non-Uninitialized state, including Error. When Stop returns the engine
// is fully released: the capture loop has exited and no background
// engine activity remains. Idempotent.
func (p *FramePipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch State(p.state.Load()) {
	case StateUninitialized:
		return fmt.Errorf("%w: stop while uninitialized", ErrInvalidTransition)
	case StateReady:
		return nil
	}

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.wg.Wait()

	if p.source != nil {
		if err := p.source.Stop(); err != nil {
			slog.Error("pipeline: source stop failed", "error", err)
		}
		p.source = nil
	}

	p.state.Store(int32(StateReady))
	slog.Info("pipeline: stopped")

	return nil
}

// LatestFrame returns the most recent published frame, or nil if no frame
// has ever arrived. Never blocks; the returned frame is shared and must
// not be modified.
func (p *FramePipeline) LatestFrame() *Frame {
	return p.slot.latest()
}

// HasNewFrame reports whether the slot holds a frame whose sequence
// number differs from lastSeq. Non-destructive peek; never blocks.
func (p *FramePipeline) HasNewFrame(lastSeq uint64) bool {
	return p.slot.hasNew(lastSeq)
}

// State returns the current pipeline state.
func (p *FramePipeline) State() State {
	return State(p.state.Load())
}

// LastError returns a human-readable description of the most recent
// engine fault, or an empty string if none occurred this session.
func (p *FramePipeline) LastError() string {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.lastErr
}

// Stats returns a snapshot of pipeline telemetry. Thread-safe.
func (p *FramePipeline) Stats() PipelineStats {
	published, overwrites := p.slot.counters()

	p.mu.Lock()
	cfg := p.cfg
	started := p.started
	src := p.source
	p.mu.Unlock()

	var fpsReal float64
	if !started.IsZero() {
		uptime := time.Since(started).Seconds()
		if uptime > 0 {
			fpsReal = float64(published) / uptime
		}
	}

	var latencyMS int64
	if nanos := p.lastFrameNanos.Load(); nanos > 0 {
		latencyMS = time.Since(time.Unix(0, nanos)).Milliseconds()
	}

	stats := PipelineStats{
		State:           p.State(),
		FramesPublished: published,
		SlotOverwrites:  overwrites,
		FPSTarget:       cfg.TargetFPS,
		FPSReal:         fpsReal,
		LatencyMS:       latencyMS,
		Resolution:      fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
	}
	if src != nil {
		stats.Source = src.Stats()
	}
	return stats
}

// Warmup measures publish-rate stability over the given duration.
//
// Polls the slot (non-destructively) collecting timestamps of newly
// published frames, then analyzes mean FPS, stddev and jitter. Returns an
// error if the pipeline is not running, fewer than 2 frames arrived, or
// the rate is unstable (stddev >= 15% of mean).
func (p *FramePipeline) Warmup(ctx context.Context, duration time.Duration) (*WarmupStats, error) {
	if p.State() != StateRunning {
		return nil, fmt.Errorf("%w: warmup while %s", ErrInvalidTransition, p.State())
	}

	slog.Info("pipeline: starting warmup", "duration", duration)

	warmupCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	startTime := time.Now()
	frameTimes := make([]time.Time, 0, 256)
	var lastSeq uint64

	ticker := time.NewTicker(p.pollTimeout / 2)
	defer ticker.Stop()

collect:
	for {
		select {
		case <-warmupCtx.Done():
			break collect
		case <-ticker.C:
			if !p.slot.hasNew(lastSeq) {
				continue
			}
			frame := p.slot.latest()
			if frame == nil || frame.Seq == lastSeq {
				continue
			}
			lastSeq = frame.Seq
			frameTimes = append(frameTimes, frame.Timestamp)
		}
	}

	elapsed := time.Since(startTime)

	if len(frameTimes) < 2 {
		return nil, fmt.Errorf(
			"pipeline: not enough frames during warmup (got %d, need at least 2)",
			len(frameTimes),
		)
	}

	stats := CalculateFPSStats(frameTimes, elapsed)

	slog.Info("pipeline: warmup complete",
		"frames", stats.FramesReceived,
		"duration", stats.Duration,
		"fps_mean", fmt.Sprintf("%.2f", stats.FPSMean),
		"fps_stddev", fmt.Sprintf("%.2f", stats.FPSStdDev),
		"stable", stats.IsStable,
	)

	if !stats.IsStable {
		return stats, fmt.Errorf(
			"pipeline: warmup unstable (mean=%.2f Hz, stddev=%.2f)",
			stats.FPSMean, stats.FPSStdDev,
		)
	}

	return stats, nil
}
