package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

const (
	// frameBuffer sizes the engine-to-consumer channel. Kept small on
	// purpose: the downstream handoff is latest-wins, so buffered depth
	// only adds staleness after a pause.
	frameBuffer = 4

	// stateTimeout bounds the wait for the engine to reach PLAYING
	stateTimeout = 5 * time.Second

	// stopTimeout bounds the wait for background goroutines on Stop
	stopTimeout = 3 * time.Second
)

// GstSource implements Source using a GStreamer pipeline built from a
// description string.
type GstSource struct {
	mu  sync.RWMutex
	cfg Config

	pipeline *gst.Pipeline
	sink     *app.Sink

	frames chan *Frame
	fault  error // first unrecoverable engine fault, nil while healthy

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Statistics (atomic for thread-safety)
	frameCount    uint64
	framesDropped uint64
	bytesRead     uint64

	initialized bool
	running     bool
}

var _ Source = (*GstSource)(nil)

// NewGstSource creates an uninitialized GStreamer-backed source.
func NewGstSource() *GstSource {
	return &GstSource{}
}

// Init validates the configuration and verifies the engine is present.
// No device is opened until Start.
func (s *GstSource) Init(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.Description == "" {
		return fmt.Errorf("capture: engine description is required")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("capture: invalid geometry %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.TargetFPS < 0.1 || cfg.TargetFPS > 60 {
		return fmt.Errorf("capture: invalid FPS %.2f (must be 0.1-60)", cfg.TargetFPS)
	}

	// Fail-fast validation: engine availability
	if err := checkEngineAvailable(); err != nil {
		return fmt.Errorf("capture: engine not available: %w", err)
	}

	s.cfg = cfg
	s.initialized = true

	slog.Info("capture: source initialized",
		"resolution", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"target_fps", cfg.TargetFPS,
	)

	return nil
}

// Start builds the engine pipeline from the description string, wires the
// appsink callback and brings the pipeline to PLAYING.
//
// On failure the engine is torn down again; the source stays initialized
// and Start may be retried.
func (s *GstSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return fmt.Errorf("capture: source not initialized")
	}
	if s.running {
		return fmt.Errorf("capture: source already started")
	}

	gst.Init(nil)

	pipeline, err := gst.NewPipelineFromString(s.cfg.Description)
	if err != nil {
		return fmt.Errorf("capture: failed to build engine pipeline: %w", err)
	}

	sinkElem, err := pipeline.GetElementByName("sink")
	if err != nil || sinkElem == nil {
		destroyPipeline(pipeline)
		return fmt.Errorf("capture: description has no appsink named \"sink\": %w", err)
	}
	sink := app.SinkFromElement(sinkElem)

	s.pipeline = pipeline
	s.sink = sink
	s.frames = make(chan *Frame, frameBuffer)
	s.fault = nil
	s.ctx, s.cancel = context.WithCancel(ctx)
	atomic.StoreUint64(&s.frameCount, 0)
	atomic.StoreUint64(&s.framesDropped, 0)
	atomic.StoreUint64(&s.bytesRead, 0)

	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: s.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		s.teardownLocked()
		return fmt.Errorf("capture: failed to start engine: %w", err)
	}

	// Wait for the engine to reach PLAYING or report why it cannot
	if err := s.awaitPlaying(); err != nil {
		s.teardownLocked()
		return err
	}

	s.wg.Add(1)
	go s.monitorBus()

	s.running = true
	slog.Info("capture: source started",
		"resolution", fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
		"target_fps", s.cfg.TargetFPS,
	)

	return nil
}

// awaitPlaying drains the engine bus until PLAYING is reached, an error
// arrives, or the state timeout expires. Called with mu held.
func (s *GstSource) awaitPlaying() error {
	bus := s.pipeline.GetPipelineBus()
	deadline := time.Now().Add(stateTimeout)

	for time.Now().Before(deadline) {
		msg := bus.TimedPop(100 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			category := ClassifyEngineError(gerr)
			return fmt.Errorf("capture: device unreachable [%s]: %s", category, gerr.Error())
		case gst.MessageStateChanged:
			if msg.Source() != s.pipeline.GetName() {
				continue
			}
			_, newState := msg.ParseStateChanged()
			if newState == gst.StatePlaying {
				slog.Debug("capture: engine reached PLAYING state")
				return nil
			}
		}
	}

	return fmt.Errorf("capture: engine did not reach PLAYING within %s", stateTimeout)
}

// onNewSample is invoked by the engine whenever a decoded sample is ready.
// It copies the sample into an owned Frame and publishes it non-blocking;
// when the channel is full the frame is dropped, never queued.
func (s *GstSource) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		// A single bad sample must not kill the session
		slog.Warn("capture: failed to pull sample, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("capture: sample without buffer, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("capture: empty buffer received")
		return gst.FlowOK
	}

	// Copy out: the engine reuses its buffers after the callback returns
	owned := make([]byte, len(data))
	copy(owned, data)
	buffer.Unmap()

	seq := atomic.AddUint64(&s.frameCount, 1)
	atomic.AddUint64(&s.bytesRead, uint64(len(owned)))

	frame := &Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		Data:      owned,
		TraceID:   uuid.New().String(),
	}

	select {
	case s.frames <- frame:
	default:
		atomic.AddUint64(&s.framesDropped, 1)
		slog.Debug("capture: dropping frame, consumer behind",
			"seq", frame.Seq,
			"trace_id", frame.TraceID,
		)
	}

	return gst.FlowOK
}

// monitorBus watches the engine bus for faults until the source stops.
func (s *GstSource) monitorBus() {
	defer s.wg.Done()

	bus := s.pipeline.GetPipelineBus()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}

			switch msg.Type() {
			case gst.MessageEOS:
				s.recordFault(fmt.Errorf("capture: end of stream"))
				return

			case gst.MessageError:
				gerr := msg.ParseError()
				category := ClassifyEngineError(gerr)
				slog.Error("capture: engine fault",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
					"category", category.String(),
					"frames_captured", atomic.LoadUint64(&s.frameCount),
				)
				s.recordFault(fmt.Errorf("capture: engine fault [%s]: %s", category, gerr.Error()))
				return
			}
		}
	}
}

func (s *GstSource) recordFault(err error) {
	s.mu.Lock()
	if s.fault == nil {
		s.fault = err
	}
	s.mu.Unlock()
}

// TryAcquire waits up to timeout for the next owned frame.
func (s *GstSource) TryAcquire(timeout time.Duration) (*Frame, error) {
	s.mu.RLock()
	fault := s.fault
	frames := s.frames
	s.mu.RUnlock()

	if fault != nil {
		return nil, fault
	}
	if frames == nil {
		return nil, fmt.Errorf("capture: source not started")
	}

	select {
	case frame := <-frames:
		return frame, nil
	case <-time.After(timeout):
		// Transient miss, not an error
		return nil, nil
	}
}

// Stop shuts the engine down and releases the device.
//
// Idempotent. When Stop returns, no engine-owned background activity
// remains and the source may be started again.
func (s *GstSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	slog.Info("capture: stopping source")

	s.cancel()

	// Wait for the bus monitor with a timeout guard
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		slog.Warn("capture: stop timeout exceeded, engine monitor may still be running")
	}

	s.teardownLocked()
	s.running = false

	slog.Info("capture: source stopped",
		"frames_captured", atomic.LoadUint64(&s.frameCount),
		"frames_dropped", atomic.LoadUint64(&s.framesDropped),
	)

	return nil
}

// teardownLocked releases engine state. Called with mu held.
func (s *GstSource) teardownLocked() {
	if s.pipeline != nil {
		destroyPipeline(s.pipeline)
		s.pipeline = nil
	}
	s.sink = nil
	s.frames = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.ctx = nil
}

// Stats returns current source statistics
func (s *GstSource) Stats() SourceStats {
	s.mu.RLock()
	running := s.running && s.fault == nil
	s.mu.RUnlock()

	return SourceStats{
		FrameCount:    atomic.LoadUint64(&s.frameCount),
		FramesDropped: atomic.LoadUint64(&s.framesDropped),
		BytesRead:     atomic.LoadUint64(&s.bytesRead),
		IsRunning:     running,
	}
}

// destroyPipeline sets the pipeline to NULL, releasing the device.
// Safe to call on an already-stopped pipeline.
func destroyPipeline(p *gst.Pipeline) {
	if p == nil {
		return
	}
	if err := p.SetState(gst.StateNull); err != nil {
		slog.Error("capture: failed to set engine to NULL", "error", err)
	}
}

// checkEngineAvailable verifies GStreamer is installed and functional.
func checkEngineAvailable() error {
	gst.Init(nil)

	elem, err := gst.NewElement("fakesrc")
	if err != nil {
		return fmt.Errorf("GStreamer not available or not properly installed: %w", err)
	}
	elem.SetState(gst.StateNull)

	return nil
}
