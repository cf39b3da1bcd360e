// Package controller runs the capture → process → display loop of a session.
//
// The controller is a small state machine:
//
//	Idle --Start--> Opening --open ok--> Capturing --(stop flag | read error | shutdown)--> Stopped --close--> Idle
//	                Opening --open failed or cancelled--> Idle
//
// The device is opened without holding the state lock, so state queries and
// Shutdown stay responsive while a slow camera comes up.
//
// The loop polls the session's camera flag once per iteration instead of being
// cancelled mid-read, so a Stop takes effect within one read plus one pacing
// interval. The device is closed exactly once on every path out of Capturing.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neekaru/fitcoach/internal/camera"
	"github.com/neekaru/fitcoach/internal/pose"
	"github.com/neekaru/fitcoach/internal/session"
	"github.com/neekaru/fitcoach/pkg/logger"
)

// DefaultInterval is the pacing delay between frames
const DefaultInterval = 100 * time.Millisecond

// Banner texts
const (
	NoticeConnected   = "✅ Camera connected successfully!"
	NoticeUnavailable = "❌ Could not access camera. Please check if it's being used by another application."
	NoticeReadFailed  = "Failed to capture frame"
)

// State of the capture state machine
type State int

const (
	Idle State = iota
	Opening
	Capturing
	Stopped
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Opening:
		return "opening"
	case Capturing:
		return "capturing"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options tune a controller
type Options struct {
	// Interval is the pacing delay after each frame; 0 disables pacing
	Interval  time.Duration
	Processor pose.Processor
	Logger    *log.Logger
}

// Stats describes the capture loop
type Stats struct {
	State           string    `json:"state"`
	FramesProcessed uint64    `json:"frames_processed"`
	LastFrameAt     time.Time `json:"last_frame_at,omitempty"`
	Cycles          uint64    `json:"cycles"`
}

// Controller owns the camera while capturing and drives the session loop
type Controller struct {
	store     *session.Store
	source    camera.Source
	processor pose.Processor
	interval  time.Duration
	logger    *log.Logger

	// mu serialises transitions of the state machine
	mu     sync.Mutex
	state  State
	done   chan struct{}
	cancel context.CancelFunc

	observersMu sync.RWMutex
	observers   []Observer

	frames    atomic.Uint64
	cycles    atomic.Uint64
	lastFrame atomic.Int64
}

// New creates a controller for the session store and frame source
func New(store *session.Store, source camera.Source, opts Options) *Controller {
	if opts.Processor == nil {
		opts.Processor = pose.Stub{}
	}
	if opts.Interval < 0 {
		opts.Interval = 0
	}
	return &Controller{
		store:     store,
		source:    source,
		processor: opts.Processor,
		interval:  opts.Interval,
		logger:    logger.OrDiscard(opts.Logger),
	}
}

// Subscribe registers an observer for controller events
func (c *Controller) Subscribe(o Observer) {
	c.observersMu.Lock()
	defer c.observersMu.Unlock()
	c.observers = append(c.observers, o)
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StateName returns the current state as a string
func (c *Controller) StateName() string {
	return c.State().String()
}

// Stats returns loop counters
func (c *Controller) Stats() Stats {
	st := Stats{
		State:           c.StateName(),
		FramesProcessed: c.frames.Load(),
		Cycles:          c.cycles.Load(),
	}
	if ns := c.lastFrame.Load(); ns > 0 {
		st.LastFrameAt = time.Unix(0, ns)
	}
	return st
}

// Start opens the device and launches the capture loop. Starting while already
// capturing or opening is a no-op. If the device cannot be opened the camera
// flag is reverted, an error notice is published and the controller returns to
// Idle. Shutdown cancels an open that is still pending.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	for c.state != Idle {
		if c.state == Opening || (c.state == Capturing && c.store.CameraOn()) {
			// A Stop issued while opening is undone by a second Start
			c.store.SetCameraOn(true)
			c.mu.Unlock()
			return nil
		}
		// A stopped loop is still winding down; let it release the device first
		done := c.done
		c.mu.Unlock()
		<-done
		c.mu.Lock()
	}

	openCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.store.SetCameraOn(true)
	c.setState(Opening)
	c.mu.Unlock()

	h, err := c.source.Open(openCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.store.SetCameraOn(false)
		if openCtx.Err() == nil {
			c.notice(session.NoticeError, NoticeUnavailable)
		}
		c.logger.Printf("Camera start failed: %v", err)
		c.setState(Idle)
		cancel()
		c.cancel = nil
		close(done)
		if !errors.Is(err, camera.ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", camera.ErrDeviceUnavailable, err)
		}
		return err
	}

	c.notice(session.NoticeSuccess, NoticeConnected)
	c.setState(Capturing)
	c.cycles.Add(1)

	c.logger.Printf("Capture loop started (handle %s, interval %s)", h.ID, c.interval)
	go c.loop(openCtx, h, done)
	return nil
}

// Stop asks the loop to exit at its next iteration boundary
func (c *Controller) Stop() {
	c.store.SetCameraOn(false)
}

// Toggle starts a stopped camera or stops a running one
func (c *Controller) Toggle(ctx context.Context) error {
	if c.store.CameraOn() {
		c.Stop()
		return nil
	}
	return c.Start(ctx)
}

// Wait blocks until the current capture loop, if any, has released the device
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Shutdown stops the loop, wakes it from pacing and waits for the device to
// be released or ctx to expire
func (c *Controller) Shutdown(ctx context.Context) error {
	c.Stop()

	c.mu.Lock()
	done, cancel := c.done, c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("capture loop did not stop: %w", ctx.Err())
	}
}

func (c *Controller) loop(ctx context.Context, h *camera.Handle, done chan struct{}) {
	defer close(done)
	defer c.release(h)
	defer c.recoverLoop()

	for {
		if !c.store.CameraOn() {
			c.logger.Printf("Capture loop stopped by request")
			c.store.ClearNotice()
			return
		}
		if ctx.Err() != nil {
			c.logger.Printf("Capture loop cancelled: %v", ctx.Err())
			c.store.SetCameraOn(false)
			return
		}

		f, err := c.source.Read(h)
		if err != nil {
			c.logger.Printf("Capture loop read failed: %v", err)
			c.store.SetCameraOn(false)
			c.notice(session.NoticeError, NoticeReadFailed)
			return
		}

		c.handleFrame(ctx, f)

		if !c.pace(ctx) {
			c.logger.Printf("Capture loop cancelled during pacing")
			c.store.SetCameraOn(false)
			return
		}
	}
}

func (c *Controller) handleFrame(ctx context.Context, f camera.Frame) {
	res, err := c.processor.Process(ctx, f, c.store.Snapshot())
	if err != nil {
		c.logger.Printf("Frame %d (%s) processing failed: %v", f.Seq, f.TraceID, err)
		res = pose.Result{Frame: f}
	}
	if res.Frame.Image == nil {
		res.Frame = f
	}
	if res.RepDelta != 0 {
		if _, err := c.store.AddReps(res.RepDelta); err != nil {
			c.logger.Printf("Frame %d (%s) rep delta ignored: %v", f.Seq, f.TraceID, err)
		}
	}
	if res.Flags != nil {
		c.store.SetFormFlags(res.Flags)
	}

	c.frames.Add(1)
	c.lastFrame.Store(f.Timestamp.UnixNano())
	c.emit(&FrameEvent{Frame: res.Frame, Session: c.store.Snapshot()})
}

// pace waits out the frame interval; false means ctx ended
func (c *Controller) pace(ctx context.Context) bool {
	if c.interval <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.interval)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) recoverLoop() {
	if r := recover(); r != nil {
		c.logger.Printf("Capture loop panic: %v", r)
		c.store.SetCameraOn(false)
		c.notice(session.NoticeError, fmt.Sprintf("%s: %v", NoticeReadFailed, r))
	}
}

// release runs the Stopped → Idle transition
func (c *Controller) release(h *camera.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setState(Stopped)
	if err := c.source.Close(h); err != nil {
		c.logger.Printf("Camera close failed: %v", err)
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.setState(Idle)
	c.logger.Printf("Capture loop exited after %d frames", c.frames.Load())
}

// setState records a transition; callers hold c.mu
func (c *Controller) setState(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	c.emit(&StateEvent{From: from, To: to})
}

func (c *Controller) notice(level session.NoticeLevel, text string) {
	c.store.SetNotice(level, text)
	c.emit(&NoticeEvent{Notice: c.store.Snapshot().Notice})
}

func (c *Controller) emit(e Event) {
	c.observersMu.RLock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.observersMu.RUnlock()

	for _, o := range observers {
		o.OnEvent(e)
	}
}
