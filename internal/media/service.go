package media

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"log"
	"sync"
	"sync/atomic"

	"github.com/neekaru/fitcoach/internal/camera"
	"github.com/neekaru/fitcoach/internal/controller"
	"github.com/neekaru/fitcoach/pkg/logger"
)

// Hub keeps the latest annotated frame as JPEG and fans it out to live feed
// viewers. Publishing never blocks on a slow viewer; a viewer that has not
// taken the previous frame loses it.
type Hub struct {
	quality int
	logger  *log.Logger

	mu     sync.RWMutex
	latest *Snapshot
	subs   map[chan Snapshot]struct{}

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub creates a new frame hub
func NewHub(quality int, l *log.Logger) *Hub {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Hub{
		quality: quality,
		logger:  logger.OrDiscard(l),
		subs:    make(map[chan Snapshot]struct{}),
	}
}

// OnEvent publishes frames coming from the session controller and ends the
// live feed once the controller is back to Idle
func (h *Hub) OnEvent(e controller.Event) {
	switch ev := e.(type) {
	case *controller.FrameEvent:
		if err := h.Publish(ev.Frame); err != nil {
			h.logger.Printf("Frame %d (%s) not published: %v", ev.Frame.Seq, ev.Frame.TraceID, err)
		}
	case *controller.StateEvent:
		if ev.To == controller.Idle {
			h.Reset()
		}
	}
}

// Reset drops the latest frame and closes every viewer channel. Viewers that
// connect afterwards wait for the next session's first frame.
func (h *Hub) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = nil
	for ch := range h.subs {
		close(ch)
		delete(h.subs, ch)
	}
}

// Publish encodes f and hands it to every viewer
func (h *Hub) Publish(f camera.Frame) error {
	if f.Image == nil {
		return errors.New("frame has no image")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image, &jpeg.Options{Quality: h.quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	snap := Snapshot{Seq: f.Seq, TraceID: f.TraceID, At: f.Timestamp, JPEG: buf.Bytes()}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.latest = &snap
	h.published.Add(1)
	for ch := range h.subs {
		select {
		case ch <- snap:
		default:
			// replace the frame the viewer has not taken yet
			select {
			case <-ch:
				h.dropped.Add(1)
			default:
			}
			select {
			case ch <- snap:
			default:
				h.dropped.Add(1)
			}
		}
	}
	return nil
}

// Latest returns the most recent frame
func (h *Hub) Latest() (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return Snapshot{}, false
	}
	return *h.latest, true
}

// Subscribe registers a viewer. The returned function unregisters it. The
// channel is closed when the hub is reset.
func (h *Hub) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
		})
	}
}

// Stats returns hub counters
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	n := len(h.subs)
	h.mu.RUnlock()
	return HubStats{
		Published:   h.published.Load(),
		Dropped:     h.dropped.Load(),
		Subscribers: n,
	}
}
