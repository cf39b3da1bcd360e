package camera

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDeviceUnavailable means the device could not be claimed
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrReadFailed ends the current capture cycle
	ErrReadFailed = errors.New("failed to capture frame")
	// ErrNotOpen is returned for reads or closes on a handle that is not active
	ErrNotOpen = errors.New("camera handle not open")
)

// Frame represents a single captured image with metadata
type Frame struct {
	// Seq is the position in the capture sequence of its handle, starting at 1
	Seq       uint64
	Timestamp time.Time
	Image     *image.RGBA
	// TraceID ties log lines of one frame together
	TraceID string
}

// Width in pixels
func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height in pixels
func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// Clone returns a frame with its own pixel buffer
func (f Frame) Clone() Frame {
	out := f
	if f.Image != nil {
		img := image.NewRGBA(f.Image.Bounds())
		draw.Draw(img, img.Bounds(), f.Image, f.Image.Bounds().Min, draw.Src)
		out.Image = img
	}
	return out
}

// Handle is an open claim on the device
type Handle struct {
	ID       string
	OpenedAt time.Time
}

func newHandle() *Handle {
	return &Handle{ID: uuid.NewString(), OpenedAt: time.Now()}
}

// Source defines the contract for frame acquisition
//
// Implementations must guarantee:
//   - Open() while a handle is active returns that handle without claiming the device again
//   - Read() blocks until a frame is available; any error is terminal for the handle's cycle
//   - Close() releases the device and invalidates the handle
type Source interface {
	Open(ctx context.Context) (*Handle, error)
	Read(h *Handle) (Frame, error)
	Close(h *Handle) error
}
