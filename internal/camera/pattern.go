package camera

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// PatternSource produces a synthetic moving test card. It stands in for a
// webcam on machines without one and in tests.
type PatternSource struct {
	Width  int
	Height int
	// Unavailable makes every Open fail with ErrDeviceUnavailable
	Unavailable bool
	// FailAfter makes the read after that many successful reads fail; 0 never fails
	FailAfter int

	claim  claim
	seq    atomic.Uint64
	opens  atomic.Int64
	closes atomic.Int64
}

// NewPatternSource creates a test card source of the given size
func NewPatternSource(width, height int) *PatternSource {
	return &PatternSource{Width: width, Height: height}
}

// Open claims the synthetic device
func (p *PatternSource) Open(_ context.Context) (*Handle, error) {
	return p.claim.acquire(func(*Handle) error {
		if p.Unavailable {
			return fmt.Errorf("%w: pattern source disabled", ErrDeviceUnavailable)
		}
		if p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("%w: invalid size %dx%d", ErrDeviceUnavailable, p.Width, p.Height)
		}
		p.seq.Store(0)
		p.opens.Add(1)
		return nil
	})
}

// Read renders the next test card
func (p *PatternSource) Read(h *Handle) (Frame, error) {
	if err := p.claim.check(h); err != nil {
		return Frame{}, err
	}
	seq := p.seq.Add(1)
	if p.FailAfter > 0 && seq > uint64(p.FailAfter) {
		return Frame{}, fmt.Errorf("%w: pattern source exhausted after %d frames", ErrReadFailed, p.FailAfter)
	}
	return Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Image:     p.render(seq),
		TraceID:   uuid.NewString(),
	}, nil
}

// Close releases the synthetic device
func (p *PatternSource) Close(h *Handle) error {
	return p.claim.release(h, func() error {
		p.closes.Add(1)
		return nil
	})
}

// OpenCount returns how many times the device was claimed
func (p *PatternSource) OpenCount() int { return int(p.opens.Load()) }

// CloseCount returns how many times the device was released
func (p *PatternSource) CloseCount() int { return int(p.closes.Load()) }

// render draws a diagonal gradient with a bar that moves one step per frame
func (p *PatternSource) render(seq uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	bar := int(seq*8) % p.Width
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			c := color.RGBA{
				R: uint8(x * 255 / p.Width),
				G: uint8(y * 255 / p.Height),
				B: 96,
				A: 255,
			}
			if x >= bar && x < bar+8 {
				c = color.RGBA{R: 32, G: 32, B: 32, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
