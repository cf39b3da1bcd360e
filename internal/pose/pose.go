// Package pose defines the contract of the rep-detection collaborator.
//
// The pose model itself runs outside this program; the session controller only
// depends on Processor. Stub is the processor used when no model is attached.
package pose

import (
	"context"

	"github.com/neekaru/fitcoach/internal/annotate"
	"github.com/neekaru/fitcoach/internal/camera"
	"github.com/neekaru/fitcoach/internal/session"
)

// Result is the outcome of processing one frame
type Result struct {
	Frame camera.Frame
	// RepDelta is the number of reps completed since the previous frame
	RepDelta int
	Flags    []session.FormFlag
}

// Processor analyses one frame for the current session
type Processor interface {
	Process(ctx context.Context, f camera.Frame, st session.State) (Result, error)
}

// ProcessorFunc adapts a function to Processor
type ProcessorFunc func(ctx context.Context, f camera.Frame, st session.State) (Result, error)

// Process calls the function
func (fn ProcessorFunc) Process(ctx context.Context, f camera.Frame, st session.State) (Result, error) {
	return fn(ctx, f, st)
}

// Stub overlays the session info and never counts a rep
type Stub struct{}

// Process annotates the frame and reports no reps and no form flags
func (Stub) Process(_ context.Context, f camera.Frame, st session.State) (Result, error) {
	return Result{Frame: annotate.Annotate(f, st.Exercise.String(), st.RepCount)}, nil
}
