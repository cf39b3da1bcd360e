package controller

import (
	"github.com/neekaru/fitcoach/internal/camera"
	"github.com/neekaru/fitcoach/internal/session"
)

// Event is the interface for all controller events
type Event interface {
	GetType() string
}

// Event types
const (
	EventTypeState  = "state"
	EventTypeFrame  = "frame"
	EventTypeNotice = "notice"
)

// StateEvent reports a state machine transition
type StateEvent struct {
	From State
	To   State
}

// GetType returns the event type
func (e *StateEvent) GetType() string { return EventTypeState }

// FrameEvent carries a processed frame and the session it was processed for
type FrameEvent struct {
	Frame   camera.Frame
	Session session.State
}

// GetType returns the event type
func (e *FrameEvent) GetType() string { return EventTypeFrame }

// NoticeEvent reports a new user-visible banner
type NoticeEvent struct {
	Notice session.Notice
}

// GetType returns the event type
func (e *NoticeEvent) GetType() string { return EventTypeNotice }
