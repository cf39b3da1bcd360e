package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds the one session of the process. All mutations go through the
// named commands below; the mutex keeps a single writer at a time since gin
// serves requests concurrently.
type Store struct {
	mu    sync.RWMutex
	state State
	now   func() time.Time
}

// NewStore creates a session with every field at its default
func NewStore() *Store {
	return NewStoreWithTarget(DefaultTargetReps)
}

// NewStoreWithTarget creates a session with a configured starting goal.
// Out-of-range values fall back to the default.
func NewStoreWithTarget(target int) *Store {
	if target < MinTargetReps || target > MaxTargetReps {
		target = DefaultTargetReps
	}
	s := &Store{now: time.Now}
	s.state = State{
		ID:         uuid.NewString(),
		StartedAt:  s.now(),
		TargetReps: target,
		Exercise:   BicepCurls,
		Layout:     Desktop,
	}
	return s
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.FormFlags = slices.Clone(s.state.FormFlags)
	return st
}

// CameraOn reports the camera flag
func (s *Store) CameraOn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CameraOn
}

// SetCameraOn flips the camera flag. Only the session controller calls this.
func (s *Store) SetCameraOn(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CameraOn = on
}

// ResetReps zeroes the rep count and leaves everything else alone
func (s *Store) ResetReps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.RepCount = 0
}

// AddReps adds the delta reported by the rep detector
func (s *Store) AddReps(delta int) (int, error) {
	if delta < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeReps, delta)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.RepCount += delta
	return s.state.RepCount, nil
}

// SetTargetReps changes the goal, rejecting values outside [5,20]
func (s *Store) SetTargetReps(target int) error {
	if target < MinTargetReps || target > MaxTargetReps {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidTarget, target, MinTargetReps, MaxTargetReps)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TargetReps = target
	return nil
}

// SetExercise changes the selected exercise
func (s *Store) SetExercise(e Exercise) error {
	if !slices.Contains(Exercises, e) {
		return fmt.Errorf("%w: %d", ErrUnknownExercise, int(e))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Exercise != e {
		s.state.FormFlags = nil
	}
	s.state.Exercise = e
	return nil
}

// SetLayout records the layout hint of the last rendered page
func (s *Store) SetLayout(l Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Layout = l
}

// SetNotice replaces the banner
func (s *Store) SetNotice(level NoticeLevel, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Notice = Notice{Level: level, Text: text, At: s.now()}
}

// ClearNotice removes the banner
func (s *Store) ClearNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Notice = Notice{}
}

// SetFormFlags records the last form checks reported by the rep detector
func (s *Store) SetFormFlags(flags []FormFlag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.FormFlags = slices.Clone(flags)
}
