package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTarget   = errors.New("target reps out of range")
	ErrUnknownExercise = errors.New("unknown exercise")
	ErrNegativeReps    = errors.New("rep delta must not be negative")
)

const (
	MinTargetReps     = 5
	MaxTargetReps     = 20
	DefaultTargetReps = 10
)

// Exercise is one of the supported workouts
type Exercise int

const (
	BicepCurls Exercise = iota
	Squats
	Pushups
	ShoulderPress
)

// Exercises lists every exercise in selector order
var Exercises = []Exercise{BicepCurls, Squats, Pushups, ShoulderPress}

// String returns the display label
func (e Exercise) String() string {
	switch e {
	case BicepCurls:
		return "Bicep Curls"
	case Squats:
		return "Squats"
	case Pushups:
		return "Push-ups"
	case ShoulderPress:
		return "Shoulder Press"
	default:
		return "unknown"
	}
}

// Slug returns the identifier used in requests and config
func (e Exercise) Slug() string {
	switch e {
	case BicepCurls:
		return "bicep_curls"
	case Squats:
		return "squats"
	case Pushups:
		return "pushups"
	case ShoulderPress:
		return "shoulder_press"
	default:
		return "unknown"
	}
}

// ParseExercise accepts either the slug or the display label, case-insensitively
func ParseExercise(s string) (Exercise, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, e := range Exercises {
		if needle == e.Slug() || needle == strings.ToLower(e.String()) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownExercise, s)
}

// Layout is the page arrangement hint
type Layout int

const (
	Desktop Layout = iota
	Mobile
)

// String returns a string representation of the layout
func (l Layout) String() string {
	if l == Mobile {
		return "mobile"
	}
	return "desktop"
}

// NoticeLevel is the severity of the banner shown above the live feed
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is the single user-visible banner
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
	At    time.Time   `json:"at"`
}

// IsZero reports whether no notice is set
func (n Notice) IsZero() bool {
	return n.Text == ""
}

// FormFlag is a form check reported by the pose collaborator
type FormFlag string

const (
	FlagElbowOK      FormFlag = "elbow_ok"
	FlagExtensionOK  FormFlag = "extension_ok"
	FlagWristOK      FormFlag = "wrist_ok"
	FlagSwayDetected FormFlag = "sway_detected"
)

// State is a point-in-time copy of the session
type State struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	CameraOn   bool       `json:"camera_on"`
	RepCount   int        `json:"rep_count"`
	TargetReps int        `json:"target_reps"`
	Exercise   Exercise   `json:"-"`
	Layout     Layout     `json:"-"`
	Notice     Notice     `json:"notice"`
	FormFlags  []FormFlag `json:"form_flags"`
}

// Progress returns the completed fraction of the target
func (s State) Progress() float64 {
	return Progress(s.RepCount, s.TargetReps)
}

// Progress returns min(reps/target, 1). A non-positive target yields 0.
func Progress(reps, target int) float64 {
	if target <= 0 || reps <= 0 {
		return 0
	}
	p := float64(reps) / float64(target)
	if p > 1 {
		return 1
	}
	return p
}

// StateResponse is the JSON view of a State
type StateResponse struct {
	State
	Exercise      string  `json:"exercise"`
	ExerciseLabel string  `json:"exercise_label"`
	Layout        string  `json:"layout"`
	Progress      float64 `json:"progress"`
	ProgressLabel string  `json:"progress_label"`
}

// NewStateResponse builds the JSON view
func NewStateResponse(s State) StateResponse {
	p := s.Progress()
	return StateResponse{
		State:         s,
		Exercise:      s.Exercise.Slug(),
		ExerciseLabel: s.Exercise.String(),
		Layout:        s.Layout.String(),
		Progress:      p,
		ProgressLabel: fmt.Sprintf("Progress: %.0f%%", p*100),
	}
}

// SetTargetRequest represents a request to change the rep goal
type SetTargetRequest struct {
	TargetReps int `json:"target_reps" form:"target_reps"`
}

// SetExerciseRequest represents a request to change the exercise
type SetExerciseRequest struct {
	Exercise string `json:"exercise" form:"exercise"`
}
