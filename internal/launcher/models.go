package launcher

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which trainer the launcher starts
type Mode string

const (
	Simple   Mode = "simple"
	Enhanced Mode = "enhanced"
	Web      Mode = "web"
)

// Modes lists the modes in menu order
var Modes = []Mode{Enhanced, Simple, Web}

// DefaultMode is started for a blank menu answer or an invalid one
const DefaultMode = Enhanced

var (
	ErrUnknownMode = errors.New("unknown mode")
	ErrSpawn       = errors.New("failed to start trainer")
)

// SpawnError reports a trainer that could not be started at all
type SpawnError struct {
	Mode Mode
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSpawn, e.Mode, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrSpawn as well as the cause
func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }

// Target is the subprocess started for a mode
type Target struct {
	Banner  string
	Command []string
	// Entry must exist before spawning; empty skips the check
	Entry string
}

// Entry pairs a mode with its target
type Entry struct {
	Mode   Mode
	Target Target
}

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case Simple, Enhanced, Web:
		return m, nil
	}
	return "", fmt.Errorf("%w %q (want simple, enhanced or web)", ErrUnknownMode, s)
}
