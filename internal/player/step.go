package player

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySequence   = errors.New("step sequence is empty")
	ErrInvalidDuration = errors.New("step duration must be positive")
	ErrInvalidState    = errors.New("invalid playback state")
)

type Kind string

const (
	KindPose       Kind = "pose"
	KindRest       Kind = "rest"
	KindTransition Kind = "transition"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPose, KindRest, KindTransition:
		return true
	}
	return false
}

type Step struct {
	Ordinal                int    `json:"ordinal"`
	Kind                   Kind   `json:"kind"`
	PlannedDurationSeconds int    `json:"plannedDurationSeconds"`
	Label                  string `json:"label"`
	InstructionText        string `json:"instructionText,omitempty"`
	MediaRef               string `json:"mediaRef,omitempty"`
}

type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusComplete Status = "complete"
)

// State is the cursor over a sequence as seen by the view.
type State struct {
	ActiveIndex      int    `json:"activeIndex"`
	RemainingSeconds int    `json:"remainingSeconds"`
	IsRunning        bool   `json:"isRunning"`
	Status           Status `json:"status"`
}

func validateSteps(steps []Step) ([]Step, error) {
	if len(steps) == 0 {
		return nil, ErrEmptySequence
	}

	out := make([]Step, len(steps))
	for i, s := range steps {
		if s.PlannedDurationSeconds <= 0 {
			return nil, fmt.Errorf("step %d: %w", i, ErrInvalidDuration)
		}
		s.Ordinal = i
		out[i] = s
	}
	return out, nil
}
