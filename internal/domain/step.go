package domain

import (
	"time"

	"github.com/hperssn/yofit/internal/player"
)

type Step struct {
	Index       int         `json:"index"`
	Kind        player.Kind `json:"kind"`
	Duration    int         `json:"duration"`
	Label       string      `json:"label"`
	Instruction string      `json:"instruction,omitempty"`
	MediaRef    string      `json:"mediaRef,omitempty"`
	StartedAt   time.Time   `json:"startedAt,omitempty"`
	Completed   bool        `json:"completed"`
}

// PlayerSteps converts a sequence into the player's step descriptors.
func PlayerSteps(steps []Step) []player.Step {
	out := make([]player.Step, len(steps))
	for i, s := range steps {
		out[i] = player.Step{
			Ordinal:                i,
			Kind:                   s.Kind,
			PlannedDurationSeconds: s.Duration,
			Label:                  s.Label,
			InstructionText:        s.Instruction,
			MediaRef:               s.MediaRef,
		}
	}
	return out
}
