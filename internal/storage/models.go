package storage

import (
	"time"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/player"
)

type SessionRecord struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	ClassID     string       `json:"classId"`
	PlannedSec  int          `json:"plannedSec"`
	PracticeSec int          `json:"practiceSec"`
	Completed   bool         `json:"completed"`
	StartedAt   time.Time    `json:"startedAt"`
	EndedAt     time.Time    `json:"endedAt"`
	Steps       []StepRecord `json:"steps"`
}

type StepRecord struct {
	SessionID string      `json:"sessionId"`
	Index     int         `json:"index"`
	Kind      player.Kind `json:"kind"`
	Duration  int         `json:"duration"`
	Completed bool        `json:"completed"`
}

// FromDomainSession converts a domain.Session to a SessionRecord. Practice
// time counts fully completed steps plus the elapsed part of the active one.
func FromDomainSession(s *domain.Session, state player.State) *SessionRecord {
	steps := make([]StepRecord, len(s.Steps))
	practice := 0
	for i, step := range s.Steps {
		done := s.Completed || i < state.ActiveIndex
		if done {
			practice += step.Duration
		} else if i == state.ActiveIndex {
			practice += step.Duration - state.RemainingSeconds
		}

		steps[i] = StepRecord{
			SessionID: s.ID,
			Index:     step.Index,
			Kind:      step.Kind,
			Duration:  step.Duration,
			Completed: done,
		}
	}

	ended := s.CompletedAt
	if ended.IsZero() {
		ended = time.Now()
	}

	return &SessionRecord{
		ID:          s.ID,
		UserID:      s.UserID,
		ClassID:     s.ClassID,
		PlannedSec:  s.TotalSeconds(),
		PracticeSec: practice,
		Completed:   s.Completed,
		StartedAt:   s.StartedAt,
		EndedAt:     ended,
		Steps:       steps,
	}
}
