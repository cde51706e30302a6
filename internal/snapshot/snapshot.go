// Package snapshot keeps short-lived player cursors so an interrupted
// guided session can be resumed where it stopped.
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/player"
)

const (
	DefaultTTL      = time.Hour
	cleanupInterval = time.Minute
	redisKeyPrefix  = "yofit:snapshot:"
)

var ErrNotFound = errors.New("snapshot not found")

type Snapshot struct {
	SessionID        string        `json:"sessionId"`
	ClassID          string        `json:"classId"`
	UserID           string        `json:"userId"`
	Title            string        `json:"title"`
	StartedAt        time.Time     `json:"startedAt"`
	Steps            []domain.Step `json:"steps"`
	ActiveIndex      int           `json:"activeIndex"`
	RemainingSeconds int           `json:"remainingSeconds"`
	IsRunning        bool          `json:"isRunning"`
	Status           player.Status `json:"status"`
	SavedAt          time.Time     `json:"savedAt"`
}

// New captures the player state of a session together with its sequence, so
// the session can be rebuilt even after the process that ran it is gone.
func New(sess *domain.Session, st player.State, now time.Time) *Snapshot {
	steps := make([]domain.Step, len(sess.Steps))
	copy(steps, sess.Steps)

	return &Snapshot{
		SessionID:        sess.ID,
		ClassID:          sess.ClassID,
		UserID:           sess.UserID,
		Title:            sess.Title,
		StartedAt:        sess.StartedAt,
		Steps:            steps,
		ActiveIndex:      st.ActiveIndex,
		RemainingSeconds: st.RemainingSeconds,
		IsRunning:        st.IsRunning,
		Status:           st.Status,
		SavedAt:          now,
	}
}

// State returns the cursor as a player state. A restored player always
// starts paused; the user resumes explicitly.
func (s *Snapshot) State() player.State {
	st := player.State{
		ActiveIndex:      s.ActiveIndex,
		RemainingSeconds: s.RemainingSeconds,
		Status:           s.Status,
	}
	if st.Status == player.StatusRunning {
		st.Status = player.StatusPaused
	}
	return st
}

// Session rebuilds the guided session the snapshot was taken from.
func (s *Snapshot) Session() *domain.Session {
	steps := make([]domain.Step, len(s.Steps))
	copy(steps, s.Steps)

	return &domain.Session{
		ID:         s.SessionID,
		UserID:     s.UserID,
		ClassID:    s.ClassID,
		Title:      s.Title,
		Steps:      steps,
		CurrentIdx: s.ActiveIndex,
		StartedAt:  s.StartedAt,
	}
}

type Store interface {
	Save(ctx context.Context, s *Snapshot) error
	Get(ctx context.Context, sessionID string) (*Snapshot, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}
