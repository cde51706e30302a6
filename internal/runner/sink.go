package runner

import (
	"context"
	"fmt"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/player"
	"github.com/hperssn/yofit/internal/storage"
)

type completionStore interface {
	storage.SessionStore
	storage.ProgressStore
}

// StorageSink records a finished session and marks its class complete for
// the user.
type StorageSink struct {
	store completionStore
}

func NewStorageSink(store completionStore) *StorageSink {
	return &StorageSink{store: store}
}

func (s *StorageSink) SessionCompleted(ctx context.Context, sess *domain.Session, st player.State) error {
	record := storage.FromDomainSession(sess, st)
	if err := s.store.SaveSession(ctx, record); err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}

	if sess.ClassID == "" {
		return nil
	}
	completedAt := record.EndedAt
	progress := &domain.Progress{
		UserID:          sess.UserID,
		ClassID:         sess.ClassID,
		CompletedAt:     &completedAt,
		DurationMinutes: (record.PracticeSec + 59) / 60,
	}
	if err := s.store.MarkComplete(ctx, progress); err != nil {
		return fmt.Errorf("mark class %s complete: %w", sess.ClassID, err)
	}
	return nil
}
