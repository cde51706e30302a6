package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hperssn/yofit/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrSubscriptionExists = errors.New("user already has an active subscription or trial")
)

type ClassFilter struct {
	Goal  string
	Level string
	Limit int
}

type ClassStore interface {
	SaveClass(ctx context.Context, class *domain.YogaClass) error
	GetClass(ctx context.Context, id string) (*domain.YogaClass, error)
	ListClasses(ctx context.Context, filter ClassFilter) ([]domain.YogaClass, error)
}

type ProgressStore interface {
	MarkComplete(ctx context.Context, progress *domain.Progress) error
	GetProgress(ctx context.Context, userID, classID string) (*domain.Progress, error)
}

type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userID string) (*domain.Subscription, error)
	CreateSubscription(ctx context.Context, sub *domain.Subscription) error
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, profile *domain.Profile) error
}

type SessionStore interface {
	SaveSession(ctx context.Context, record *SessionRecord) error

	GetSessionsByUser(ctx context.Context, userID string) ([]SessionRecord, error)

	GetRecentSessions(ctx context.Context, userID string, since time.Time) ([]SessionRecord, error)

	GetSessionStats(ctx context.Context, userID string) (*SessionStats, error)
}

type Repository interface {
	ClassStore
	ProgressStore
	SubscriptionStore
	ProfileStore
	SessionStore

	Close() error
}

type SessionStats struct {
	TotalSessions    int     `json:"totalSessions"`
	CompletedCount   int     `json:"completedCount"`
	AveragePlanned   float64 `json:"averagePlanned"`
	TotalPracticeSec int     `json:"totalPracticeSec"`
	CompletionRate   float64 `json:"completionRate"`
}
