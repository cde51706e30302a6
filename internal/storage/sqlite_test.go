package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/player"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "yofit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteClasses(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	classes := []domain.YogaClass{
		{ID: "a", Title: "Morning Metabolism Booster", DurationMinutes: 20, Level: domain.LevelBeginner,
			Goals: []string{domain.GoalWeightLoss}, Premium: true, CreatedAt: base},
		{ID: "b", Title: "Deep Hip Openers", DurationMinutes: 40, Level: domain.LevelAll,
			Goals: []string{domain.GoalFlexibility, domain.GoalStress}, CreatedAt: base.Add(time.Hour),
			Sequence: []domain.Step{{Kind: player.KindPose, Duration: 60, Label: "Pigeon"}}},
		{ID: "c", Title: "Power Core", DurationMinutes: 30, Level: domain.LevelAdvanced,
			Goals: []string{domain.GoalStrength}, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range classes {
		require.NoError(t, repo.SaveClass(ctx, &classes[i]))
	}

	got, err := repo.GetClass(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Deep Hip Openers", got.Title)
	assert.Equal(t, []string{domain.GoalFlexibility, domain.GoalStress}, got.Goals)
	require.Len(t, got.Sequence, 1)
	assert.Equal(t, "Pigeon", got.Sequence[0].Label)

	_, err = repo.GetClass(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.ListClasses(ctx, ClassFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "newest first")

	byGoal, err := repo.ListClasses(ctx, ClassFilter{Goal: domain.GoalStress})
	require.NoError(t, err)
	require.Len(t, byGoal, 1)
	assert.Equal(t, "b", byGoal[0].ID)

	byLevel, err := repo.ListClasses(ctx, ClassFilter{Level: string(domain.LevelBeginner)})
	require.NoError(t, err)
	require.Len(t, byLevel, 1)
	assert.Equal(t, "a", byLevel[0].ID)

	limited, err := repo.ListClasses(ctx, ClassFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	classes[0].Title = "Renamed"
	require.NoError(t, repo.SaveClass(ctx, &classes[0]))
	got, err = repo.GetClass(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestSQLiteProgressUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	_, err := repo.GetProgress(ctx, "u1", "a")
	assert.ErrorIs(t, err, ErrNotFound)

	p := &domain.Progress{UserID: "u1", ClassID: "a", DurationMinutes: 15}
	require.NoError(t, repo.MarkComplete(ctx, p))
	assert.True(t, p.Completed)
	require.NotNil(t, p.CompletedAt)

	require.NoError(t, repo.MarkComplete(ctx, &domain.Progress{UserID: "u1", ClassID: "a", DurationMinutes: 25}))

	got, err := repo.GetProgress(ctx, "u1", "a")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, 25, got.DurationMinutes)
	assert.NotNil(t, got.CompletedAt)
}

func TestSQLiteSubscriptions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.GetSubscription(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.CreateSubscription(ctx, domain.NewTrial("u1", domain.PlanPro, now)))
	err = repo.CreateSubscription(ctx, domain.NewTrial("u1", domain.PlanElite, now))
	assert.ErrorIs(t, err, ErrSubscriptionExists)

	sub, err := repo.GetSubscription(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, sub.Plan)
	assert.Equal(t, domain.StatusTrialing, sub.Status)
	require.NotNil(t, sub.TrialEndsAt)
	assert.True(t, sub.TrialEndsAt.Equal(now.AddDate(0, 0, domain.TrialDays)))
	assert.True(t, sub.HasAccess(now))
}

func TestSQLiteProfiles(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	_, err := repo.GetProfile(ctx, "u1")
	require.ErrorIs(t, err, ErrNotFound)

	weight := 70.5
	p := &domain.Profile{UserID: "u1", Goal: domain.GoalFlexibility, Weight: &weight, UpdatedAt: at}
	require.NoError(t, repo.UpsertProfile(ctx, p))

	got, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.GoalFlexibility, got.Goal)
	require.NotNil(t, got.Weight)
	assert.InDelta(t, 70.5, *got.Weight, 1e-9)
	assert.Nil(t, got.BMI)
	assert.Nil(t, got.Height)
	assert.True(t, got.UpdatedAt.Equal(at))

	bmi, height := 22.4, 177.0
	got.Apply(domain.ProfileUpdate{BMI: &bmi, Height: &height}, at.Add(time.Hour))
	require.NoError(t, repo.UpsertProfile(ctx, got))

	again, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.GoalFlexibility, again.Goal)
	require.NotNil(t, again.BMI)
	assert.InDelta(t, 22.4, *again.BMI, 1e-9)
	require.NotNil(t, again.Weight)
	assert.InDelta(t, 70.5, *again.Weight, 1e-9)
	require.NotNil(t, again.Height)
	assert.InDelta(t, 177.0, *again.Height, 1e-9)
}

func TestSQLiteSessionsAndStats(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	done := &domain.Session{
		ID: "s1", UserID: "u1", ClassID: "a", StartedAt: start,
		Steps: []domain.Step{
			{Index: 0, Kind: player.KindPose, Duration: 60},
			{Index: 1, Kind: player.KindRest, Duration: 30},
		},
		Completed:   true,
		CompletedAt: start.Add(2 * time.Minute),
	}
	partial := &domain.Session{
		ID: "s2", UserID: "u1", ClassID: "b", StartedAt: start.Add(time.Hour),
		Steps: []domain.Step{
			{Index: 0, Kind: player.KindPose, Duration: 40},
			{Index: 1, Kind: player.KindPose, Duration: 50},
			{Index: 2, Kind: player.KindRest, Duration: 20},
		},
		CompletedAt: start.Add(time.Hour + 5*time.Minute),
	}

	require.NoError(t, repo.SaveSession(ctx, FromDomainSession(done, player.State{Status: player.StatusComplete})))
	rec := FromDomainSession(partial, player.State{ActiveIndex: 1, RemainingSeconds: 20, Status: player.StatusPaused})
	assert.Equal(t, 70, rec.PracticeSec)
	require.NoError(t, repo.SaveSession(ctx, rec))

	sessions, err := repo.GetSessionsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID)
	assert.Len(t, sessions[0].Steps, 3)

	recent, err := repo.GetRecentSessions(ctx, "u1", start.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "s2", recent[0].ID)

	stats, err := repo.GetSessionStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 160, stats.TotalPracticeSec)
	assert.InDelta(t, 100.0, stats.AveragePlanned, 0.001)
	assert.InDelta(t, 50.0, stats.CompletionRate, 0.001)

	empty, err := repo.GetSessionStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalSessions)
	assert.Zero(t, empty.CompletionRate)
}

func TestNewRepositoryRejectsUnknownDriver(t *testing.T) {
	_, err := NewRepository("mysql", "")
	assert.Error(t, err)
}
