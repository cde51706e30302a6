package snapshot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/player"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	st := newMemoryStore(time.Minute, func() time.Time { return now })
	defer st.Close()

	sess := &domain.Session{
		ID: "s1", UserID: "u1", ClassID: "class-1", Title: "Flow",
		Steps: []domain.Step{
			{Index: 0, Kind: player.KindPose, Duration: 20},
			{Index: 1, Kind: player.KindPose, Duration: 20},
			{Index: 2, Kind: player.KindRest, Duration: 20},
		},
	}
	snap := New(sess, player.State{ActiveIndex: 2, RemainingSeconds: 14, IsRunning: true, Status: player.StatusRunning}, now)
	require.NoError(t, st.Save(ctx, snap))

	got, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, *snap, *got)

	rebuilt := got.Session()
	assert.Equal(t, "u1", rebuilt.UserID)
	assert.Equal(t, 2, rebuilt.CurrentIdx)
	assert.Equal(t, 60, rebuilt.TotalSeconds())

	got.ActiveIndex = 0
	again, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.ActiveIndex, "stored copy must not alias")

	require.NoError(t, st.Delete(ctx, "s1"))
	_, err = st.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	var (
		mu  sync.Mutex
		now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	)
	st := newMemoryStore(time.Minute, func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})
	defer st.Close()

	require.NoError(t, st.Save(ctx, &Snapshot{SessionID: "a"}))
	require.NoError(t, st.Save(ctx, &Snapshot{SessionID: "b"}))

	mu.Lock()
	now = now.Add(time.Minute)
	mu.Unlock()

	_, err := st.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, st.sweep())
}

func TestSnapshotStateRestoresPaused(t *testing.T) {
	snap := &Snapshot{ActiveIndex: 1, RemainingSeconds: 30, IsRunning: true, Status: player.StatusRunning}

	st := snap.State()

	assert.Equal(t, player.StatusPaused, st.Status)
	assert.False(t, st.IsRunning)
	assert.Equal(t, 1, st.ActiveIndex)
	assert.Equal(t, 30, st.RemainingSeconds)
}

func TestNewStoreFallsBackToMemory(t *testing.T) {
	st := NewStore(context.Background(), RedisOptions{}, 0)
	defer st.Close()

	_, ok := st.(*MemoryStore)
	assert.True(t, ok)
}
