package player_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperssn/yofit/internal/player"
)

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopped.Store(true) }

type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (c *manualClock) NewTicker(time.Duration) player.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *manualClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

func (c *manualClock) ticker(i int) *manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[i]
}

func (c *manualClock) latest() *manualTicker {
	return c.ticker(c.count() - 1)
}

type harness struct {
	clock       *manualClock
	player      *player.Player
	changes     chan player.State
	completions atomic.Int32
}

func newHarness(t *testing.T, durations ...int) *harness {
	t.Helper()

	h := &harness{
		clock:   &manualClock{},
		changes: make(chan player.State, 64),
	}
	p, err := player.New(classSteps(durations...),
		player.WithClock(h.clock),
		player.OnChange(func(s player.State) { h.changes <- s }),
		player.OnComplete(func() { h.completions.Add(1) }),
	)
	require.NoError(t, err)
	h.player = p
	t.Cleanup(p.Stop)

	return h
}

func (h *harness) next(t *testing.T) player.State {
	t.Helper()
	select {
	case s := <-h.changes:
		return s
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state change")
		return player.State{}
	}
}

func (h *harness) tick(t *testing.T) player.State {
	t.Helper()
	h.clock.latest().ch <- time.Time{}
	return h.next(t)
}

func (h *harness) assertQuiet(t *testing.T) {
	t.Helper()
	select {
	case s := <-h.changes:
		t.Fatalf("unexpected state change: %+v", s)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestNewPlayerRejectsEmptySequence(t *testing.T) {
	_, err := player.New(nil)
	require.ErrorIs(t, err, player.ErrEmptySequence)
}

func TestPlayerRunsToCompletion(t *testing.T) {
	h := newHarness(t, 2, 1)

	h.player.Start()
	s := h.next(t)
	require.Equal(t, player.StatusRunning, s.Status)
	require.Equal(t, 1, h.clock.count())

	s = h.tick(t)
	assert.Equal(t, 1, s.RemainingSeconds)

	s = h.tick(t)
	assert.Equal(t, 1, s.ActiveIndex)
	assert.Equal(t, 1, s.RemainingSeconds)
	assert.Equal(t, 2, h.clock.count(), "advancing must arm a new ticker")
	assert.True(t, h.clock.ticker(0).stopped.Load())

	s = h.tick(t)
	assert.Equal(t, player.StatusComplete, s.Status)
	assert.False(t, s.IsRunning)
	assert.True(t, h.clock.latest().stopped.Load())
	assert.EqualValues(t, 1, h.completions.Load())
}

func TestPlayerDropsStaleTickAfterNavigation(t *testing.T) {
	h := newHarness(t, 10, 10, 10)

	h.player.Start()
	h.next(t)
	stale := h.clock.latest()

	h.player.GoTo(2)
	s := h.next(t)
	require.Equal(t, 2, s.ActiveIndex)
	require.Equal(t, 10, s.RemainingSeconds)
	require.True(t, stale.stopped.Load())

	stale.ch <- time.Time{}
	h.assertQuiet(t)
	assert.Equal(t, 10, h.player.State().RemainingSeconds)

	s = h.tick(t)
	assert.Equal(t, 9, s.RemainingSeconds)
}

func TestPlayerPauseDisarmsTicker(t *testing.T) {
	h := newHarness(t, 10)

	h.player.Start()
	h.next(t)
	h.tick(t)

	h.player.TogglePlay()
	s := h.next(t)
	require.False(t, s.IsRunning)
	assert.True(t, h.clock.latest().stopped.Load())

	h.player.TogglePlay()
	s = h.next(t)
	assert.True(t, s.IsRunning)
	assert.Equal(t, 9, s.RemainingSeconds)
	assert.Equal(t, 2, h.clock.count())
}

func TestPlayerGoToWhilePausedStaysPaused(t *testing.T) {
	h := newHarness(t, 10, 20)

	h.player.Start()
	h.next(t)
	h.player.TogglePlay()
	h.next(t)

	h.player.Next()
	s := h.next(t)
	assert.Equal(t, 1, s.ActiveIndex)
	assert.Equal(t, 20, s.RemainingSeconds)
	assert.False(t, s.IsRunning)
	assert.Equal(t, 1, h.clock.count(), "no ticker while paused")
}

func TestPlayerOutOfRangeIsNoop(t *testing.T) {
	h := newHarness(t, 10)

	h.player.Start()
	h.next(t)

	h.player.GoTo(5)
	h.player.Previous()
	h.player.Next()
	h.assertQuiet(t)
}

func TestPlayerStopSilencesCallbacks(t *testing.T) {
	h := newHarness(t, 1)

	h.player.Start()
	h.next(t)
	tk := h.clock.latest()

	h.player.Stop()
	assert.True(t, h.player.Stopped())
	assert.True(t, tk.stopped.Load())

	tk.ch <- time.Time{}
	h.player.TogglePlay()
	h.player.GoTo(0)
	h.assertQuiet(t)
	assert.EqualValues(t, 0, h.completions.Load())
}

func TestPlayerRestoreRunningArmsTicker(t *testing.T) {
	h := newHarness(t, 10, 10)

	require.NoError(t, h.player.Restore(player.State{ActiveIndex: 1, RemainingSeconds: 3, Status: player.StatusRunning}))
	s := h.next(t)
	require.True(t, s.IsRunning)
	require.Equal(t, 1, h.clock.count())

	s = h.tick(t)
	assert.Equal(t, 2, s.RemainingSeconds)
}

func TestPlayerRestoreCompleteDoesNotFireCompletion(t *testing.T) {
	h := newHarness(t, 5)

	require.NoError(t, h.player.Restore(player.State{ActiveIndex: 0, Status: player.StatusComplete}))
	s := h.next(t)
	require.Equal(t, player.StatusComplete, s.Status)

	assert.Equal(t, int32(0), h.completions.Load())
	assert.Equal(t, 0, h.clock.count())
}
