package player_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperssn/yofit/internal/player"
)

func classSteps(durations ...int) []player.Step {
	steps := make([]player.Step, len(durations))
	for i, d := range durations {
		steps[i] = player.Step{Kind: player.KindPose, PlannedDurationSeconds: d, Label: "pose"}
	}
	return steps
}

func TestNewMachineRejectsEmptySequence(t *testing.T) {
	_, err := player.NewMachine(nil, nil)
	require.ErrorIs(t, err, player.ErrEmptySequence)

	_, err = player.NewMachine(classSteps(10, 0), nil)
	require.ErrorIs(t, err, player.ErrInvalidDuration)
}

func TestMachineScenario(t *testing.T) {
	completions := 0
	m, err := player.NewMachine(classSteps(60, 45, 15), func() { completions++ })
	require.NoError(t, err)

	assert.Equal(t, player.StatusIdle, m.State().Status)

	require.True(t, m.Start())
	assert.Equal(t, player.State{ActiveIndex: 0, RemainingSeconds: 60, IsRunning: true, Status: player.StatusRunning}, m.State())

	for i := 0; i < 60; i++ {
		m.Tick()
	}
	assert.Equal(t, 1, m.State().ActiveIndex)
	assert.Equal(t, 45, m.State().RemainingSeconds)
	assert.True(t, m.State().IsRunning)

	require.True(t, m.Previous())
	assert.Equal(t, 0, m.State().ActiveIndex)
	assert.Equal(t, 60, m.State().RemainingSeconds)
	assert.Equal(t, 0, completions)
}

func TestMachineCompletesOnceAfterTotalDuration(t *testing.T) {
	sequences := [][]int{{1}, {3}, {60, 45, 15}, {2, 1, 1, 5}}

	for _, durations := range sequences {
		completions := 0
		m, err := player.NewMachine(classSteps(durations...), func() { completions++ })
		require.NoError(t, err)

		total := 0
		for _, d := range durations {
			total += d
		}

		m.Start()
		for i := 0; i < total-1; i++ {
			m.Tick()
			require.NotEqual(t, player.StatusComplete, m.State().Status, "completed early at tick %d of %v", i+1, durations)
		}
		m.Tick()

		assert.Equal(t, player.StatusComplete, m.State().Status)
		assert.False(t, m.State().IsRunning)
		assert.Equal(t, len(durations)-1, m.State().ActiveIndex)
		assert.Equal(t, 0, m.State().RemainingSeconds)

		// further ticks are ignored
		assert.False(t, m.Tick())
		assert.Equal(t, 1, completions, "sequence %v", durations)
	}
}

func TestMachineGoToResetsRemaining(t *testing.T) {
	m, err := player.NewMachine(classSteps(30, 20, 10), nil)
	require.NoError(t, err)
	m.Start()

	for i := 0; i < 7; i++ {
		m.Tick()
	}
	m.TogglePlay()

	for i, want := range []int{30, 20, 10} {
		require.True(t, m.GoTo(i))
		assert.Equal(t, want, m.State().RemainingSeconds)
		assert.False(t, m.State().IsRunning, "GoTo must not resume a paused machine")
	}
}

func TestMachineOutOfRangeNavigationIsIgnored(t *testing.T) {
	m, err := player.NewMachine(classSteps(5, 5), nil)
	require.NoError(t, err)
	m.Start()
	m.Tick()

	before := m.State()
	assert.False(t, m.GoTo(-1))
	assert.False(t, m.GoTo(2))
	assert.False(t, m.Previous())
	assert.Equal(t, before, m.State())

	m.Next()
	assert.False(t, m.Next())
	assert.Equal(t, 1, m.State().ActiveIndex)
}

func TestMachinePauseFreezesRemaining(t *testing.T) {
	m, err := player.NewMachine(classSteps(10), nil)
	require.NoError(t, err)
	m.Start()
	m.Tick()

	require.True(t, m.TogglePlay())
	for i := 0; i < 5; i++ {
		assert.False(t, m.Tick())
	}
	assert.Equal(t, 9, m.State().RemainingSeconds)
	assert.Equal(t, player.StatusPaused, m.State().Status)
}

func TestMachineTogglePlayTwiceIsIdentity(t *testing.T) {
	m, err := player.NewMachine(classSteps(10, 10), nil)
	require.NoError(t, err)
	m.Start()
	m.Tick()

	before := m.State()
	m.TogglePlay()
	m.TogglePlay()
	assert.Equal(t, before, m.State())
}

func TestMachineToggleIgnoredWhenIdleOrComplete(t *testing.T) {
	m, err := player.NewMachine(classSteps(1), nil)
	require.NoError(t, err)

	assert.False(t, m.TogglePlay())
	m.Start()
	m.Tick()
	require.Equal(t, player.StatusComplete, m.State().Status)
	assert.False(t, m.TogglePlay())
	assert.False(t, m.GoTo(0))
}

func TestMachineRestore(t *testing.T) {
	m, err := player.NewMachine(classSteps(10, 20), nil)
	require.NoError(t, err)

	require.NoError(t, m.Restore(player.State{ActiveIndex: 1, RemainingSeconds: 4, IsRunning: false}))
	assert.Equal(t, player.StatusPaused, m.State().Status)

	m.TogglePlay()
	m.Tick()
	assert.Equal(t, 3, m.State().RemainingSeconds)

	tests := []struct {
		name  string
		state player.State
	}{
		{name: "index out of range", state: player.State{ActiveIndex: 2, RemainingSeconds: 1}},
		{name: "remaining above duration", state: player.State{ActiveIndex: 0, RemainingSeconds: 11}},
		{name: "zero remaining while paused", state: player.State{ActiveIndex: 0, RemainingSeconds: 0, Status: player.StatusPaused}},
		{name: "unknown status", state: player.State{ActiveIndex: 0, RemainingSeconds: 3, Status: "bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, m.Restore(tt.state), player.ErrInvalidState)
		})
	}
}
