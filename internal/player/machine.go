package player

// Machine is the synchronous guided-session state machine. It has no notion
// of time: callers apply Tick once per elapsed second while it is running.
// A Machine is not safe for concurrent use; Player wraps it for that.
type Machine struct {
	steps      []Step
	index      int
	remaining  int
	status     Status
	onComplete func()
}

// NewMachine builds an idle machine over steps. onComplete may be nil.
func NewMachine(steps []Step, onComplete func()) (*Machine, error) {
	validated, err := validateSteps(steps)
	if err != nil {
		return nil, err
	}

	return &Machine{
		steps:      validated,
		remaining:  validated[0].PlannedDurationSeconds,
		status:     StatusIdle,
		onComplete: onComplete,
	}, nil
}

func (m *Machine) State() State {
	return State{
		ActiveIndex:      m.index,
		RemainingSeconds: m.remaining,
		IsRunning:        m.status == StatusRunning,
		Status:           m.status,
	}
}

func (m *Machine) Steps() []Step {
	out := make([]Step, len(m.steps))
	copy(out, m.steps)
	return out
}

func (m *Machine) Len() int {
	return len(m.steps)
}

// Start moves an idle machine onto the first step and starts the countdown.
func (m *Machine) Start() bool {
	if m.status != StatusIdle {
		return false
	}
	m.index = 0
	m.remaining = m.steps[0].PlannedDurationSeconds
	m.status = StatusRunning
	return true
}

func (m *Machine) TogglePlay() bool {
	switch m.status {
	case StatusRunning:
		m.status = StatusPaused
	case StatusPaused:
		m.status = StatusRunning
	default:
		return false
	}
	return true
}

// GoTo makes index the active step with its full duration. Out-of-range
// indices and a completed machine are ignored.
func (m *Machine) GoTo(index int) bool {
	if m.status == StatusComplete || index < 0 || index >= len(m.steps) {
		return false
	}
	m.index = index
	m.remaining = m.steps[index].PlannedDurationSeconds
	return true
}

func (m *Machine) Next() bool {
	return m.GoTo(m.index + 1)
}

func (m *Machine) Previous() bool {
	return m.GoTo(m.index - 1)
}

// Tick consumes one second of the active step. When the last step runs out
// the machine completes and onComplete fires.
func (m *Machine) Tick() bool {
	if m.status != StatusRunning {
		return false
	}

	if m.remaining > 0 {
		m.remaining--
	}
	if m.remaining > 0 {
		return true
	}

	if m.index < len(m.steps)-1 {
		m.GoTo(m.index + 1)
		return true
	}

	m.status = StatusComplete
	if m.onComplete != nil {
		m.onComplete()
	}
	return true
}

// Restore places the cursor at a previously saved state.
func (m *Machine) Restore(s State) error {
	if s.ActiveIndex < 0 || s.ActiveIndex >= len(m.steps) {
		return ErrInvalidState
	}
	if s.RemainingSeconds < 0 || s.RemainingSeconds > m.steps[s.ActiveIndex].PlannedDurationSeconds {
		return ErrInvalidState
	}

	status := s.Status
	switch status {
	case StatusIdle, StatusRunning, StatusPaused, StatusComplete:
	case "":
		status = StatusPaused
		if s.IsRunning {
			status = StatusRunning
		}
	default:
		return ErrInvalidState
	}
	if status != StatusComplete && s.RemainingSeconds == 0 {
		return ErrInvalidState
	}

	m.index = s.ActiveIndex
	m.remaining = s.RemainingSeconds
	m.status = status
	return nil
}
