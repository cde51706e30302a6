package player

import (
	"sync"
	"time"
)

// tickToken binds one ticker to the step it was armed for. Tokens are never
// reused: any change of step or running-ness disarms the current token and
// arms a fresh one with a new generation, so a tick that was already in
// flight for an abandoned step is dropped.
type tickToken struct {
	gen    uint64
	ticker Ticker
	done   chan struct{}
}

// Player drives a Machine in real time. All mutations are serialized; the
// OnChange and OnComplete observers run inside that serialization and must
// not call back into the Player.
type Player struct {
	mu sync.Mutex

	machine  *Machine
	clock    Clock
	interval time.Duration

	gen     uint64
	token   *tickToken
	stopped bool

	onChange   func(State)
	onComplete func()
}

type Option func(*Player)

func WithClock(c Clock) Option {
	return func(p *Player) {
		if c != nil {
			p.clock = c
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.interval = d
		}
	}
}

func OnChange(fn func(State)) Option {
	return func(p *Player) {
		p.onChange = fn
	}
}

func OnComplete(fn func()) Option {
	return func(p *Player) {
		p.onComplete = fn
	}
}

// New builds an idle player. It fails when steps is empty or holds a
// non-positive duration.
func New(steps []Step, opts ...Option) (*Player, error) {
	m, err := NewMachine(steps, nil)
	if err != nil {
		return nil, err
	}

	p := &Player{
		machine:  m,
		clock:    SystemClock(),
		interval: time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.machine.State()
}

func (p *Player) Steps() []Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.machine.Steps()
}

func (p *Player) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *Player) Start() {
	p.apply(func(m *Machine) bool { return m.Start() })
}

func (p *Player) TogglePlay() {
	p.apply(func(m *Machine) bool { return m.TogglePlay() })
}

func (p *Player) GoTo(index int) {
	p.apply(func(m *Machine) bool { return m.GoTo(index) })
}

func (p *Player) Next() {
	p.apply(func(m *Machine) bool { return m.Next() })
}

func (p *Player) Previous() {
	p.apply(func(m *Machine) bool { return m.Previous() })
}

// Restore moves the cursor to a saved state. Restoring into Complete does
// not fire OnComplete; that edge belongs to the run that finished.
func (p *Player) Restore(s State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	if err := p.machine.Restore(s); err != nil {
		return err
	}

	p.disarm()
	after := p.machine.State()
	if after.IsRunning {
		p.arm()
	}
	if p.onChange != nil {
		p.onChange(after)
	}
	return nil
}

// Stop tears the player down. No ticks, commands or callbacks are processed
// afterwards.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	p.disarm()
}

func (p *Player) tick(gen uint64) {
	p.apply(func(m *Machine) bool {
		if gen != p.gen || p.token == nil {
			return false
		}
		return m.Tick()
	})
}

func (p *Player) apply(fn func(m *Machine) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	before := p.machine.State()
	if !fn(p.machine) {
		return
	}
	after := p.machine.State()

	rearm := before.ActiveIndex != after.ActiveIndex ||
		before.IsRunning != after.IsRunning ||
		after.RemainingSeconds > before.RemainingSeconds ||
		p.token == nil
	if rearm {
		p.disarm()
		if after.IsRunning {
			p.arm()
		}
	}

	if p.onChange != nil {
		p.onChange(after)
	}
	if before.Status != StatusComplete && after.Status == StatusComplete && p.onComplete != nil {
		p.onComplete()
	}
}

func (p *Player) arm() {
	p.gen++
	tok := &tickToken{
		gen:    p.gen,
		ticker: p.clock.NewTicker(p.interval),
		done:   make(chan struct{}),
	}
	p.token = tok

	go p.loop(tok)
}

func (p *Player) disarm() {
	if p.token == nil {
		return
	}
	p.token.ticker.Stop()
	close(p.token.done)
	p.token = nil
}

func (p *Player) loop(tok *tickToken) {
	for {
		select {
		case <-tok.done:
			return
		case <-tok.ticker.C():
			p.tick(tok.gen)
		}
	}
}
