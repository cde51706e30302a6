package runner

import (
	"sync"
	"time"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/player"
)

type EventType string

const (
	EventState    EventType = "state"
	EventComplete EventType = "complete"
	EventStopped  EventType = "stopped"
)

// Event is published to subscribers on every player transition.
type Event struct {
	Type      EventType    `json:"type"`
	SessionID string       `json:"sessionId"`
	State     player.State `json:"state"`
	Step      player.Step  `json:"step"`
}

const subscriberBuffer = 16

// sessionRunner pairs a guided session with the player that drives it.
//
// Lock order: the player calls back into the runner while holding its own
// lock, so r.mu must never be held across a call into r.player.
type sessionRunner struct {
	mu sync.Mutex

	session    *domain.Session
	player     *player.Player
	steps      []player.Step
	stopped    bool
	finishedAt time.Time

	subs    map[int]chan Event
	nextSub int
}

func newSessionRunner(s *domain.Session) *sessionRunner {
	return &sessionRunner{
		session: s,
		steps:   domain.PlayerSteps(s.Steps),
		subs:    make(map[int]chan Event),
	}
}

// Session returns a copy of the session with the cursor of the player.
func (r *sessionRunner) Session() *domain.Session {
	st := r.player.State()

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *r.session
	cp.Steps = make([]domain.Step, len(r.session.Steps))
	copy(cp.Steps, r.session.Steps)
	cp.CurrentIdx = st.ActiveIndex
	return &cp
}

func (r *sessionRunner) event(t EventType, st player.State) Event {
	ev := Event{Type: t, SessionID: r.session.ID, State: st}
	if st.ActiveIndex >= 0 && st.ActiveIndex < len(r.steps) {
		ev.Step = r.steps[st.ActiveIndex]
	}
	return ev
}

// onChange records per-step progress and fans the new state out.
func (r *sessionRunner) onChange(st player.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session.CurrentIdx = st.ActiveIndex
	for i := range r.session.Steps {
		step := &r.session.Steps[i]
		step.Completed = i < st.ActiveIndex || st.Status == player.StatusComplete
		if i == st.ActiveIndex && st.IsRunning && step.StartedAt.IsZero() {
			step.StartedAt = time.Now()
		}
	}

	r.publishLocked(r.event(EventState, st))
}

func (r *sessionRunner) markCompleted(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session.Completed = true
	r.session.CompletedAt = now
	r.finishedAt = now
}

func (r *sessionRunner) isCompleted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session.Completed
}

func (r *sessionRunner) markStopped(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return false
	}
	r.stopped = true
	if r.finishedAt.IsZero() {
		r.finishedAt = now
	}
	return true
}

func (r *sessionRunner) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

func (r *sessionRunner) finished() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishedAt, !r.finishedAt.IsZero()
}

func (r *sessionRunner) publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishLocked(ev)
}

// publishLocked never blocks: a subscriber that falls behind misses events
// but always sees the latest state on its next read.
func (r *sessionRunner) publishLocked(ev Event) {
	for _, ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (r *sessionRunner) subscribe(initial Event) (<-chan Event, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSub
	r.nextSub++
	ch := make(chan Event, subscriberBuffer)
	ch <- initial
	r.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if c, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// closeSubscribers ends every subscription; channels are closed after any
// final event has been queued.
func (r *sessionRunner) closeSubscribers() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}
