package runner

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/player"
	"github.com/hperssn/yofit/internal/snapshot"
)

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionStopped  = errors.New("session stopped")
	ErrInvalidStep     = errors.New("invalid step index")
	ErrNoSnapshot      = errors.New("no snapshot to resume from")
)

const (
	cleanupInterval = 5 * time.Minute
	retainFinished  = time.Hour
	persistTimeout  = 10 * time.Second
)

// CompletionSink receives sessions whose last step has elapsed.
type CompletionSink interface {
	SessionCompleted(ctx context.Context, s *domain.Session, st player.State) error
}

type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*sessionRunner

	sink      CompletionSink
	snapshots snapshot.Store
	clock     player.Clock
	interval  time.Duration
	now       func() time.Time

	persisting sync.WaitGroup
}

type Option func(*SessionManager)

func WithCompletionSink(s CompletionSink) Option {
	return func(m *SessionManager) { m.sink = s }
}

func WithSnapshotStore(s snapshot.Store) Option {
	return func(m *SessionManager) { m.snapshots = s }
}

// WithClock sets the tick source for every player the manager builds.
func WithClock(c player.Clock) Option {
	return func(m *SessionManager) { m.clock = c }
}

func WithTickInterval(d time.Duration) Option {
	return func(m *SessionManager) { m.interval = d }
}

func WithNow(now func() time.Time) Option {
	return func(m *SessionManager) { m.now = now }
}

func NewSessionManager(opts ...Option) *SessionManager {
	m := &SessionManager{
		sessions: make(map[string]*sessionRunner),
		clock:    player.SystemClock(),
		interval: time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run drops finished sessions until ctx is cancelled.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.cleanupOldSessions(); n > 0 {
				log.Printf("runner: dropped %d finished sessions", n)
			}
		}
	}
}

func (m *SessionManager) cleanupOldSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-retainFinished)
	n := 0

	for id, r := range m.sessions {
		if at, ok := r.finished(); ok && at.Before(cutoff) {
			r.player.Stop()
			r.closeSubscribers()
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Wait blocks until in-flight completion writes have finished.
func (m *SessionManager) Wait() {
	m.persisting.Wait()
}

// Close stops every player and ends all subscriptions.
func (m *SessionManager) Close() {
	m.mu.Lock()
	runners := make([]*sessionRunner, 0, len(m.sessions))
	for _, r := range m.sessions {
		runners = append(runners, r)
	}
	m.mu.Unlock()

	for _, r := range runners {
		r.player.Stop()
		r.closeSubscribers()
	}
	m.Wait()
}

func (m *SessionManager) build(s *domain.Session) (*sessionRunner, error) {
	r := newSessionRunner(s)

	p, err := player.New(r.steps,
		player.WithClock(m.clock),
		player.WithInterval(m.interval),
		player.OnChange(r.onChange),
		player.OnComplete(func() { m.completed(r) }),
	)
	if err != nil {
		return nil, err
	}
	r.player = p
	return r, nil
}

// StartSession registers a session with an idle player. Playback begins
// with Play.
func (m *SessionManager) StartSession(s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return ErrSessionExists
	}

	r, err := m.build(s)
	if err != nil {
		return err
	}
	m.sessions[s.ID] = r

	return nil
}

// ResumeSession rebuilds a stopped or evicted session from its last
// snapshot. The player comes back paused at the saved cursor. A non-empty
// userID must match the session owner. Completed sessions cannot be resumed.
func (m *SessionManager) ResumeSession(ctx context.Context, id, userID string) (*domain.Session, error) {
	if m.snapshots == nil {
		return nil, ErrNoSnapshot
	}

	m.mu.Lock()
	if r, ok := m.sessions[id]; ok {
		switch {
		case r.isCompleted():
			// The snapshot may outlive completion until the sink goroutine drops it.
			m.mu.Unlock()
			return nil, ErrNoSnapshot
		case !r.isStopped():
			m.mu.Unlock()
			return nil, ErrSessionExists
		}
	}
	m.mu.Unlock()

	snap, err := m.snapshots.Get(ctx, id)
	if errors.Is(err, snapshot.ErrNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	if userID != "" && snap.UserID != userID {
		return nil, ErrNoSnapshot
	}

	r, err := m.build(snap.Session())
	if err != nil {
		return nil, err
	}
	if err := r.player.Restore(snap.State()); err != nil {
		r.player.Stop()
		return nil, err
	}

	m.mu.Lock()
	if old, ok := m.sessions[id]; ok {
		if !old.isStopped() || old.isCompleted() {
			m.mu.Unlock()
			r.player.Stop()
			return nil, ErrSessionExists
		}
		old.closeSubscribers()
	}
	m.sessions[id] = r
	m.mu.Unlock()

	log.Printf("runner: resumed session %s at step %d", id, snap.ActiveIndex)
	return r.Session(), nil
}

func (m *SessionManager) lookup(id string) (*sessionRunner, error) {
	m.mu.Lock()
	r, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if r.isStopped() {
		return nil, ErrSessionStopped
	}
	return r, nil
}

// Play starts an idle session or resumes a paused one.
func (m *SessionManager) Play(ctx context.Context, id string) (player.State, error) {
	r, err := m.lookup(id)
	if err != nil {
		return player.State{}, err
	}

	st := r.player.State()
	switch st.Status {
	case player.StatusIdle:
		r.player.Start()
	case player.StatusPaused:
		r.player.TogglePlay()
	}
	return r.player.State(), nil
}

func (m *SessionManager) TogglePlay(ctx context.Context, id string) (player.State, error) {
	r, err := m.lookup(id)
	if err != nil {
		return player.State{}, err
	}

	r.player.TogglePlay()
	st := r.player.State()
	if st.Status == player.StatusPaused {
		m.saveSnapshot(ctx, r, st)
	}
	return st, nil
}

func (m *SessionManager) GoTo(ctx context.Context, id string, idx int) (player.State, error) {
	r, err := m.lookup(id)
	if err != nil {
		return player.State{}, err
	}
	if idx < 0 || idx >= len(r.steps) {
		return player.State{}, ErrInvalidStep
	}

	return m.navigate(ctx, r, func(p *player.Player) { p.GoTo(idx) }), nil
}

func (m *SessionManager) Next(ctx context.Context, id string) (player.State, error) {
	r, err := m.lookup(id)
	if err != nil {
		return player.State{}, err
	}
	return m.navigate(ctx, r, (*player.Player).Next), nil
}

func (m *SessionManager) Previous(ctx context.Context, id string) (player.State, error) {
	r, err := m.lookup(id)
	if err != nil {
		return player.State{}, err
	}
	return m.navigate(ctx, r, (*player.Player).Previous), nil
}

func (m *SessionManager) navigate(ctx context.Context, r *sessionRunner, fn func(*player.Player)) player.State {
	fn(r.player)
	st := r.player.State()
	if st.Status != player.StatusComplete {
		m.saveSnapshot(ctx, r, st)
	}
	return st
}

// StopSession halts the player and keeps the session around so it can be
// inspected or resumed until cleanup drops it.
func (m *SessionManager) StopSession(ctx context.Context, id string) error {
	m.mu.Lock()
	r, exists := m.sessions[id]
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}

	st := r.player.State()
	r.player.Stop()
	if !r.markStopped(m.now()) {
		return nil
	}

	if st.Status != player.StatusComplete {
		m.saveSnapshot(ctx, r, st)
	}
	r.publish(r.event(EventStopped, st))
	r.closeSubscribers()
	return nil
}

func (m *SessionManager) GetSession(id string) (*domain.Session, bool) {
	m.mu.Lock()
	r, exists := m.sessions[id]
	m.mu.Unlock()

	if !exists {
		return nil, false
	}
	return r.Session(), true
}

func (m *SessionManager) State(id string) (player.State, error) {
	m.mu.Lock()
	r, exists := m.sessions[id]
	m.mu.Unlock()

	if !exists {
		return player.State{}, ErrSessionNotFound
	}
	return r.player.State(), nil
}

// Subscribe streams state events for a session. The current state is
// delivered first. The channel closes when the session stops or is dropped;
// callers release it early with the returned cancel func.
func (m *SessionManager) Subscribe(id string) (<-chan Event, func(), error) {
	r, err := m.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	st := r.player.State()
	typ := EventState
	if st.Status == player.StatusComplete {
		typ = EventComplete
	}
	ch, cancel := r.subscribe(r.event(typ, st))
	return ch, cancel, nil
}

// completed runs on the player's goroutine while it holds its lock, so
// persistence is handed off.
func (m *SessionManager) completed(r *sessionRunner) {
	now := m.now()
	r.markCompleted(now)

	st := player.State{
		ActiveIndex: len(r.steps) - 1,
		Status:      player.StatusComplete,
	}
	r.publish(r.event(EventComplete, st))

	m.persisting.Add(1)
	go func() {
		defer m.persisting.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		sess := r.Session()
		if m.snapshots != nil {
			if err := m.snapshots.Delete(ctx, sess.ID); err != nil {
				log.Printf("runner: drop snapshot %s: %v", sess.ID, err)
			}
		}
		if m.sink == nil {
			return
		}
		if err := m.sink.SessionCompleted(ctx, sess, st); err != nil {
			log.Printf("runner: persist completed session %s: %v", sess.ID, err)
			return
		}
		log.Printf("runner: session %s completed", sess.ID)
	}()
}

func (m *SessionManager) saveSnapshot(ctx context.Context, r *sessionRunner, st player.State) {
	if m.snapshots == nil {
		return
	}

	sess := r.Session()
	if err := m.snapshots.Save(ctx, snapshot.New(sess, st, m.now())); err != nil {
		log.Printf("runner: save snapshot %s: %v", sess.ID, err)
	}
}
