// Package admission decides whether a client may issue another request
// within the current counting window.
//
// The registry is a fixed window counter: once a window expires the count
// restarts at one. A client can therefore be admitted up to 2*Max times in a
// span of Window that straddles a reset.
package admission

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	DefaultWindow = time.Minute
	DefaultMax    = 60

	shardCount = 32
)

type Policy struct {
	Window time.Duration
	Max    int
}

func DefaultPolicy() Policy {
	return Policy{Window: DefaultWindow, Max: DefaultMax}
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

func (w *clientWindow) expired(now time.Time) bool {
	return !now.Before(w.resetAt)
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*clientWindow
}

type Registry struct {
	policy Policy
	now    func() time.Time
	shards [shardCount]*shard
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRegistry(policy Policy, opts ...Option) *Registry {
	if policy.Window <= 0 {
		policy.Window = DefaultWindow
	}
	if policy.Max <= 0 {
		policy.Max = DefaultMax
	}

	r := &Registry{
		policy: policy,
		now:    time.Now,
	}
	for i := range r.shards {
		r.shards[i] = &shard{windows: make(map[string]*clientWindow)}
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Registry) Policy() Policy {
	return r.policy
}

func (r *Registry) shardFor(identifier string) *shard {
	return r.shards[xxhash.Sum64String(identifier)%shardCount]
}

// TryAdmit reports whether the request identified by identifier is admitted.
func (r *Registry) TryAdmit(identifier string) bool {
	return r.Admit(identifier).Allowed
}

// Admit records the request against identifier's window when it fits and
// returns the decision. A rejected call leaves the window untouched.
func (r *Registry) Admit(identifier string) Decision {
	now := r.now()
	s := r.shardFor(identifier)

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[identifier]
	if !ok || w.expired(now) {
		w = &clientWindow{count: 1, resetAt: now.Add(r.policy.Window)}
		s.windows[identifier] = w
		return r.decision(true, w)
	}

	if w.count >= r.policy.Max {
		return r.decision(false, w)
	}

	w.count++
	return r.decision(true, w)
}

func (r *Registry) decision(allowed bool, w *clientWindow) Decision {
	remaining := r.policy.Max - w.count
	if remaining < 0 {
		remaining = 0
	}

	d := Decision{
		Allowed:   allowed,
		Limit:     r.policy.Max,
		Remaining: remaining,
		ResetAt:   w.resetAt,
	}
	if !allowed {
		d.RetryAfter = r.policy.Window
	}
	return d
}

// Sweep drops every window whose reset time has passed and returns how many
// were removed. Expiry is also handled lazily by Admit, so skipping a sweep
// only costs memory.
func (r *Registry) Sweep(now time.Time) int {
	removed := 0
	for _, s := range r.shards {
		s.mu.Lock()
		for id, w := range s.windows {
			if w.expired(now) {
				delete(s.windows, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

func (r *Registry) Len() int {
	n := 0
	for _, s := range r.shards {
		s.mu.Lock()
		n += len(s.windows)
		s.mu.Unlock()
	}
	return n
}

// Run sweeps the registry once per window until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.policy.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}
