package snapshot

import (
	"context"
	"log"
	"sync"
	"time"
)

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

type MemoryStore struct {
	entries sync.Map
	ttl     time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return newMemoryStore(ttl, time.Now)
}

// newMemoryStore sets the clock before the cleanup loop can read it.
func newMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	st := &MemoryStore{
		ttl:  ttl,
		now:  now,
		stop: make(chan struct{}),
	}
	go st.cleanupLoop()
	return st
}

func (st *MemoryStore) Save(_ context.Context, s *Snapshot) error {
	st.entries.Store(s.SessionID, memoryEntry{snap: *s, expiresAt: st.now().Add(st.ttl)})
	return nil
}

func (st *MemoryStore) Get(_ context.Context, sessionID string) (*Snapshot, error) {
	val, ok := st.entries.Load(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	e := val.(memoryEntry)
	if !st.now().Before(e.expiresAt) {
		st.entries.Delete(sessionID)
		return nil, ErrNotFound
	}
	snap := e.snap
	return &snap, nil
}

func (st *MemoryStore) Delete(_ context.Context, sessionID string) error {
	st.entries.Delete(sessionID)
	return nil
}

func (st *MemoryStore) Close() error {
	st.once.Do(func() { close(st.stop) })
	return nil
}

func (st *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-st.stop:
			return
		case <-ticker.C:
			if n := st.sweep(); n > 0 {
				log.Printf("snapshot: dropped %d expired cursors", n)
			}
		}
	}
}

func (st *MemoryStore) sweep() int {
	now := st.now()
	n := 0
	st.entries.Range(func(key, value any) bool {
		if !now.Before(value.(memoryEntry).expiresAt) {
			st.entries.Delete(key)
			n++
		}
		return true
	})
	return n
}
