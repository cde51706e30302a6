package snapshot

import (
	"context"
	"log"
	"time"
)

// NewStore returns a redis-backed store when a host is configured and
// reachable, and an in-memory store otherwise.
func NewStore(ctx context.Context, opts RedisOptions, ttl time.Duration) Store {
	if opts.Host != "" {
		store, err := NewRedisStore(ctx, opts, ttl)
		if err != nil {
			log.Printf("snapshot: redis unavailable (%v), falling back to memory", err)
			return NewMemoryStore(ttl)
		}
		log.Printf("snapshot: using redis at %s", opts.Host)
		return store
	}

	log.Println("snapshot: using in-memory store")
	return NewMemoryStore(ttl)
}
