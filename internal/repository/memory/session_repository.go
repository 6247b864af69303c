package memory

import (
	"context"
	"sync"
	"time"

	"leaf-research-be/pkg/rag/session"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultSessionTTL      = 1 * time.Hour
	DefaultSessionCapacity = 1000
)

// SessionRepository keeps session contexts in process memory, bounded by
// capacity and TTL.
type SessionRepository struct {
	cache    *cache.Cache
	capacity int
	mu       sync.Mutex
}

func NewSessionRepository(capacity int, ttl time.Duration) *SessionRepository {
	if capacity <= 0 {
		capacity = DefaultSessionCapacity
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	// Expired items are purged every 10 minutes
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache:    c,
		capacity: capacity,
	}
}

func (r *SessionRepository) Save(_ context.Context, c *session.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.cache.Get(c.ThreadID); !found && r.cache.ItemCount() >= r.capacity {
		r.cache.DeleteExpired()
		if r.cache.ItemCount() >= r.capacity {
			r.evictOldest()
		}
	}
	stored := *c
	r.cache.Set(c.ThreadID, &stored, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(_ context.Context, threadID string) (*session.Context, bool, error) {
	if x, found := r.cache.Get(threadID); found {
		c := *x.(*session.Context)
		return &c, true, nil
	}
	return nil, false, nil
}

func (r *SessionRepository) Delete(_ context.Context, threadID string) error {
	r.cache.Delete(threadID)
	return nil
}

func (r *SessionRepository) Len() int {
	return r.cache.ItemCount()
}

// evictOldest removes the entry closest to expiry. Every entry shares one TTL,
// so that is also the least recently written.
func (r *SessionRepository) evictOldest() {
	var (
		oldestKey string
		oldestExp int64
	)
	for k, item := range r.cache.Items() {
		if oldestKey == "" || item.Expiration < oldestExp {
			oldestKey, oldestExp = k, item.Expiration
		}
	}
	if oldestKey != "" {
		r.cache.Delete(oldestKey)
	}
}
