package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCapacity = 1024
	DefaultTTL      = 24 * time.Hour
)

// Registry keeps live sessions in memory. The least recently used session
// is evicted when capacity is reached, and idle sessions expire after ttl.
type Registry struct {
	cache *expirable.LRU[string, *Store]
}

func NewRegistry(capacity int, ttl time.Duration) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{cache: expirable.NewLRU[string, *Store](capacity, nil, ttl)}
}

// Create starts an empty session under a fresh id.
func (r *Registry) Create() *Store {
	s := NewStore(uuid.NewString())
	r.cache.Add(s.ID(), s)
	return s
}

// Get returns the session for id. Looking a session up refreshes its
// position but not its expiry.
func (r *Registry) Get(id string) (*Store, bool) {
	if id == "" {
		return nil, false
	}
	return r.cache.Get(id)
}

func (r *Registry) Delete(id string) bool {
	return r.cache.Remove(id)
}

func (r *Registry) Len() int {
	return r.cache.Len()
}
