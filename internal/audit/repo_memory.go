package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultMemoryLimit bounds MemoryRepo when no limit is given.
const DefaultMemoryLimit = 10000

// MemoryRepo is an in-memory append-only repository, used when Postgres is not configured and in tests.
// It keeps the newest limit events; older ones are discarded.
type MemoryRepo struct {
	mu      sync.Mutex
	events  []Event
	limit   int
	evicted int64
}

func NewMemoryRepo() *MemoryRepo { return NewMemoryRepoWithLimit(DefaultMemoryLimit) }

func NewMemoryRepoWithLimit(limit int) *MemoryRepo {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &MemoryRepo{limit: limit}
}

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if over := len(r.events) - r.limit; over > 0 {
		// copy down so the backing array doesn't keep growing
		n := copy(r.events, r.events[over:])
		clear(r.events[n:])
		r.events = r.events[:n]
		r.evicted += int64(over)
	}
	return nil
}

// Evicted reports how many events were discarded to stay within the limit.
func (r *MemoryRepo) Evicted() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evicted
}

func (r *MemoryRepo) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	r.mu.Lock()
	out := make([]Event, 0, len(r.events))
	for _, e := range r.events {
		if e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	r.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
