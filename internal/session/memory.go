package session

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory session store guarded by a mutex. It is the
// production default: sessions are ephemeral and a restart simply logs
// everyone out.
type MemoryRepo struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

func (r *MemoryRepo) Put(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Record, error) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()

	if !ok {
		return Record{}, ErrNotFound
	}
	if !rec.ExpiresAt.IsZero() && r.now().After(rec.ExpiresAt) {
		r.mu.Lock()
		delete(r.records, id)
		r.mu.Unlock()
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}
