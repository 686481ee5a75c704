package consultation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores sessions for their lifetime. Update serializes
// read-modify-write cycles on one session; fn works on a copy that is only
// saved when it returns nil.
type Repository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type entry struct {
	mu      sync.Mutex
	session *Session
	deleted bool
}

// MemoryRepository keeps sessions in process memory with one lock per
// session.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[uuid.UUID]*entry),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	c := s.Clone()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = r.now()
	}
	c.UpdatedAt = c.CreatedAt
	r.entries[s.ID] = &entry{session: c}
	return nil
}

func (r *MemoryRepository) lookup(id uuid.UUID) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, ErrSessionNotFound
	}

	c := e.session.Clone()
	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = r.now()
	e.session = c
	return c.Clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	return nil
}

// Len is the number of live sessions.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep removes sessions not updated within idle and returns how many were
// removed.
func (r *MemoryRepository) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.entries {
		e.mu.Lock()
		if e.session.UpdatedAt.Before(cutoff) {
			e.deleted = true
			delete(r.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// RunSweeper sweeps idle sessions every interval until ctx is done.
func (r *MemoryRepository) RunSweeper(ctx context.Context, interval, idle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				slog.Info("swept idle sessions", "count", n, "remaining", r.Len())
			}
		}
	}
}
