package topup

import (
	"context"
	"sort"
	"sync"
)

// Repository persists topup attempts for at least the lifetime of the session.
type Repository interface {
	Save(ctx context.Context, attempt Attempt) error
	Update(ctx context.Context, attempt Attempt) error
	Get(ctx context.Context, id string) (Attempt, error)
	List(ctx context.Context) ([]Attempt, error)
}

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Attempt
}

// NewMemoryRepository constructs an in-memory attempt repository, used when
// no database is configured and in tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Attempt)}
}

func (r *memoryRepository) Save(_ context.Context, attempt Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[attempt.ID] = attempt
	return nil
}

func (r *memoryRepository) Update(ctx context.Context, attempt Attempt) error {
	return r.Save(ctx, attempt)
}

func (r *memoryRepository) Get(_ context.Context, id string) (Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempt, ok := r.storage[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return attempt, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempts := make([]Attempt, 0, len(r.storage))
	for _, attempt := range r.storage {
		attempts = append(attempts, attempt)
	}
	sort.Slice(attempts, func(i, j int) bool {
		return attempts[i].CreatedAt.After(attempts[j].CreatedAt)
	})
	return attempts, nil
}
