package repository

import (
	"context"
	"sync"
	"time"

	"soundpost-data/internal/domain"
)

// MemoryErrorsRepository backs tests and local runs without Postgres.
type MemoryErrorsRepository struct {
	mu     sync.RWMutex
	nextID int64
	errors []domain.DeviceError
}

func NewMemoryErrorsRepository() *MemoryErrorsRepository {
	return &MemoryErrorsRepository{nextID: 1}
}

var _ ErrorsRepository = (*MemoryErrorsRepository)(nil)

func (r *MemoryErrorsRepository) InsertError(_ context.Context, devErr *domain.DeviceError) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *devErr
	stored.ID = r.nextID
	r.nextID++
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.errors = append(r.errors, stored)
	return stored.ID, nil
}

func (r *MemoryErrorsRepository) ListRecentErrors(_ context.Context, deviceID string, limit int) ([]*domain.DeviceError, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*domain.DeviceError{}
	// newest first = highest id first; rows were appended in id order
	for i := len(r.errors) - 1; i >= 0 && len(result) < limit; i-- {
		if r.errors[i].DeviceID == deviceID {
			e := r.errors[i]
			result = append(result, &e)
		}
	}
	return result, nil
}
