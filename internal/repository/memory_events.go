package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"soundpost-data/internal/domain"
)

// MemoryEventsRepository backs tests and local runs without Postgres.
type MemoryEventsRepository struct {
	mu     sync.RWMutex
	nextID int64
	events []domain.AudioEvent
}

func NewMemoryEventsRepository() *MemoryEventsRepository {
	return &MemoryEventsRepository{nextID: 1}
}

var _ EventsRepository = (*MemoryEventsRepository)(nil)

func (r *MemoryEventsRepository) InsertEvent(_ context.Context, event *domain.AudioEvent) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *event
	stored.ID = r.nextID
	r.nextID++
	if stored.AltLabels == nil {
		stored.AltLabels = []string{}
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.events = append(r.events, stored)
	return stored.ID, nil
}

func matchesFilters(e *domain.AudioEvent, filters EventFilters) bool {
	if filters.DeviceID != "" && e.DeviceID != filters.DeviceID {
		return false
	}
	if filters.Label != "" && e.Label != filters.Label {
		return false
	}
	if filters.From != nil && e.TS.Before(*filters.From) {
		return false
	}
	if filters.To != nil && e.TS.After(*filters.To) {
		return false
	}
	return true
}

func (r *MemoryEventsRepository) ListEvents(_ context.Context, filters EventFilters, limit, offset int) ([]*domain.AudioEvent, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*domain.AudioEvent{}
	for i := range r.events {
		e := r.events[i]
		if matchesFilters(&e, filters) {
			matched = append(matched, &e)
		}
	}
	// ts descending, insertion order on ties
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].TS.After(matched[j].TS)
	})

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *MemoryEventsRepository) GetEvent(_ context.Context, id int64) (*domain.AudioEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.events {
		if r.events[i].ID == id {
			e := r.events[i]
			return &e, nil
		}
	}
	return nil, ErrEventNotFound
}
