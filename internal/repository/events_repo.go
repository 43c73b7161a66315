package repository

import (
	"context"
	"time"

	"soundpost-data/internal/domain"
)

// EventFilters are AND-composed; zero values mean "no filter".
type EventFilters struct {
	DeviceID string
	Label    string
	From     *time.Time // inclusive
	To       *time.Time // inclusive
}

// EventsRepository persists and reads audio classification events.
type EventsRepository interface {
	// InsertEvent writes exactly one row and returns its assigned id.
	InsertEvent(ctx context.Context, event *domain.AudioEvent) (int64, error)

	// ListEvents returns one page ordered by ts descending, plus the
	// total count for the same filters without pagination. List rows
	// carry only the summary columns (id, device_id, ts, label,
	// confidence, duration_ms, created_at).
	ListEvents(ctx context.Context, filters EventFilters, limit, offset int) ([]*domain.AudioEvent, int, error)

	// GetEvent returns the full row including the raw payload archive,
	// or ErrEventNotFound.
	GetEvent(ctx context.Context, id int64) (*domain.AudioEvent, error)
}
