package repository

import (
	"context"

	"soundpost-data/internal/domain"
)

// ErrorsRepository persists and reads device fault reports.
type ErrorsRepository interface {
	// InsertError writes exactly one row and returns its assigned id.
	InsertError(ctx context.Context, devErr *domain.DeviceError) (int64, error)

	// ListRecentErrors returns the newest rows for one device, newest
	// first (dashboard error panel).
	ListRecentErrors(ctx context.Context, deviceID string, limit int) ([]*domain.DeviceError, error)
}
