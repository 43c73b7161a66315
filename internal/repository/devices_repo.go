package repository

import (
	"context"
	"errors"

	"soundpost-data/internal/domain"
)

// Sentinel lookup failures, matched with errors.Is at the call sites.
var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrEventNotFound  = errors.New("event not found")
)

// DevicesRepository reads the provisioned device registry. The service
// never mutates devices; CreateDevice exists for the provisioning tool
// and for test fixtures.
type DevicesRepository interface {
	ListDevices(ctx context.Context) ([]*domain.Device, error)

	// GetDevice returns ErrDeviceNotFound when the id is unknown.
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)

	CreateDevice(ctx context.Context, device *domain.Device) error
}
