package repository

import (
	"context"
	"sort"
	"sync"

	"soundpost-data/internal/domain"
)

// MemoryDevicesRepository backs tests and local runs without Postgres.
type MemoryDevicesRepository struct {
	mu      sync.RWMutex
	devices map[string]domain.Device
}

func NewMemoryDevicesRepository() *MemoryDevicesRepository {
	return &MemoryDevicesRepository{devices: map[string]domain.Device{}}
}

var _ DevicesRepository = (*MemoryDevicesRepository)(nil)

func (r *MemoryDevicesRepository) ListDevices(_ context.Context) ([]*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Device, 0, len(r.devices))
	for _, d := range r.devices {
		d := d
		all = append(all, &d)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].DeviceID < all[j].DeviceID
	})
	return all, nil
}

func (r *MemoryDevicesRepository) GetDevice(_ context.Context, deviceID string) (*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[deviceID]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return &d, nil
}

func (r *MemoryDevicesRepository) CreateDevice(_ context.Context, device *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices[device.DeviceID] = *device
	return nil
}
