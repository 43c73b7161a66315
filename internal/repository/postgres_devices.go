package repository

import (
	"context"
	"database/sql"
	"fmt"

	"soundpost-data/internal/domain"
)

// PostgresDevicesRepository reads the devices table.
type PostgresDevicesRepository struct {
	db *sql.DB
}

func NewPostgresDevicesRepository(db *sql.DB) *PostgresDevicesRepository {
	return &PostgresDevicesRepository{db: db}
}

var _ DevicesRepository = (*PostgresDevicesRepository)(nil)

func (r *PostgresDevicesRepository) ListDevices(ctx context.Context) ([]*domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT device_id, name, timezone, credential_digest, created_at
		FROM devices
		ORDER BY device_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	devices := []*domain.Device{}
	for rows.Next() {
		d := &domain.Device{}
		if err := rows.Scan(&d.DeviceID, &d.Name, &d.Timezone, &d.CredentialDigest, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate devices: %w", err)
	}
	return devices, nil
}

func (r *PostgresDevicesRepository) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	d := &domain.Device{}
	err := r.db.QueryRowContext(ctx, `
		SELECT device_id, name, timezone, credential_digest, created_at
		FROM devices
		WHERE device_id = $1
	`, deviceID).Scan(&d.DeviceID, &d.Name, &d.Timezone, &d.CredentialDigest, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return d, nil
}

func (r *PostgresDevicesRepository) CreateDevice(ctx context.Context, device *domain.Device) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (device_id, name, timezone, credential_digest)
		VALUES ($1, $2, $3, $4)
	`, device.DeviceID, device.Name, device.Timezone, device.CredentialDigest)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}
