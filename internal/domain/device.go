package domain

import "time"

// Device is a provisioned telemetry source (devices table).
// Rows are created out-of-band by the provisioning tool; the service
// only ever reads them.
type Device struct {
	DeviceID         string    `db:"device_id"`
	Name             string    `db:"name"`
	Timezone         string    `db:"timezone"`
	CredentialDigest string    `db:"credential_digest"` // hex SHA-256 of the shared secret
	CreatedAt        time.Time `db:"created_at"`
}

// AuthenticatedDevice is the identity attached to a request after the
// credential check passes. It never carries the digest.
type AuthenticatedDevice struct {
	DeviceID string
	Name     string
	Timezone string
}

// ToJSON renders the public device summary (no credential material).
func (d *Device) ToJSON() map[string]any {
	return map[string]any{
		"device_id":  d.DeviceID,
		"name":       d.Name,
		"timezone":   d.Timezone,
		"created_at": d.CreatedAt,
	}
}
