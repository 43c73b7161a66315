package domain

import (
	"encoding/json"
	"time"
)

// DeviceError is one accepted fault report (device_errors table).
// Rows are immutable once written.
type DeviceError struct {
	ID       int64     `db:"id"` // BIGSERIAL
	DeviceID string    `db:"device_id"`
	TS       time.Time `db:"ts"`

	Code     string `db:"code"`
	Severity string `db:"severity"`

	// Optional fields stay nil when the payload omits them; "unknown"
	// is never coerced to zero or empty-string.
	Description     *string    `db:"description"`
	Count           *int64     `db:"count"`
	FirstOccurrence *time.Time `db:"first_occurrence"`

	RawPayload json.RawMessage `db:"raw_payload"`

	CreatedAt time.Time `db:"created_at"`
}

// ToJSON renders the full row, raw payload included.
func (e *DeviceError) ToJSON() map[string]any {
	return map[string]any{
		"id":               e.ID,
		"device_id":        e.DeviceID,
		"ts":               e.TS,
		"code":             e.Code,
		"severity":         e.Severity,
		"description":      e.Description,
		"count":            e.Count,
		"first_occurrence": e.FirstOccurrence,
		"raw_payload":      rawOrNil(e.RawPayload),
		"created_at":       e.CreatedAt,
	}
}
