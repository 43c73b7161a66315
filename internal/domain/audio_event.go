package domain

import (
	"encoding/json"
	"time"
)

// AudioEvent is one accepted sound-classification report (audio_events table).
// Rows are immutable once written.
type AudioEvent struct {
	ID       int64     `db:"id"` // BIGSERIAL
	DeviceID string    `db:"device_id"`
	TS       time.Time `db:"ts"` // device-supplied, may differ from created_at

	// Classification
	Label      string   `db:"label"`
	Confidence float64  `db:"confidence"` // [0,1], enforced by the payload schema
	AltLabels  []string `db:"alt_labels"` // never nil; [] when the payload omits alternatives

	// Audio metrics, each independently optional
	DurationMS    *float64 `db:"duration_ms"`
	SampleRate    *int64   `db:"sample_rate"`
	RMSEnergy     *float64 `db:"rms_energy"`
	PeakAmplitude *float64 `db:"peak_amplitude"`
	Clipping      *bool    `db:"clipping"`
	SNRDB         *float64 `db:"snr_db"`

	// Free-form blobs, nil when absent from the payload
	MFCCSummary json.RawMessage `db:"mfcc_summary"`
	DeviceMeta  json.RawMessage `db:"device_meta"`
	ProcStats   json.RawMessage `db:"proc_stats"`

	// Verbatim copy of the inbound body, the forensic source of truth
	RawPayload json.RawMessage `db:"raw_payload"`

	CreatedAt time.Time `db:"created_at"`
}

// ListJSON renders the summary columns used by the paginated listing.
func (e *AudioEvent) ListJSON() map[string]any {
	return map[string]any{
		"id":          e.ID,
		"device_id":   e.DeviceID,
		"ts":          e.TS,
		"label":       e.Label,
		"confidence":  e.Confidence,
		"duration_ms": e.DurationMS,
		"created_at":  e.CreatedAt,
	}
}

// ToJSON renders the full row, raw payload included.
func (e *AudioEvent) ToJSON() map[string]any {
	m := map[string]any{
		"id":             e.ID,
		"device_id":      e.DeviceID,
		"ts":             e.TS,
		"label":          e.Label,
		"confidence":     e.Confidence,
		"alt_labels":     e.AltLabels,
		"duration_ms":    e.DurationMS,
		"sample_rate":    e.SampleRate,
		"rms_energy":     e.RMSEnergy,
		"peak_amplitude": e.PeakAmplitude,
		"clipping":       e.Clipping,
		"snr_db":         e.SNRDB,
		"created_at":     e.CreatedAt,
	}
	m["mfcc_summary"] = rawOrNil(e.MFCCSummary)
	m["device_meta"] = rawOrNil(e.DeviceMeta)
	m["proc_stats"] = rawOrNil(e.ProcStats)
	m["raw_payload"] = rawOrNil(e.RawPayload)
	return m
}

func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
