package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"soundpost-data/internal/domain"
)

// PostgresEventsRepository persists audio events.
type PostgresEventsRepository struct {
	db *sql.DB
}

func NewPostgresEventsRepository(db *sql.DB) *PostgresEventsRepository {
	return &PostgresEventsRepository{db: db}
}

var _ EventsRepository = (*PostgresEventsRepository)(nil)

func (r *PostgresEventsRepository) InsertEvent(ctx context.Context, event *domain.AudioEvent) (int64, error) {
	altLabels := event.AltLabels
	if altLabels == nil {
		altLabels = []string{}
	}
	altJSON, err := json.Marshal(altLabels)
	if err != nil {
		return 0, fmt.Errorf("failed to encode alt_labels: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO audio_events (
			device_id, ts, label, confidence, alt_labels,
			duration_ms, sample_rate, rms_energy, peak_amplitude, clipping, snr_db,
			mfcc_summary, device_meta, proc_stats, raw_payload
		)
		VALUES ($1, $2, $3, $4, $5::jsonb,
		        $6, $7, $8, $9, $10, $11,
		        $12::jsonb, $13::jsonb, $14::jsonb, $15::jsonb)
		RETURNING id
	`,
		event.DeviceID,
		event.TS,
		event.Label,
		event.Confidence,
		string(altJSON),
		event.DurationMS,
		event.SampleRate,
		event.RMSEnergy,
		event.PeakAmplitude,
		event.Clipping,
		event.SNRDB,
		nullJSON(event.MFCCSummary),
		nullJSON(event.DeviceMeta),
		nullJSON(event.ProcStats),
		string(event.RawPayload),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert audio event: %w", err)
	}
	return id, nil
}

// buildWhereClause assembles the AND-composed filter predicate shared by
// the page query and the total count query.
func (r *PostgresEventsRepository) buildWhereClause(filters EventFilters, args *[]interface{}, argN *int) string {
	var where []string

	if filters.DeviceID != "" {
		where = append(where, fmt.Sprintf("device_id = $%d", *argN))
		*args = append(*args, filters.DeviceID)
		*argN++
	}
	if filters.Label != "" {
		where = append(where, fmt.Sprintf("label = $%d", *argN))
		*args = append(*args, filters.Label)
		*argN++
	}
	if filters.From != nil {
		where = append(where, fmt.Sprintf("ts >= $%d", *argN))
		*args = append(*args, *filters.From)
		*argN++
	}
	if filters.To != nil {
		where = append(where, fmt.Sprintf("ts <= $%d", *argN))
		*args = append(*args, *filters.To)
		*argN++
	}

	if len(where) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(where, " AND ")
}

func (r *PostgresEventsRepository) ListEvents(ctx context.Context, filters EventFilters, limit, offset int) ([]*domain.AudioEvent, int, error) {
	args := []interface{}{}
	argN := 1
	whereClause := r.buildWhereClause(filters, &args, &argN)

	queryCount := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM audio_events
		%s
	`, whereClause)

	var total int
	if err := r.db.QueryRowContext(ctx, queryCount, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audio events: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, device_id, ts, label, confidence, duration_ms, created_at
		FROM audio_events
		%s
		ORDER BY ts DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argN, argN+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audio events: %w", err)
	}
	defer rows.Close()

	events := []*domain.AudioEvent{}
	for rows.Next() {
		e := &domain.AudioEvent{}
		var durationMS sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.TS, &e.Label, &e.Confidence, &durationMS, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan audio event: %w", err)
		}
		if durationMS.Valid {
			e.DurationMS = &durationMS.Float64
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate audio events: %w", err)
	}
	return events, total, nil
}

func (r *PostgresEventsRepository) GetEvent(ctx context.Context, id int64) (*domain.AudioEvent, error) {
	e := &domain.AudioEvent{}
	var (
		altLabels     sql.NullString
		durationMS    sql.NullFloat64
		sampleRate    sql.NullInt64
		rmsEnergy     sql.NullFloat64
		peakAmplitude sql.NullFloat64
		clipping      sql.NullBool
		snrDB         sql.NullFloat64
		mfccSummary   sql.NullString
		deviceMeta    sql.NullString
		procStats     sql.NullString
		rawPayload    sql.NullString
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, device_id, ts, label, confidence, alt_labels,
		       duration_ms, sample_rate, rms_energy, peak_amplitude, clipping, snr_db,
		       mfcc_summary, device_meta, proc_stats, raw_payload, created_at
		FROM audio_events
		WHERE id = $1
	`, id).Scan(
		&e.ID, &e.DeviceID, &e.TS, &e.Label, &e.Confidence, &altLabels,
		&durationMS, &sampleRate, &rmsEnergy, &peakAmplitude, &clipping, &snrDB,
		&mfccSummary, &deviceMeta, &procStats, &rawPayload, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audio event: %w", err)
	}

	e.AltLabels = []string{}
	if altLabels.Valid && altLabels.String != "" {
		if err := json.Unmarshal([]byte(altLabels.String), &e.AltLabels); err != nil {
			return nil, fmt.Errorf("failed to decode alt_labels: %w", err)
		}
	}
	if durationMS.Valid {
		e.DurationMS = &durationMS.Float64
	}
	if sampleRate.Valid {
		e.SampleRate = &sampleRate.Int64
	}
	if rmsEnergy.Valid {
		e.RMSEnergy = &rmsEnergy.Float64
	}
	if peakAmplitude.Valid {
		e.PeakAmplitude = &peakAmplitude.Float64
	}
	if clipping.Valid {
		e.Clipping = &clipping.Bool
	}
	if snrDB.Valid {
		e.SNRDB = &snrDB.Float64
	}
	e.MFCCSummary = scanJSON(mfccSummary)
	e.DeviceMeta = scanJSON(deviceMeta)
	e.ProcStats = scanJSON(procStats)
	e.RawPayload = scanJSON(rawPayload)

	return e, nil
}
