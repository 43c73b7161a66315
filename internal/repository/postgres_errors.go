package repository

import (
	"context"
	"database/sql"
	"fmt"

	"soundpost-data/internal/domain"
)

// PostgresErrorsRepository persists device fault reports.
type PostgresErrorsRepository struct {
	db *sql.DB
}

func NewPostgresErrorsRepository(db *sql.DB) *PostgresErrorsRepository {
	return &PostgresErrorsRepository{db: db}
}

var _ ErrorsRepository = (*PostgresErrorsRepository)(nil)

func (r *PostgresErrorsRepository) InsertError(ctx context.Context, devErr *domain.DeviceError) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO device_errors (device_id, ts, code, severity, description, count, first_occurrence, raw_payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
		RETURNING id
	`,
		devErr.DeviceID,
		devErr.TS,
		devErr.Code,
		devErr.Severity,
		devErr.Description,
		devErr.Count,
		devErr.FirstOccurrence,
		string(devErr.RawPayload),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert device error: %w", err)
	}
	return id, nil
}

func (r *PostgresErrorsRepository) ListRecentErrors(ctx context.Context, deviceID string, limit int) ([]*domain.DeviceError, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, device_id, ts, code, severity, description, count, first_occurrence, raw_payload, created_at
		FROM device_errors
		WHERE device_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list device errors: %w", err)
	}
	defer rows.Close()

	result := []*domain.DeviceError{}
	for rows.Next() {
		e := &domain.DeviceError{}
		var (
			description sql.NullString
			count       sql.NullInt64
			firstOcc    sql.NullTime
			rawPayload  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.TS, &e.Code, &e.Severity,
			&description, &count, &firstOcc, &rawPayload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device error: %w", err)
		}
		if description.Valid {
			e.Description = &description.String
		}
		if count.Valid {
			e.Count = &count.Int64
		}
		if firstOcc.Valid {
			e.FirstOccurrence = &firstOcc.Time
		}
		e.RawPayload = scanJSON(rawPayload)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate device errors: %w", err)
	}
	return result, nil
}
