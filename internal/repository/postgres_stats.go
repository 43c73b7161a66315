package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"soundpost-data/internal/domain"
)

// PostgresStatsRepository reads the v_daily_label_counts aggregate view.
type PostgresStatsRepository struct {
	db *sql.DB
}

func NewPostgresStatsRepository(db *sql.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

var _ StatsRepository = (*PostgresStatsRepository)(nil)

func (r *PostgresStatsRepository) DailyCounts(ctx context.Context, window StatsWindow) ([]*domain.DailyCount, error) {
	args := []interface{}{}
	argN := 1
	var where []string

	if window.DeviceID != "" {
		where = append(where, fmt.Sprintf("device_id = $%d", argN))
		args = append(args, window.DeviceID)
		argN++
	}

	// Explicit date range wins over the trailing window.
	if window.From != nil && window.To != nil {
		where = append(where, fmt.Sprintf("day_utc >= $%d::date", argN))
		args = append(args, *window.From)
		argN++
		where = append(where, fmt.Sprintf("day_utc <= $%d::date", argN))
		args = append(args, *window.To)
		argN++
	} else {
		where = append(where, fmt.Sprintf("day_utc >= CURRENT_DATE - $%d::int", argN))
		args = append(args, window.Days)
		argN++
	}

	query := fmt.Sprintf(`
		SELECT day_utc, SUM(events)::bigint AS total_events
		FROM v_daily_label_counts
		WHERE %s
		GROUP BY day_utc
		ORDER BY day_utc ASC
	`, strings.Join(where, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	result := []*domain.DailyCount{}
	for rows.Next() {
		c := &domain.DailyCount{}
		if err := rows.Scan(&c.DayUTC, &c.TotalEvents); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily counts: %w", err)
	}
	return result, nil
}

func (r *PostgresStatsRepository) TopLabels(ctx context.Context, deviceID string, days, limit int) ([]*domain.LabelCount, error) {
	args := []interface{}{}
	argN := 1
	var where []string

	if deviceID != "" {
		where = append(where, fmt.Sprintf("device_id = $%d", argN))
		args = append(args, deviceID)
		argN++
	}
	where = append(where, fmt.Sprintf("day_utc >= CURRENT_DATE - $%d::int", argN))
	args = append(args, days)
	argN++

	query := fmt.Sprintf(`
		SELECT label, SUM(events)::bigint AS total_events
		FROM v_daily_label_counts
		WHERE %s
		GROUP BY label
		ORDER BY total_events DESC
		LIMIT $%d
	`, strings.Join(where, " AND "), argN)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top labels: %w", err)
	}
	defer rows.Close()

	result := []*domain.LabelCount{}
	for rows.Next() {
		c := &domain.LabelCount{}
		if err := rows.Scan(&c.Label, &c.TotalEvents); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate label counts: %w", err)
	}
	return result, nil
}
