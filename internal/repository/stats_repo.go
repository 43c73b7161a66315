package repository

import (
	"context"
	"time"

	"soundpost-data/internal/domain"
)

// StatsWindow selects the aggregation range. When From and To are both
// set they win; otherwise Days is a trailing window ending today.
// Callers clamp Days before building the window.
type StatsWindow struct {
	DeviceID string // optional
	From     *time.Time
	To       *time.Time
	Days     int
}

// StatsRepository reads the daily per-label aggregate
// (v_daily_label_counts) the dashboard charts consume.
type StatsRepository interface {
	// DailyCounts sums events per day inside the window, ascending by day.
	DailyCounts(ctx context.Context, window StatsWindow) ([]*domain.DailyCount, error)

	// TopLabels sums events per label over a trailing days window,
	// descending by total, truncated to limit.
	TopLabels(ctx context.Context, deviceID string, days, limit int) ([]*domain.LabelCount, error)
}
