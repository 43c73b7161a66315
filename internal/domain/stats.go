package domain

import "time"

// DailyCount is one row of the daily aggregate consumed by the dashboard
// bar chart. DayUTC is a calendar date (time component zero).
type DailyCount struct {
	DayUTC      time.Time `db:"day_utc"`
	TotalEvents int64     `db:"total_events"`
}

// ToJSON keeps the wire field names the dashboard expects.
func (c *DailyCount) ToJSON() map[string]any {
	return map[string]any{
		"day_utc":      c.DayUTC.Format("2006-01-02"),
		"total_events": c.TotalEvents,
	}
}

// LabelCount is one row of the top-labels aggregate.
type LabelCount struct {
	Label       string `db:"label"`
	TotalEvents int64  `db:"total_events"`
}

func (c *LabelCount) ToJSON() map[string]any {
	return map[string]any{
		"label":        c.Label,
		"total_events": c.TotalEvents,
	}
}
