package repository

import (
	"context"
	"sort"
	"time"

	"soundpost-data/internal/domain"
)

// MemoryStatsRepository derives the daily per-label aggregate from an
// in-memory events repository, mirroring what v_daily_label_counts does
// over audio_events.
type MemoryStatsRepository struct {
	events *MemoryEventsRepository

	// Now is overridable so window tests are deterministic.
	Now func() time.Time
}

func NewMemoryStatsRepository(events *MemoryEventsRepository) *MemoryStatsRepository {
	return &MemoryStatsRepository{events: events, Now: time.Now}
}

var _ StatsRepository = (*MemoryStatsRepository)(nil)

func dayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r *MemoryStatsRepository) DailyCounts(_ context.Context, window StatsWindow) ([]*domain.DailyCount, error) {
	var from, to time.Time
	if window.From != nil && window.To != nil {
		from, to = dayUTC(*window.From), dayUTC(*window.To)
	} else {
		today := dayUTC(r.Now())
		from, to = today.AddDate(0, 0, -window.Days), today
	}

	counts := map[time.Time]int64{}
	r.events.mu.RLock()
	for i := range r.events.events {
		e := &r.events.events[i]
		if window.DeviceID != "" && e.DeviceID != window.DeviceID {
			continue
		}
		day := dayUTC(e.TS)
		if day.Before(from) || day.After(to) {
			continue
		}
		counts[day]++
	}
	r.events.mu.RUnlock()

	result := make([]*domain.DailyCount, 0, len(counts))
	for day, total := range counts {
		result = append(result, &domain.DailyCount{DayUTC: day, TotalEvents: total})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DayUTC.Before(result[j].DayUTC)
	})
	return result, nil
}

func (r *MemoryStatsRepository) TopLabels(_ context.Context, deviceID string, days, limit int) ([]*domain.LabelCount, error) {
	today := dayUTC(r.Now())
	from := today.AddDate(0, 0, -days)

	counts := map[string]int64{}
	r.events.mu.RLock()
	for i := range r.events.events {
		e := &r.events.events[i]
		if deviceID != "" && e.DeviceID != deviceID {
			continue
		}
		day := dayUTC(e.TS)
		if day.Before(from) || day.After(today) {
			continue
		}
		counts[e.Label]++
	}
	r.events.mu.RUnlock()

	result := make([]*domain.LabelCount, 0, len(counts))
	for label, total := range counts {
		result = append(result, &domain.LabelCount{Label: label, TotalEvents: total})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalEvents != result[j].TotalEvents {
			return result[i].TotalEvents > result[j].TotalEvents
		}
		return result[i].Label < result[j].Label
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
