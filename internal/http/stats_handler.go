package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"soundpost-data/internal/repository"
)

const (
	defaultStatsDays  = 7
	maxStatsDays      = 365
	defaultTopLabels  = 5
	maxTopLabelsLimit = 50
)

// StatsHandler serves the dashboard aggregates over the daily per-label
// counts view.
type StatsHandler struct {
	stats  repository.StatsRepository
	logger *zap.Logger
}

func NewStatsHandler(stats repository.StatsRepository, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// Daily handles GET /api/v1/stats/daily. An explicit from/to date range
// wins; otherwise a trailing days window clamped to [1,365], default 7.
func (h *StatsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	window := repository.StatsWindow{
		DeviceID: q.Get("device_id"),
		Days:     clampInt(parseIntDefault(q.Get("days"), defaultStatsDays), 1, maxStatsDays),
	}

	from, to := q.Get("from"), q.Get("to")
	if from != "" && to != "" {
		fromT, err := parseTimeParam(from)
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid 'from' date")
			return
		}
		toT, err := parseTimeParam(to)
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid 'to' date")
			return
		}
		window.From = &fromT
		window.To = &toT
	}

	rows, err := h.stats.DailyCounts(r.Context(), window)
	if err != nil {
		h.logger.Error("daily stats failed", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToJSON())
	}
	writeJSON(w, http.StatusOK, out)
}

// TopLabels handles GET /api/v1/stats/top-labels. Both days and limit
// are clamped, unlike the event listing.
func (h *StatsHandler) TopLabels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	deviceID := q.Get("device_id")
	days := clampInt(parseIntDefault(q.Get("days"), defaultStatsDays), 1, maxStatsDays)
	limit := clampInt(parseIntDefault(q.Get("limit"), defaultTopLabels), 1, maxTopLabelsLimit)

	rows, err := h.stats.TopLabels(r.Context(), deviceID, days, limit)
	if err != nil {
		h.logger.Error("top labels failed", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToJSON())
	}
	writeJSON(w, http.StatusOK, out)
}
