package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"soundpost-data/internal/repository"
)

const (
	defaultListLimit   = 50
	defaultExportLimit = 1000
)

// EventHandler serves the paginated event listing, single-event lookup
// and the Excel export.
type EventHandler struct {
	events repository.EventsRepository
	logger *zap.Logger
}

func NewEventHandler(events repository.EventsRepository, logger *zap.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// parseEventFilters builds the AND-composed filter set from query
// params; any subset may be omitted.
func parseEventFilters(q url.Values) (repository.EventFilters, error) {
	filters := repository.EventFilters{
		DeviceID: q.Get("device_id"),
		Label:    q.Get("label"),
	}

	if from := q.Get("from"); from != "" {
		t, err := parseTimeParam(from)
		if err != nil {
			return filters, fmt.Errorf("invalid 'from' timestamp")
		}
		filters.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := parseTimeParam(to)
		if err != nil {
			return filters, fmt.Errorf("invalid 'to' timestamp")
		}
		filters.To = &t
	}
	return filters, nil
}

// parseTimeParam accepts RFC 3339 or a bare date.
func parseTimeParam(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}

// ListEvents handles GET /api/v1/events.
// limit deliberately has no upper bound here; the stats endpoints clamp
// theirs. Existing dashboard clients depend on the difference.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters, err := parseEventFilters(q)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := parseIntDefault(q.Get("limit"), defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := parseIntDefault(q.Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	events, total, err := h.events.ListEvents(r.Context(), filters, limit, offset)
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]map[string]any, 0, len(events))
	for _, e := range events {
		out = append(out, e.ListJSON())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": out,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetEvent handles GET /api/v1/events/{id}, returning the full row
// including the raw payload archive.
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request, idRaw string) {
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	event, err := h.events.GetEvent(r.Context(), id)
	if errors.Is(err, repository.ErrEventNotFound) {
		errorJSON(w, http.StatusNotFound, "Event not found")
		return
	}
	if err != nil {
		h.logger.Error("get event failed", zap.Int64("id", id), zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, event.ToJSON())
}

// ExportEvents handles GET /api/v1/events/export: the filtered listing
// as an .xlsx workbook.
func (h *EventHandler) ExportEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters, err := parseEventFilters(q)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := parseIntDefault(q.Get("limit"), defaultExportLimit)
	if limit <= 0 {
		limit = defaultExportLimit
	}

	events, _, err := h.events.ListEvents(r.Context(), filters, limit, 0)
	if err != nil {
		h.logger.Error("export events query failed", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	data, err := generateEventExport(events)
	if err != nil {
		h.logger.Error("export workbook generation failed", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	filename := "audio_events_" + time.Now().UTC().Format("20060102_150405") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
