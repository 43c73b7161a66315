package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"soundpost-data/internal/repository"
)

// recentErrorsLimit matches the dashboard's error panel size.
const recentErrorsLimit = 6

// ErrorsHandler serves the per-device fault report listing.
type ErrorsHandler struct {
	errors repository.ErrorsRepository
	logger *zap.Logger
}

func NewErrorsHandler(errs repository.ErrorsRepository, logger *zap.Logger) *ErrorsHandler {
	return &ErrorsHandler{errors: errs, logger: logger}
}

// ListErrors handles GET /api/v1/errors?selectedDevice=<id>. Zero rows
// is a 404, mirroring the device listing contract.
func (h *ErrorsHandler) ListErrors(w http.ResponseWriter, r *http.Request) {
	selectedDevice := r.URL.Query().Get("selectedDevice")
	if selectedDevice == "" {
		errorJSON(w, http.StatusBadRequest, "Missing required query parameter: selectedDevice")
		return
	}

	rows, err := h.errors.ListRecentErrors(r.Context(), selectedDevice, recentErrorsLimit)
	if err != nil {
		h.logger.Error("list device errors failed", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if len(rows) == 0 {
		errorJSON(w, http.StatusNotFound, "No device errors found")
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToJSON())
	}
	writeJSON(w, http.StatusOK, out)
}
