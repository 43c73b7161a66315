package httpapi

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"soundpost-data/internal/schema"
	"soundpost-data/internal/service"
)

// IngestHandler accepts device telemetry submissions.
type IngestHandler struct {
	ingest       *service.IngestService
	logger       *zap.Logger
	maxBodyBytes int64
	exposeErrors bool // true outside production: 500 bodies carry the cause
}

func NewIngestHandler(ingest *service.IngestService, logger *zap.Logger, maxBodyBytes int64, exposeErrors bool) *IngestHandler {
	return &IngestHandler{
		ingest:       ingest,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
		exposeErrors: exposeErrors,
	}
}

// Ingest handles POST /api/v1/ingests. The auth middleware has already
// attached the device identity.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	auth := AuthenticatedDeviceFrom(r.Context())
	if auth == nil {
		errorJSON(w, http.StatusUnauthorized, "Missing device authentication headers")
		return
	}

	// Read one byte past the cap so truncation is detectable instead of
	// surfacing later as a confusing JSON parse error.
	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodyBytes+1))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if int64(len(body)) > h.maxBodyBytes {
		errorJSON(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}

	result, err := h.ingest.Ingest(r.Context(), auth, body)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrIdentityMismatch):
			errorJSON(w, http.StatusForbidden, "Authenticated device id mismatch")
		case errors.As(err, &verr):
			errorJSONDetails(w, http.StatusBadRequest, verr.Message, verr.Details)
		default:
			h.logger.Error("ingest persistence failed",
				zap.String("device_id", auth.DeviceID),
				zap.Error(err))
			if h.exposeErrors {
				errorJSONDetails(w, http.StatusInternalServerError, "Internal server error", err.Error())
			} else {
				errorJSON(w, http.StatusInternalServerError, "Internal server error")
			}
		}
		return
	}

	// Response shapes intentionally differ per kind; existing device
	// firmware depends on both.
	if result.Kind == schema.KindError {
		writeJSON(w, http.StatusCreated, map[string]any{
			"status": "ok",
			"type":   "error",
			"id":     result.ID,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": result.ID})
}
