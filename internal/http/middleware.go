package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"soundpost-data/internal/domain"
	"soundpost-data/internal/service"
)

type contextKey string

const authedDeviceKey contextKey = "authenticatedDevice"

// AuthenticatedDeviceFrom returns the identity the auth middleware
// attached, or nil when the request never passed through it.
func AuthenticatedDeviceFrom(ctx context.Context) *domain.AuthenticatedDevice {
	d, _ := ctx.Value(authedDeviceKey).(*domain.AuthenticatedDevice)
	return d
}

// DeviceAuth verifies the X-Device-Id / X-Device-Key header pair before
// any business payload is parsed. All three failure modes share the 401
// status; the body message differs.
func DeviceAuth(ingest *service.IngestService, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			deviceID := r.Header.Get("X-Device-Id")
			deviceKey := r.Header.Get("X-Device-Key")

			auth, err := ingest.Authenticate(r.Context(), deviceID, deviceKey)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrMissingCredentials):
					errorJSON(w, http.StatusUnauthorized, "Missing device authentication headers")
				case errors.Is(err, service.ErrUnknownDevice):
					errorJSON(w, http.StatusUnauthorized, "Unknown device")
				case errors.Is(err, service.ErrInvalidSecret):
					errorJSON(w, http.StatusUnauthorized, "Invalid device key")
				default:
					logger.Error("device auth failed", zap.Error(err))
					errorJSON(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), authedDeviceKey, auth)
			next(w, r.WithContext(ctx))
		}
	}
}

// statusRecorder captures the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLog tags every request with an id and logs method, path,
// status and duration.
func RequestLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
