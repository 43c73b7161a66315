package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"soundpost-data/internal/repository"
)

// DeviceHandler serves the dashboard's device listing.
type DeviceHandler struct {
	devices repository.DevicesRepository
	logger  *zap.Logger
}

func NewDeviceHandler(devices repository.DevicesRepository, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{devices: devices, logger: logger}
}

// ListDevices handles GET /api/v1/devices. Zero rows is a 404, not an
// empty list; the dashboard relies on that contract.
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.ListDevices(r.Context())
	if err != nil {
		h.logger.Error("list devices failed", zap.Error(err))
		errorJSON(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if len(devices) == 0 {
		errorJSON(w, http.StatusNotFound, "No devices found")
		return
	}

	out := make([]map[string]any, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.ToJSON())
	}
	writeJSON(w, http.StatusOK, out)
}
