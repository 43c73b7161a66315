package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router wraps the standard http.ServeMux (no third-party routing
// dependency needed for this surface).
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAPIRoutes mounts the full /api/v1 surface. authMW guards the
// ingestion endpoint only; read routes skip device auth entirely.
func (r *Router) RegisterAPIRoutes(
	ingest *IngestHandler,
	devices *DeviceHandler,
	events *EventHandler,
	stats *StatsHandler,
	errs *ErrorsHandler,
	authMW func(http.HandlerFunc) http.HandlerFunc,
) {
	// health probe, and the subtree fallback
	r.Handle("/api/v1/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/api/v1/" || req.URL.Path == "/api/v1" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	r.Handle("/api/v1/ingests", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		authMW(ingest.Ingest)(w, req)
	})

	r.Handle("/api/v1/devices", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		devices.ListDevices(w, req)
	})

	r.Handle("/api/v1/events", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		events.ListEvents(w, req)
	})

	// /api/v1/events/export and /api/v1/events/{id}
	r.Handle("/api/v1/events/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/events/")
		if rest == "" || strings.Contains(rest, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if rest == "export" {
			events.ExportEvents(w, req)
			return
		}
		events.GetEvent(w, req, rest)
	})

	r.Handle("/api/v1/stats/daily", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		stats.Daily(w, req)
	})

	r.Handle("/api/v1/stats/top-labels", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		stats.TopLabels(w, req)
	})

	r.Handle("/api/v1/errors", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		errs.ListErrors(w, req)
	})
}
