package driver

import (
	"log/slog"
	"net/http"

	"github.com/alorle/censo-escolar/internal/application"
)

// GeoHTTPHandler serves the states GeoJSON drawn by the front-end map.
type GeoHTTPHandler struct {
	service *application.GeoService
	logger  *slog.Logger
}

// NewGeoHTTPHandler creates a new HTTP handler for map data.
func NewGeoHTTPHandler(service *application.GeoService, logger *slog.Logger) *GeoHTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeoHTTPHandler{service: service, logger: logger}
}

// Register adds the map route to mux.
func (h *GeoHTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/geo/estados", h.handleStates)
}

// handleStates handles GET /api/geo/estados
func (h *GeoHTTPHandler) handleStates(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.States(r.Context())
	if err != nil {
		h.logger.Error("states GeoJSON unavailable", "error", err)
		writeError(w, http.StatusBadGateway, msgGeoUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
