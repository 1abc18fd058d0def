package driver

import (
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/alorle/censo-escolar/internal/application"
)

// StatsHTTPHandler serves per-state aggregates of the census records.
type StatsHTTPHandler struct {
	service *application.InstitutionService
	logger  *slog.Logger
}

// NewStatsHTTPHandler creates a new HTTP handler for statistics.
func NewStatsHTTPHandler(service *application.InstitutionService, logger *slog.Logger) *StatsHTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHTTPHandler{service: service, logger: logger}
}

type ufStatsResponse struct {
	UF                   string `json:"uf"`
	Institutions         int    `json:"instituicoes"`
	BasicEnrollment      int64  `json:"qt_mat_bas"`
	InfantEnrollment     int64  `json:"qt_mat_inf"`
	ElementaryEnrollment int64  `json:"qt_mat_fund"`
}

// Register adds the statistics route to mux.
func (h *StatsHTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/estatisticas", h.handleStats)
}

// handleStats handles GET /api/estatisticas
func (h *StatsHTTPHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	var year *int
	if err := runtime.BindQueryParameter("form", true, false, "ano", r.URL.Query(), &year); err != nil {
		writeError(w, http.StatusBadRequest, msgYearNotInteger)
		return
	}

	y := 0
	if year != nil {
		y = *year
	}
	stats, err := h.service.Stats(r.Context(), y)
	if err != nil {
		writeInternalError(w, r, h.logger, err)
		return
	}

	resp := make([]ufStatsResponse, len(stats))
	for i, s := range stats {
		resp[i] = ufStatsResponse{
			UF:                   s.UF,
			Institutions:         s.Institutions,
			BasicEnrollment:      s.BasicEnrollment,
			InfantEnrollment:     s.InfantEnrollment,
			ElementaryEnrollment: s.ElementaryEnrollment,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
