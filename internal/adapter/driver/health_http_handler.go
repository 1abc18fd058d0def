package driver

import (
	"net/http"

	"github.com/alorle/censo-escolar/internal/application"
)

// HealthHTTPHandler reports whether storage and the listing cache respond.
type HealthHTTPHandler struct {
	service *application.HealthService
}

func NewHealthHTTPHandler(service *application.HealthService) *HealthHTTPHandler {
	return &HealthHTTPHandler{service: service}
}

type healthResponse struct {
	Status string            `json:"status"`
	DB     string            `json:"db"`
	Cache  string            `json:"cache"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Register adds the health route to mux.
func (h *HealthHTTPHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/health", h)
}

// ServeHTTP answers 200 when every probe passed and 503 otherwise, naming
// the failing components under "errors".
func (h *HealthHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	hs := h.service.Check(r.Context())
	body := healthResponse{Status: hs.Status, DB: hs.DB.Status, Cache: hs.Cache.Status}
	for name, c := range map[string]application.ComponentHealth{"db": hs.DB, "cache": hs.Cache} {
		if c.Error == "" {
			continue
		}
		if body.Errors == nil {
			body.Errors = make(map[string]string)
		}
		body.Errors[name] = c.Error
	}

	code := http.StatusOK
	if hs.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, body)
}
