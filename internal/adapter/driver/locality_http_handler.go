package driver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alorle/censo-escolar/internal/application"
	"github.com/alorle/censo-escolar/internal/locality"
)

// LocalityHTTPHandler serves the IBGE territorial division used by the
// front-end selectors.
type LocalityHTTPHandler struct {
	service *application.LocalityService
	logger  *slog.Logger
}

// NewLocalityHTTPHandler creates a new HTTP handler for localities.
func NewLocalityHTTPHandler(service *application.LocalityService, logger *slog.Logger) *LocalityHTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalityHTTPHandler{service: service, logger: logger}
}

// refResponse is a named reference to a region of any level.
type refResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"nome"`
	Acronym string `json:"sigla,omitempty"`
}

type ufResponse struct {
	ID      int         `json:"id"`
	Acronym string      `json:"sigla"`
	Name    string      `json:"nome"`
	Region  refResponse `json:"regiao"`
}

type municipalityResponse struct {
	ID          int64       `json:"id"`
	Name        string      `json:"nome"`
	Microregion refResponse `json:"microrregiao"`
	Mesoregion  refResponse `json:"mesorregiao"`
	UF          refResponse `json:"uf"`
}

func ufRef(uf locality.UF) refResponse {
	return refResponse{ID: int64(uf.ID), Name: uf.Name, Acronym: uf.Acronym}
}

// Register adds the locality routes to mux.
func (h *LocalityHTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ufs", h.handleUFs)
	mux.HandleFunc("GET /api/ufs/{sigla}/municipios", h.handleMunicipalities)
	mux.HandleFunc("GET /api/mesorregioes", h.handleMesoregions)
	mux.HandleFunc("GET /api/microrregioes", h.handleMicroregions)
}

// handleUFs handles GET /api/ufs
func (h *LocalityHTTPHandler) handleUFs(w http.ResponseWriter, r *http.Request) {
	ufs, err := h.service.ListUFs(r.Context())
	if err != nil {
		writeInternalError(w, r, h.logger, err)
		return
	}

	resp := make([]ufResponse, len(ufs))
	for i, uf := range ufs {
		resp[i] = ufResponse{
			ID:      uf.ID,
			Acronym: uf.Acronym,
			Name:    uf.Name,
			Region: refResponse{
				ID:      int64(uf.Region.ID),
				Name:    uf.Region.Name,
				Acronym: uf.Region.Acronym,
			},
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMunicipalities handles GET /api/ufs/{sigla}/municipios
func (h *LocalityHTTPHandler) handleMunicipalities(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMunicipalities(r.Context(), r.PathValue("sigla"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	resp := make([]municipalityResponse, len(items))
	for i, m := range items {
		micro := m.Microregion
		meso := micro.Mesoregion
		resp[i] = municipalityResponse{
			ID:          m.ID,
			Name:        m.Name,
			Microregion: refResponse{ID: int64(micro.ID), Name: micro.Name},
			Mesoregion:  refResponse{ID: int64(meso.ID), Name: meso.Name},
			UF:          ufRef(meso.UF),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMesoregions handles GET /api/mesorregioes
func (h *LocalityHTTPHandler) handleMesoregions(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMesoregions(r.Context(), r.URL.Query().Get("uf"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	resp := make([]refResponse, len(items))
	for i, m := range items {
		resp[i] = refResponse{ID: int64(m.ID), Name: m.Name, Acronym: m.UF.Acronym}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMicroregions handles GET /api/microrregioes
func (h *LocalityHTTPHandler) handleMicroregions(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListMicroregions(r.Context(), r.URL.Query().Get("uf"))
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	resp := make([]refResponse, len(items))
	for i, m := range items {
		resp[i] = refResponse{ID: int64(m.ID), Name: m.Name, Acronym: m.Mesoregion.UF.Acronym}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *LocalityHTTPHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, locality.ErrUFNotFound) {
		writeError(w, http.StatusNotFound, msgUFNotFound)
		return
	}
	writeInternalError(w, r, h.logger, err)
}
