package driver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/alorle/censo-escolar/internal/application"
	"github.com/alorle/censo-escolar/internal/institution"
)

// InstitutionHTTPHandler handles HTTP requests for census record management.
type InstitutionHTTPHandler struct {
	service *application.InstitutionService
	logger  *slog.Logger
}

// NewInstitutionHTTPHandler creates a new HTTP handler for institutions.
func NewInstitutionHTTPHandler(service *application.InstitutionService, logger *slog.Logger) *InstitutionHTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InstitutionHTTPHandler{service: service, logger: logger}
}

// institutionResponse represents a record in JSON format.
type institutionResponse struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"nome"`
	Municipality         string `json:"municipio"`
	UFCode               int    `json:"uf_codigo"`
	UFName               string `json:"uf_nome"`
	UFAcronym            string `json:"uf_sigla"`
	InfantEnrollment     *int   `json:"qt_mat_inf"`
	ElementaryEnrollment *int   `json:"qt_mat_fund"`
	Year                 int    `json:"ano"`
}

// paginationResponse carries the listing metadata.
type paginationResponse struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// pageResponse represents one page of a listing.
type pageResponse struct {
	Items      []institutionResponse `json:"items"`
	Pagination paginationResponse    `json:"pagination"`
}

// toInstitutionResponse converts a record to its API shape.
func toInstitutionResponse(inst institution.Institution) institutionResponse {
	return institutionResponse{
		ID:                   inst.ID,
		Name:                 inst.Name,
		Municipality:         inst.MunicipalityName,
		UFCode:               inst.UFCode,
		UFName:               inst.UFName,
		UFAcronym:            inst.UFAcronym,
		InfantEnrollment:     inst.Enrollment.Infant,
		ElementaryEnrollment: inst.Enrollment.Elementary,
		Year:                 inst.Year,
	}
}

// Register adds the institution routes to mux.
func (h *InstitutionHTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/instituicoes", h.handleList)
	mux.HandleFunc("POST /api/instituicoes", h.handleCreate)
	mux.HandleFunc("GET /api/instituicoes/{id}/{ano}", h.handleGet)
	mux.HandleFunc("PUT /api/instituicoes/{id}/{ano}", h.handleUpdate)
	mux.HandleFunc("DELETE /api/instituicoes/{id}/{ano}", h.handleDelete)
}

// handleList handles GET /api/instituicoes
func (h *InstitutionHTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := institution.ListQuery{
		UF:     query.Get("uf"),
		Search: query.Get("q"),
	}

	var page, perPage *int
	if runtime.BindQueryParameter("form", true, false, "page", query, &page) != nil ||
		runtime.BindQueryParameter("form", true, false, "per_page", query, &perPage) != nil {
		writeError(w, http.StatusBadRequest, msgPagingNotInteger)
		return
	}
	if page != nil {
		q.Page = *page
		if q.Page == 0 {
			q.Page = -1
		}
	}
	if perPage != nil {
		q.PerPage = *perPage
		if q.PerPage == 0 {
			q.PerPage = -1
		}
	}

	var year *int
	if err := runtime.BindQueryParameter("form", true, false, "ano", query, &year); err != nil {
		writeError(w, http.StatusBadRequest, msgYearNotInteger)
		return
	}
	if year != nil {
		q.Year = *year
	}

	result, err := h.service.List(r.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, institution.ErrUFRequired):
			writeError(w, http.StatusBadRequest, msgUFRequired)
		case errors.Is(err, institution.ErrInvalidPaging):
			writeError(w, http.StatusBadRequest, msgPagingNotPositive)
		case errors.Is(err, institution.ErrPerPageTooLarge):
			writeError(w, http.StatusBadRequest, msgPerPageTooLarge)
		default:
			writeInternalError(w, r, h.logger, err)
		}
		return
	}

	resp := pageResponse{
		Items: make([]institutionResponse, len(result.Items)),
		Pagination: paginationResponse{
			Page:       result.Page,
			PerPage:    result.PerPage,
			TotalItems: result.TotalItems,
			TotalPages: result.TotalPages,
		},
	}
	for i, inst := range result.Items {
		resp.Items[i] = toInstitutionResponse(inst)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCreate handles POST /api/instituicoes
func (h *InstitutionHTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	patch, ok := h.decodeBody(w, r, false)
	if !ok {
		return
	}

	inst, err := h.service.Create(r.Context(), patch)
	if err != nil {
		h.writeWriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstitutionResponse(inst))
}

// handleGet handles GET /api/instituicoes/{id}/{ano}
func (h *InstitutionHTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	key, ok := bindKey(w, r)
	if !ok {
		return
	}

	inst, err := h.service.Get(r.Context(), key)
	if err != nil {
		h.writeWriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionResponse(inst))
}

// handleUpdate handles PUT /api/instituicoes/{id}/{ano}
func (h *InstitutionHTTPHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	key, ok := bindKey(w, r)
	if !ok {
		return
	}

	// A missing record is reported before the body is looked at.
	if _, err := h.service.Get(r.Context(), key); err != nil {
		h.writeWriteError(w, r, err)
		return
	}

	patch, ok := h.decodeBody(w, r, true)
	if !ok {
		return
	}

	inst, err := h.service.Update(r.Context(), key, patch)
	if err != nil {
		h.writeWriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toInstitutionResponse(inst))
}

// handleDelete handles DELETE /api/instituicoes/{id}/{ano}
func (h *InstitutionHTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, ok := bindKey(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), key); err != nil {
		h.writeWriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody decodes a create (partial false) or update payload, writing the
// 400 itself.
func (h *InstitutionHTTPHandler) decodeBody(w http.ResponseWriter, r *http.Request, partial bool) (institution.Patch, bool) {
	patch, err := decodePatch(r.Body, partial)
	if err == nil {
		return patch, true
	}

	var verr *institution.ValidationError
	if errors.As(err, &verr) {
		writeValidationError(w, verr)
	} else {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
	}
	return institution.Patch{}, false
}

// writeWriteError maps service errors to HTTP responses.
func (h *InstitutionHTTPHandler) writeWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *institution.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.Is(err, institution.ErrInstitutionNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, institution.ErrInstitutionAlreadyExists):
		writeError(w, http.StatusConflict, msgAlreadyExists)
	default:
		writeInternalError(w, r, h.logger, err)
	}
}

// bindKey reads the {id}/{ano} path parameters.
func bindKey(w http.ResponseWriter, r *http.Request) (institution.Key, bool) {
	var key institution.Key
	opts := runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	}
	if runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &key.ID, opts) != nil ||
		runtime.BindStyledParameterWithOptions("simple", "ano", r.PathValue("ano"), &key.Year, opts) != nil {
		writeError(w, http.StatusBadRequest, msgKeyNotInteger)
		return institution.Key{}, false
	}
	return key, true
}
