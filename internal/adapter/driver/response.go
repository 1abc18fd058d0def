package driver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alorle/censo-escolar/internal/institution"
	"github.com/alorle/censo-escolar/logging"
)

// Messages returned to API clients.
const (
	msgInternalError     = "Ocorreu um erro interno no servidor."
	msgNotFound          = "Instituição não encontrada"
	msgAlreadyExists     = "Uma instituição com este ID e ano já existe."
	msgValidation        = "Erro de validação"
	msgUFRequired        = "O parâmetro 'uf' é obrigatório."
	msgPagingNotInteger  = "Os parâmetros page e per_page devem ser números inteiros."
	msgPagingNotPositive = "Os parâmetros page e per_page devem ser maiores que zero."
	msgPerPageTooLarge   = "O parâmetro per_page não pode ser maior que 500."
	msgYearNotInteger    = "O parâmetro 'ano' deve ser um número inteiro."
	msgKeyNotInteger     = "Os parâmetros id e ano devem ser números inteiros."
	msgInvalidJSON       = "O corpo da requisição deve ser um objeto JSON válido."
	msgUFNotFound        = "UF não encontrada"
	msgGeoUnavailable    = "Não foi possível obter o mapa dos estados."
	msgMethodNotAllowed  = "Método não permitido."
	msgTooManyRequests   = "Muitas requisições. Tente novamente em instantes."
)

// errorResponse represents a JSON error response.
type errorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// writeValidationError writes a 400 carrying the per-field messages.
func writeValidationError(w http.ResponseWriter, verr *institution.ValidationError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: msgValidation, Errors: verr.Fields})
}

// writeInternalError logs err with the request id and writes a generic 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", logging.RequestIDFromContext(r.Context()),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, msgInternalError)
}
