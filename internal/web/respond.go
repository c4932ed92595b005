package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/luisvx/inboxcode/internal/database"
	"github.com/luisvx/inboxcode/internal/query"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// writeQueryError maps the query taxonomy to short, non-technical messages.
// Transport detail never reaches the caller.
func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, query.ErrEmptyRecipient):
		writeError(w, http.StatusBadRequest, "invalid_input", "Debes enviar un correo válido.")
	case errors.Is(err, query.ErrAccountNotFound), errors.Is(err, query.ErrOwnerMissing):
		writeError(w, http.StatusNotFound, "account_not_found", "No se encontró ninguna cuenta con ese correo.")
	case errors.Is(err, query.ErrInvalidPIN):
		writeError(w, http.StatusForbidden, "invalid_pin", "PIN incorrecto.")
	case errors.Is(err, query.ErrNoActiveFilters):
		writeError(w, http.StatusUnprocessableEntity, "no_active_filters", "Esta cuenta no tiene filtros activos.")
	case errors.Is(err, query.ErrNoMatch):
		writeError(w, http.StatusNotFound, "no_match", "No se encontró ningún correo filtrado para este correo.")
	case errors.Is(err, query.ErrNoHeadline):
		writeError(w, http.StatusNotFound, "no_headline", "El correo encontrado no tiene encabezado.")
	case errors.Is(err, query.ErrFragmentNotFound):
		writeError(w, http.StatusNotFound, "fragment_not_found", "No se encontró el contenido solicitado en el correo.")
	case errors.Is(err, query.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "timeout", "La búsqueda tardó demasiado. Intenta de nuevo.")
	case errors.Is(err, query.ErrTransport):
		writeError(w, http.StatusServiceUnavailable, "mailbox_unavailable", "Servicio no disponible. Intenta de nuevo.")
	default:
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Ocurrió un error. Intenta de nuevo.")
	}
}

// writeStoreError maps repository errors for the operator endpoints
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "No se encontró el registro.")
	case errors.Is(err, database.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", "El registro ya existe.")
	default:
		s.logger.Error("store operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Ocurrió un error. Intenta de nuevo.")
	}
}
