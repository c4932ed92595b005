package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/luisvx/inboxcode/internal/query"
	"github.com/luisvx/inboxcode/pkg/models"
)

type searchRequest struct {
	Email  string `json:"email" validate:"required,email"`
	PIN    string `json:"pin" validate:"omitempty,numeric,len=4"`
	Intent string `json:"intent" validate:"omitempty,oneof=raw digest code confirm-home temp-code reset-device"`
}

type searchResponse struct {
	Fragment string `json:"fragment"`
	Kind     string `json:"kind"`
	Subject  string `json:"subject"`
}

// handleSearch runs one query against the shared mailbox and returns the
// extracted fragment of the newest matching message.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Debes enviar un correo válido.")
		return
	}
	// Callers paste addresses; trim before validating
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Debes enviar un correo válido.")
		return
	}

	intent, err := models.ParseIntent(req.Intent)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "Intención de búsqueda desconocida.")
		return
	}

	result, err := s.orchestrator.Query(r.Context(), query.Request{
		Recipient: req.Email,
		PIN:       req.PIN,
		Intent:    intent,
	})
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Fragment: result.Fragment,
		Kind:     result.Kind.String(),
		Subject:  result.Subject,
	})
}
