package api

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/leadgrid/leadgen/internal/model"
	"github.com/leadgrid/leadgen/internal/search"
)

// handleAgentChat runs one turn of the extraction-filter chat. The agent
// either finalizes a filter or asks a clarifying question.
func (s *Server) handleAgentChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string              `json:"message"`
		History []model.ChatMessage `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "invalid request body"))
		return
	}
	if req.Message == "" {
		writeError(w, eris.Wrap(search.ErrValidation, "message is required"))
		return
	}
	if s.agent == nil {
		writeError(w, eris.Wrap(search.ErrConfiguration, "agent chat"))
		return
	}

	reply, err := s.agent.Chat(r.Context(), req.Message, req.History)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
