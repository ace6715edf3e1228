package api

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/leadgrid/leadgen/internal/model"
	"github.com/leadgrid/leadgen/internal/search"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.sessions != nil {
		s.sessions.ClearCookie(w)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit := intParam(r.URL.Query().Get("limit"), 0)
	records, err := s.store.ListSearches(r.Context(), user.ID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []model.SearchRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(records),
		"searches": records,
	})
}

func (s *Server) handleSaveLeads(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Leads []model.BusinessRecord `json:"leads"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "invalid request body"))
		return
	}
	if len(req.Leads) == 0 {
		writeError(w, eris.Wrap(search.ErrValidation, "leads is required"))
		return
	}

	saved, err := s.store.SaveLeads(r.Context(), user.ID, req.Leads)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": saved})
}
