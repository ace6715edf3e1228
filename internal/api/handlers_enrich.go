package api

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/leadgrid/leadgen/internal/model"
	"github.com/leadgrid/leadgen/internal/search"
)

const maxBatchSize = 50

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req model.EnrichmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "invalid request body"))
		return
	}
	if req.Name == "" || req.Website == "" {
		writeError(w, eris.Wrap(search.ErrValidation, "name and website are required"))
		return
	}

	writeJSON(w, http.StatusOK, s.enrich.Enrich(r.Context(), req))
}

func (s *Server) handleBatchEnrich(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Businesses []model.EnrichmentRequest `json:"businesses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "invalid request body"))
		return
	}
	if len(req.Businesses) == 0 {
		writeError(w, eris.Wrap(search.ErrValidation, "businesses is required"))
		return
	}
	if len(req.Businesses) > maxBatchSize {
		writeError(w, eris.Wrapf(search.ErrValidation, "batch size exceeds %d", maxBatchSize))
		return
	}

	writeJSON(w, http.StatusOK, s.enrich.EnrichBatch(r.Context(), req.Businesses))
}

func (s *Server) handleEnrichmentHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "contact-enrichment",
	})
}
