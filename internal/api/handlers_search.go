package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/leadgrid/leadgen/internal/model"
	"github.com/leadgrid/leadgen/internal/search"
)

func (s *Server) handleStructuredSearch(w http.ResponseWriter, r *http.Request) {
	var req model.StructuredSearch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "invalid request body"))
		return
	}

	limit, user := s.searchContext(r, req.MaxResults)
	req.MaxResults = limit

	resp, err := s.search.SearchNearby(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	s.chargeSearch(r, user)
	s.recordSearch(r, req.BusinessType, "structured", resp.TotalResults)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchByAddress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	address := q.Get("address")
	businessType := q.Get("business_type")
	radius := intParam(q.Get("radius"), 0)

	limit, user := s.searchContext(r, intParam(q.Get("max_results"), 0))

	resp, err := s.search.SearchByAddress(r.Context(), address, businessType, radius, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	s.chargeSearch(r, user)
	s.recordSearch(r, address, "by_address", resp.TotalResults)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchText(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("query")

	limit, user := s.searchContext(r, intParam(q.Get("max_results"), 0))

	resp, err := s.search.SearchText(r.Context(), text, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	s.chargeSearch(r, user)
	s.recordSearch(r, text, "text", resp.TotalResults)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBusinessSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query      string `json:"query"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "invalid request body"))
		return
	}

	limit, user := s.searchContext(r, req.MaxResults)

	resp, err := s.search.SearchBusiness(r.Context(), req.Query, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	s.chargeSearch(r, user)
	s.recordSearch(r, req.Query, "natural_language", resp.TotalResults)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "invalid request body"))
		return
	}

	resp, err := s.search.ImportPayload(payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleImportUpload accepts a provider payload as an uploaded JSON file and
// answers with the converted result set as a download.
func (s *Server) handleImportUpload(w http.ResponseWriter, r *http.Request) {
	const maxUpload = 32 << 20

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "invalid multipart form"))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "file field is required"))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUpload))
	if err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "unreadable upload"))
		return
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "uploaded file is not valid JSON"))
		return
	}

	resp, err := s.search.ImportPayload(payload)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="converted_businesses.json"`)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
