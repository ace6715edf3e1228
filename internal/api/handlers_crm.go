package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/search"
	"github.com/leadgrid/leadgen/pkg/crm"
)

type leadRequest struct {
	Email        string   `json:"email"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Name         string   `json:"name"`
	Phone        string   `json:"phone"`
	Company      string   `json:"company"`
	Website      string   `json:"website"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	State        string   `json:"state"`
	Country      string   `json:"country"`
	PostalCode   string   `json:"postal_code"`
	BusinessType string   `json:"business_type"`
	Rating       *float64 `json:"rating"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

func (lr leadRequest) lead() crm.Lead {
	return crm.Lead{
		Email:        lr.Email,
		FirstName:    lr.FirstName,
		LastName:     lr.LastName,
		Name:         lr.Name,
		Phone:        lr.Phone,
		Company:      lr.Company,
		Website:      lr.Website,
		Address:      lr.Address,
		City:         lr.City,
		State:        lr.State,
		Country:      lr.Country,
		PostalCode:   lr.PostalCode,
		BusinessType: lr.BusinessType,
		Rating:       lr.Rating,
		Latitude:     lr.Latitude,
		Longitude:    lr.Longitude,
	}
}

func (s *Server) connector(r *http.Request) (crm.Connector, error) {
	name := chi.URLParam(r, "connector")
	conn, ok := s.connectors[name]
	if !ok {
		return nil, eris.Wrapf(search.ErrConfiguration, "crm connector %q not configured", name)
	}
	return conn, nil
}

func (s *Server) handleCRMVerify(w http.ResponseWriter, r *http.Request) {
	conn, err := s.connector(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := conn.VerifyConnection(r.Context()); err != nil {
		writeError(w, eris.Wrap(search.ErrUpstreamProvider, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "connected",
		"connector": conn.Name(),
	})
}

// handleCRMLeads upserts a batch of leads. A lead that the CRM rejects is
// reported in the per-lead results; it does not abort the batch.
func (s *Server) handleCRMLeads(w http.ResponseWriter, r *http.Request) {
	conn, err := s.connector(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Leads []leadRequest `json:"leads"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "invalid request body"))
		return
	}
	if len(req.Leads) == 0 {
		writeError(w, eris.Wrap(search.ErrValidation, "leads is required"))
		return
	}

	type leadResult struct {
		Email string `json:"email,omitempty"`
		Name  string `json:"name,omitempty"`
		ID    string `json:"id,omitempty"`
		Error string `json:"error,omitempty"`
	}

	results := make([]leadResult, 0, len(req.Leads))
	var pushed int
	for _, lr := range req.Leads {
		res := leadResult{Email: lr.Email, Name: lr.Name}
		id, err := conn.UpsertLead(r.Context(), lr.lead())
		if err != nil {
			zap.L().Warn("api: crm upsert failed",
				zap.String("connector", conn.Name()),
				zap.String("email", lr.Email),
				zap.Error(err),
			)
			res.Error = err.Error()
		} else {
			res.ID = id
			pushed++
		}
		results = append(results, res)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"connector": conn.Name(),
		"total":     len(req.Leads),
		"pushed":    pushed,
		"failed":    len(req.Leads) - pushed,
		"results":   results,
	})
}

func (s *Server) handleCRMDeal(w http.ResponseWriter, r *http.Request) {
	conn, err := s.connector(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Stage       string `json:"stage"`
		Amount      string `json:"amount"`
		Description string `json:"description"`
		ContactID   string `json:"contact_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, eris.Wrap(search.ErrValidation, "invalid request body"))
		return
	}
	if req.Name == "" {
		writeError(w, eris.Wrap(search.ErrValidation, "name is required"))
		return
	}

	id, err := conn.CreateDeal(r.Context(), crm.Deal{
		Name:        req.Name,
		Stage:       req.Stage,
		Amount:      req.Amount,
		Description: req.Description,
		ContactID:   req.ContactID,
	})
	if err != nil {
		writeError(w, eris.Wrap(search.ErrUpstreamProvider, err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"connector": conn.Name(),
		"id":        id,
	})
}
