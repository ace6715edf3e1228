// Package api exposes the search, enrichment, account, and CRM surfaces
// over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/leadgrid/leadgen/internal/auth"
	"github.com/leadgrid/leadgen/internal/enrich"
	"github.com/leadgrid/leadgen/internal/model"
	"github.com/leadgrid/leadgen/internal/query"
	"github.com/leadgrid/leadgen/internal/search"
	"github.com/leadgrid/leadgen/internal/store"
	"github.com/leadgrid/leadgen/pkg/crm"
)

// Config tunes the server surface.
type Config struct {
	AllowedOrigins []string
	// FreeMaxResults and PaidMaxResults cap the per-search result count by
	// account tier.
	FreeMaxResults int
	PaidMaxResults int
	// RatePerMinute and RateBurst configure the per-IP limiter; zero
	// disables it.
	RatePerMinute int
	RateBurst     int
	RateWhitelist []string
	// RateBypassToken lets callers skip the limiter with a matching
	// X-Admin-Bypass-Token header. Empty disables the bypass.
	RateBypassToken string
}

// Server holds the HTTP handler dependencies. Store, sessions, and
// connectors may be nil; the routes that need them then answer 503.
type Server struct {
	search     *search.Service
	enrich     *enrich.Service
	agent      *query.Agent
	store      store.Store
	sessions   *auth.Manager
	connectors map[string]crm.Connector
	limiter    *ipLimiter
	cfg        Config
}

// NewServer creates a Server.
func NewServer(searchSvc *search.Service, enrichSvc *enrich.Service, agent *query.Agent, st store.Store, sessions *auth.Manager, connectors map[string]crm.Connector, cfg Config) *Server {
	if cfg.FreeMaxResults <= 0 {
		cfg.FreeMaxResults = 20
	}
	if cfg.PaidMaxResults <= 0 {
		cfg.PaidMaxResults = 100
	}

	s := &Server{
		search:     searchSvc,
		enrich:     enrichSvc,
		agent:      agent,
		store:      st,
		sessions:   sessions,
		connectors: connectors,
		cfg:        cfg,
	}
	if cfg.RatePerMinute > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = cfg.RatePerMinute
		}
		s.limiter = newIPLimiter(cfg.RatePerMinute, burst, cfg.RateWhitelist, cfg.RateBypassToken)
	}
	return s
}

// Router builds the full route tree with middleware applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))
	r.Use(requestID)
	r.Use(requestLogger)
	if s.limiter != nil {
		r.Use(s.limiter.middleware)
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleStructuredSearch)
		r.Get("/search/by-address", s.handleSearchByAddress)
		r.Get("/search/text", s.handleSearchText)
		r.Post("/search/business", s.handleBusinessSearch)
		r.Post("/search/business/import", s.handleImport)
		r.Post("/search/business/import/upload", s.handleImportUpload)

		r.Post("/agent/chat", s.handleAgentChat)

		r.Post("/enrichment/enrich", s.handleEnrich)
		r.Post("/enrichment/batch-enrich", s.handleBatchEnrich)
		r.Get("/enrichment/health", s.handleEnrichmentHealth)

		r.Get("/auth/me", s.handleMe)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/searches", s.handleListSearches)
		r.Post("/leads", s.handleSaveLeads)

		r.Route("/crm/{connector}", func(r chi.Router) {
			r.Get("/verify", s.handleCRMVerify)
			r.Post("/leads", s.handleCRMLeads)
			r.Post("/deals", s.handleCRMDeal)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// currentUser resolves the authenticated user, if any. Anonymous requests
// return (nil, nil); a present but invalid session is treated the same way.
func (s *Server) currentUser(r *http.Request) *model.User {
	if s.sessions == nil || s.store == nil {
		return nil
	}
	subject, err := s.sessions.SubjectFromRequest(r)
	if err != nil {
		return nil
	}
	user, err := s.store.GetUser(r.Context(), subject)
	if err != nil {
		return nil
	}
	return user
}

// requireUser resolves the authenticated user or fails.
func (s *Server) requireUser(r *http.Request) (*model.User, error) {
	if s.sessions == nil || s.store == nil {
		return nil, auth.ErrNoToken
	}
	subject, err := s.sessions.SubjectFromRequest(r)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(r.Context(), subject)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return user, nil
}

// searchContext resolves the caller and the tier-capped result limit.
func (s *Server) searchContext(r *http.Request, requested int) (int, *model.User) {
	user := s.currentUser(r)
	limit := search.MaxResults(user.Paid(), requested, s.cfg.FreeMaxResults, s.cfg.PaidMaxResults)
	return limit, user
}

// chargeSearch burns one credit after a search succeeds. A failed search is
// never charged. A losing debit race is logged, not surfaced.
func (s *Server) chargeSearch(r *http.Request, user *model.User) {
	if !user.Paid() {
		return
	}
	if err := s.store.DeductCredit(r.Context(), user.ID); err != nil {
		logStoreError("deduct credit", err)
	}
}

// recordSearch logs a search into history. Failures are logged, never
// surfaced; history is best-effort.
func (s *Server) recordSearch(r *http.Request, queryText, searchType string, resultCount int) {
	if s.store == nil {
		return
	}
	rec := model.SearchRecord{
		Query:       queryText,
		SearchType:  searchType,
		ResultCount: resultCount,
	}
	if user := s.currentUser(r); user != nil {
		rec.UserID = &user.ID
	}
	if _, err := s.store.RecordSearch(r.Context(), rec); err != nil {
		logStoreError("record search", err)
	}
}
