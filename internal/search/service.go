// Package search orchestrates the search surfaces: structured and
// address-based Places lookups, natural-language provider searches, website
// query suggestions, and raw provider-payload imports.
package search

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/model"
	"github.com/leadgrid/leadgen/internal/normalize"
	"github.com/leadgrid/leadgen/internal/query"
	"github.com/leadgrid/leadgen/pkg/dataset"
	"github.com/leadgrid/leadgen/pkg/places"
)

// Service wires the upstream clients together. Any client may be nil; the
// operations that need it then fail with ErrConfiguration.
type Service struct {
	places      places.Client
	dataset     dataset.Client
	interpreter *query.Interpreter
	suggester   *query.SuggestionGenerator
}

// NewService creates a Service.
func NewService(placesClient places.Client, datasetClient dataset.Client, interpreter *query.Interpreter, suggester *query.SuggestionGenerator) *Service {
	return &Service{
		places:      placesClient,
		dataset:     datasetClient,
		interpreter: interpreter,
		suggester:   suggester,
	}
}

// SearchNearby finds businesses of one type around a coordinate.
func (s *Service) SearchNearby(ctx context.Context, req model.StructuredSearch) (model.SearchResultsResponse, error) {
	if s.places == nil {
		return model.SearchResultsResponse{}, eris.Wrap(ErrConfiguration, "places client")
	}
	if req.BusinessType == "" {
		return model.SearchResultsResponse{}, eris.Wrap(ErrValidation, "business_type is required")
	}

	results, err := s.places.SearchNearby(ctx, req.Latitude, req.Longitude, req.BusinessType, req.Radius, req.MaxResults)
	if err != nil {
		return model.SearchResultsResponse{}, eris.Wrap(ErrUpstreamProvider, err.Error())
	}

	return envelope(results, map[string]any{
		"latitude":      req.Latitude,
		"longitude":     req.Longitude,
		"business_type": req.BusinessType,
		"radius":        req.Radius,
	}), nil
}

// SearchByAddress geocodes an address and searches around it.
func (s *Service) SearchByAddress(ctx context.Context, address, businessType string, radius, maxResults int) (model.SearchResultsResponse, error) {
	if s.places == nil {
		return model.SearchResultsResponse{}, eris.Wrap(ErrConfiguration, "places client")
	}
	if address == "" || businessType == "" {
		return model.SearchResultsResponse{}, eris.Wrap(ErrValidation, "address and business_type are required")
	}

	latitude, longitude, err := s.places.Geocode(ctx, address)
	if err != nil {
		if eris.Is(err, places.ErrNoResults) {
			return model.SearchResultsResponse{}, eris.Wrap(ErrAddressNotFound, address)
		}
		return model.SearchResultsResponse{}, eris.Wrap(ErrUpstreamProvider, err.Error())
	}

	results, err := s.places.SearchNearby(ctx, latitude, longitude, businessType, radius, maxResults)
	if err != nil {
		return model.SearchResultsResponse{}, eris.Wrap(ErrUpstreamProvider, err.Error())
	}

	return envelope(results, map[string]any{
		"address":       address,
		"business_type": businessType,
		"radius":        radius,
		"latitude":      latitude,
		"longitude":     longitude,
	}), nil
}

// SearchText runs a Places natural-language text search.
func (s *Service) SearchText(ctx context.Context, text string, maxResults int) (model.SearchResultsResponse, error) {
	if s.places == nil {
		return model.SearchResultsResponse{}, eris.Wrap(ErrConfiguration, "places client")
	}
	if text == "" {
		return model.SearchResultsResponse{}, eris.Wrap(ErrValidation, "query is required")
	}

	results, err := s.places.TextSearch(ctx, text, maxResults)
	if err != nil {
		return model.SearchResultsResponse{}, eris.Wrap(ErrUpstreamProvider, err.Error())
	}

	return envelope(results, map[string]any{
		"query": text,
		"type":  "natural_language",
	}), nil
}

// SearchBusiness is the free-text entry point backed by the scraping
// provider. A website input is routed to the suggestion flow instead and
// yields an empty result set carrying the five suggested queries.
func (s *Service) SearchBusiness(ctx context.Context, freeText string, maxResults int) (model.SearchResultsResponse, error) {
	if freeText == "" {
		return model.SearchResultsResponse{}, eris.Wrap(ErrValidation, "query is required")
	}

	if query.IsWebsiteInput(freeText) {
		return s.suggestForWebsite(ctx, freeText)
	}

	if s.dataset == nil || s.interpreter == nil {
		return model.SearchResultsResponse{}, eris.Wrap(ErrConfiguration, "provider search")
	}

	parsed, err := s.interpreter.Parse(ctx, freeText)
	if err != nil {
		return model.SearchResultsResponse{}, err
	}
	zap.L().Info("search: query parsed",
		zap.String("search_item", parsed.SearchItem),
		zap.String("location", parsed.Location),
		zap.String("language", parsed.Language),
	)

	payload := map[string]any{
		"language":                  parsed.Language,
		"locationQuery":             parsed.Location,
		"maxCrawledPlacesPerSearch": maxResults,
		"searchStringsArray":        []string{parsed.SearchItem},
		"skipClosedPlaces":          false,
	}

	items, err := s.dataset.RunSearch(ctx, payload)
	if err != nil {
		return model.SearchResultsResponse{}, eris.Wrap(ErrUpstreamProvider, err.Error())
	}

	queryEcho := map[string]any{
		"query":    freeText,
		"type":     "natural_language",
		"language": parsed.Language,
	}

	if code, desc, found := providerError(items); found {
		if code == "no_search_results" {
			zap.L().Info("search: provider returned no results", zap.String("query", freeText))
			return envelope(nil, queryEcho), nil
		}
		zap.L().Error("search: provider error",
			zap.String("code", code),
			zap.String("description", desc),
		)
		return model.SearchResultsResponse{}, eris.Wrap(ErrUpstreamProvider, code)
	}

	return envelope(normalize.MapItems(items), queryEcho), nil
}

// ImportPayload converts a raw provider dataset payload into the search
// response format without calling the provider.
func (s *Service) ImportPayload(payload any) (model.SearchResultsResponse, error) {
	items, queryText, err := normalize.ExtractPayload(payload)
	if err != nil {
		return model.SearchResultsResponse{}, err
	}

	queryEcho := map[string]any{
		"query": queryText,
		"type":  "natural_language",
	}

	if code, desc, found := providerError(items); found {
		if code == "no_search_results" {
			return envelope(nil, queryEcho), nil
		}
		zap.L().Error("search: provider error in import",
			zap.String("code", code),
			zap.String("description", desc),
		)
		return model.SearchResultsResponse{}, eris.Wrap(normalize.ErrInvalidPayload, code)
	}

	return envelope(normalize.MapItems(items), queryEcho), nil
}

func (s *Service) suggestForWebsite(ctx context.Context, websiteInput string) (model.SearchResultsResponse, error) {
	if s.suggester == nil {
		return model.SearchResultsResponse{}, eris.Wrap(ErrConfiguration, "suggestion generator")
	}

	suggestions, err := s.suggester.Suggest(ctx, websiteInput)
	if err != nil {
		return model.SearchResultsResponse{}, err
	}

	return envelope(nil, map[string]any{
		"query":             websiteInput,
		"type":              "website_query_suggestions",
		"website_url":       suggestions.WebsiteURL,
		"language":          suggestions.Language,
		"suggested_queries": suggestions.SuggestedQueries,
	}), nil
}

// providerError reports the provider's in-band error item: a single-element
// item list whose only meaning is an error code plus description.
func providerError(items []map[string]any) (code, description string, found bool) {
	if len(items) != 1 {
		return "", "", false
	}
	item := items[0]
	rawCode, hasCode := item["error"]
	_, hasDesc := item["errorDescription"]
	if !hasCode || !hasDesc {
		return "", "", false
	}

	code, _ = rawCode.(string)
	description, _ = item["errorDescription"].(string)
	if description == "" {
		description = "Search provider error"
	}
	return code, description, true
}

func envelope(results []model.BusinessRecord, queryEcho map[string]any) model.SearchResultsResponse {
	if results == nil {
		results = []model.BusinessRecord{}
	}
	return model.SearchResultsResponse{
		TotalResults: len(results),
		Results:      results,
		Query:        queryEcho,
	}
}

// MaxResults caps a requested result count by account tier.
func MaxResults(paid bool, requested, freeCap, paidCap int) int {
	limit := freeCap
	if paid {
		limit = paidCap
	}
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}
