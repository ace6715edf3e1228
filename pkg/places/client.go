// Package places wraps the Google Places API (New) and the legacy
// Geocoding API, mapping responses into canonical business records.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/model"
)

const (
	defaultBaseURL        = "https://places.googleapis.com/v1"
	defaultGeocodeBaseURL = "https://maps.googleapis.com/maps/api"

	// The API rejects maxResultCount above 20.
	maxResultsPerRequest = 20

	searchFieldMask = "places.id,places.displayName,places.types,places.businessStatus," +
		"places.googleMapsUri,places.formattedAddress,places.location," +
		"places.rating,places.userRatingCount,places.priceLevel,places.photos"
	detailsFieldMask = "displayName,types,businessStatus,googleMapsUri,formattedAddress,location," +
		"addressComponents,nationalPhoneNumber,internationalPhoneNumber,websiteUri," +
		"rating,userRatingCount,priceLevel,regularOpeningHours,currentOpeningHours,photos"
)

// ErrNoResults means a geocode lookup returned an empty result set.
var ErrNoResults = eris.New("places: no results")

// Client performs Places API operations.
type Client interface {
	TextSearch(ctx context.Context, query string, maxResults int) ([]model.BusinessRecord, error)
	SearchNearby(ctx context.Context, latitude, longitude float64, businessType string, radiusMeters, maxResults int) ([]model.BusinessRecord, error)
	PlaceDetails(ctx context.Context, placeID string) (map[string]any, error)
	Geocode(ctx context.Context, address string) (float64, float64, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default Places API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithGeocodeBaseURL overrides the default Geocoding API base URL.
func WithGeocodeBaseURL(url string) Option {
	return func(c *httpClient) {
		c.geocodeBaseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithoutDetails disables the per-place details lookup during searches.
func WithoutDetails() Option {
	return func(c *httpClient) {
		c.fetchDetails = false
	}
}

type httpClient struct {
	apiKey         string
	baseURL        string
	geocodeBaseURL string
	fetchDetails   bool
	http           *http.Client
}

// NewClient creates a Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:         apiKey,
		baseURL:        defaultBaseURL,
		geocodeBaseURL: defaultGeocodeBaseURL,
		fetchDetails:   true,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type textSearchRequest struct {
	TextQuery      string `json:"textQuery"`
	MaxResultCount int    `json:"maxResultCount"`
}

type nearbySearchRequest struct {
	MaxResultCount      int                 `json:"maxResultCount"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
	IncludedTypes       []string            `json:"includedTypes"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TextSearch runs a natural-language Places search ("cafe in new york").
func (c *httpClient) TextSearch(ctx context.Context, query string, maxResults int) ([]model.BusinessRecord, error) {
	body := textSearchRequest{
		TextQuery:      query,
		MaxResultCount: capResults(maxResults),
	}

	places, err := c.search(ctx, "/places:searchText", body)
	if err != nil {
		return nil, err
	}

	zap.L().Info("places: text search complete",
		zap.String("query", query),
		zap.Int("results", len(places)),
	)
	return c.mapPlaces(ctx, places), nil
}

// SearchNearby searches for businesses of one type around a coordinate.
func (c *httpClient) SearchNearby(ctx context.Context, latitude, longitude float64, businessType string, radiusMeters, maxResults int) ([]model.BusinessRecord, error) {
	if radiusMeters <= 0 {
		radiusMeters = 5000
	}
	body := nearbySearchRequest{
		MaxResultCount: capResults(maxResults),
		LocationRestriction: locationRestriction{
			Circle: circle{
				Center: latLng{Latitude: latitude, Longitude: longitude},
				Radius: float64(radiusMeters),
			},
		},
		IncludedTypes: []string{businessType},
	}

	places, err := c.search(ctx, "/places:searchNearby", body)
	if err != nil {
		return nil, err
	}

	zap.L().Info("places: nearby search complete",
		zap.String("type", businessType),
		zap.Int("results", len(places)),
	)
	return c.mapPlaces(ctx, places), nil
}

func (c *httpClient) search(ctx context.Context, path string, payload any) ([]map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "places: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Places []map[string]any `json:"places"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}
	return result.Places, nil
}

// PlaceDetails fetches the detail record for one place. Failures degrade to
// an empty map so search mapping can proceed on search fields alone.
func (c *httpClient) PlaceDetails(ctx context.Context, placeID string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places/"+url.PathEscape(placeID), nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", detailsFieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var details map[string]any
	if err := json.Unmarshal(respBody, &details); err != nil {
		return nil, eris.Wrap(err, "places: unmarshal response")
	}
	return details, nil
}

// Geocode resolves an address to a coordinate via the legacy Geocoding API.
func (c *httpClient) Geocode(ctx context.Context, address string) (float64, float64, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.geocodeBaseURL+"/geocode/json?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, eris.Wrap(err, "places: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return 0, 0, eris.Errorf("places: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, 0, eris.Wrap(err, "places: unmarshal response")
	}
	if len(result.Results) == 0 {
		return 0, 0, eris.Wrap(ErrNoResults, fmt.Sprintf("geocode %q", address))
	}

	loc := result.Results[0].Geometry.Location
	return loc.Lat, loc.Lng, nil
}

// mapPlaces maps raw places into canonical records, merging in the detail
// record for each place that has an id. A failed details lookup degrades
// that place to its search fields.
func (c *httpClient) mapPlaces(ctx context.Context, places []map[string]any) []model.BusinessRecord {
	records := make([]model.BusinessRecord, 0, len(places))
	for _, place := range places {
		details := map[string]any{}
		placeID, _ := place["id"].(string)
		if c.fetchDetails && placeID != "" {
			d, err := c.PlaceDetails(ctx, placeID)
			if err != nil {
				zap.L().Warn("places: details lookup failed",
					zap.String("place_id", placeID),
					zap.Error(err),
				)
			} else {
				details = d
			}
		}
		records = append(records, mapPlace(place, details))
	}
	return records
}

func capResults(maxResults int) int {
	if maxResults <= 0 || maxResults > maxResultsPerRequest {
		return maxResultsPerRequest
	}
	return maxResults
}
