package model

// BusinessStatus is the canonical operating status of a listing.
type BusinessStatus string

const (
	StatusOperational       BusinessStatus = "OPERATIONAL"
	StatusClosedTemporarily BusinessStatus = "CLOSED_TEMPORARILY"
	StatusClosedPermanently BusinessStatus = "CLOSED_PERMANENTLY"
)

// OpeningHours is the canonical opening-hours shape.
type OpeningHours struct {
	OpenNow     *bool    `json:"open_now"`
	WeekdayText []string `json:"weekday_text"`
}

// BusinessRecord is the canonical business listing every provider response
// is mapped into. Records are request-scoped: built from a single provider
// item and returned, never persisted here.
type BusinessRecord struct {
	Name        string   `json:"name"`
	PlaceID     string   `json:"place_id"`
	Types       []string `json:"types"`
	PrimaryType *string  `json:"primary_type"`
	Categories  []string `json:"categories"`

	BusinessStatus BusinessStatus `json:"business_status"`
	GoogleMapsURL  *string        `json:"google_maps_url"`

	FormattedAddress *string `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	City             *string `json:"city"`
	State            *string `json:"state"`
	Country          *string `json:"country"`
	PostalCode       *string `json:"postal_code"`

	FormattedPhoneNumber     *string `json:"formatted_phone_number"`
	InternationalPhoneNumber *string `json:"international_phone_number"`
	Website                  *string `json:"website"`

	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	PriceLevel       *string  `json:"price_level"`

	OpeningHours    *OpeningHours `json:"opening_hours"`
	OpeningHoursRaw []any         `json:"opening_hours_raw,omitempty"`

	Photos []string `json:"photos"`

	// Provider-specific passthrough. Preserved when present, never required.
	Neighborhood        *string `json:"neighborhood,omitempty"`
	Street              *string `json:"street,omitempty"`
	ClaimThisBusiness   *bool   `json:"claim_this_business,omitempty"`
	Rank                *int    `json:"rank,omitempty"`
	ImageURL            *string `json:"image_url,omitempty"`
	ImagesCount         *int    `json:"images_count,omitempty"`
	ReviewsDistribution any     `json:"reviews_distribution,omitempty"`
	TemporarilyClosed   *bool   `json:"temporarily_closed,omitempty"`
	PermanentlyClosed   *bool   `json:"permanently_closed,omitempty"`
	IsAdvertisement     *bool   `json:"is_advertisement,omitempty"`
	CID                 *string `json:"cid,omitempty"`
	FID                 *string `json:"fid,omitempty"`
	KGMID               *string `json:"kgmid,omitempty"`
	SearchString        *string `json:"search_string,omitempty"`
	SearchPageURL       *string `json:"search_page_url,omitempty"`
	ScrapedAt           *string `json:"scraped_at,omitempty"`
	AdditionalInfo      any     `json:"additional_info,omitempty"`
}

// SearchResultsResponse is the envelope returned by every search and import
// operation. Query echoes the caller's filters or interpretation outcome.
type SearchResultsResponse struct {
	TotalResults int              `json:"total_results"`
	Results      []BusinessRecord `json:"results"`
	Query        map[string]any   `json:"query"`
}

// StructuredSearch is a coordinates-based search request.
type StructuredSearch struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	BusinessType string  `json:"business_type"`
	Radius       int     `json:"radius,omitempty"`
	MaxResults   int     `json:"max_results,omitempty"`
}
