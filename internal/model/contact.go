package model

// ParsedQuery is the structured form of a free-text search request.
// Location is never empty ("near me" default); Language is a BCP-47 code
// defaulting to "en".
type ParsedQuery struct {
	SearchItem string `json:"searchItem"`
	Location   string `json:"location"`
	Language   string `json:"language"`
}

// WebsiteSuggestions holds the five Maps-friendly queries generated for a
// business website.
type WebsiteSuggestions struct {
	WebsiteURL       string   `json:"websiteUrl"`
	Language         string   `json:"language"`
	SuggestedQueries []string `json:"suggestedQueries"`
}

// Contact is one enrichment contact derived from a business website.
// Name is always set; it is synthesized from the email local-part when the
// source gives none.
type Contact struct {
	Name            string   `json:"name"`
	FirstName       *string  `json:"first_name,omitempty"`
	LastName        *string  `json:"last_name,omitempty"`
	Title           *string  `json:"title,omitempty"`
	Email           *string  `json:"email,omitempty"`
	Phone           *string  `json:"phone,omitempty"`
	MobilePhone     *string  `json:"mobile_phone,omitempty"`
	Department      *string  `json:"department,omitempty"`
	Company         *string  `json:"company,omitempty"`
	Website         *string  `json:"website,omitempty"`
	Industry        *string  `json:"industry,omitempty"`
	Address         *string  `json:"address,omitempty"`
	City            *string  `json:"city,omitempty"`
	State           *string  `json:"state,omitempty"`
	PostalCode      *string  `json:"postal_code,omitempty"`
	Country         *string  `json:"country,omitempty"`
	LinkedInURL     *string  `json:"linkedin_url,omitempty"`
	TwitterURL      *string  `json:"twitter_url,omitempty"`
	FacebookURL     *string  `json:"facebook_url,omitempty"`
	InstagramURL    *string  `json:"instagram_url,omitempty"`
	YouTubeURL      *string  `json:"youtube_url,omitempty"`
	OtherSocialURLs []string `json:"other_social_urls,omitempty"`
	SourceURL       *string  `json:"source_url,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}

// ContactExtractionResult is the outcome of one website's contact extraction.
// Confidence is in [0,1]; zero whenever no contacts were produced.
type ContactExtractionResult struct {
	BusinessName string    `json:"business_name"`
	Website      string    `json:"website"`
	Contacts     []Contact `json:"contacts"`
	Confidence   float64   `json:"confidence"`
}

// EnrichmentStatus classifies a single enrichment outcome.
type EnrichmentStatus string

const (
	EnrichmentSuccess    EnrichmentStatus = "success"
	EnrichmentNoContacts EnrichmentStatus = "no_contacts_found"
	EnrichmentError      EnrichmentStatus = "error"
)

// EnrichmentRequest asks for one business to be enriched.
type EnrichmentRequest struct {
	Name    string  `json:"name"`
	Website string  `json:"website"`
	Address *string `json:"address,omitempty"`
}

// EnrichmentResponse is the enrichment envelope for one business.
type EnrichmentResponse struct {
	Name       string           `json:"name"`
	Website    string           `json:"website"`
	Contacts   []Contact        `json:"contacts"`
	Confidence float64          `json:"confidence"`
	Status     EnrichmentStatus `json:"status"`
}

// BatchEnrichmentResponse wraps many enrichment outcomes. A failed business
// downgrades its own entry only; it never aborts the batch.
type BatchEnrichmentResponse struct {
	Total      int                  `json:"total"`
	Successful int                  `json:"successful"`
	Failed     int                  `json:"failed"`
	Results    []EnrichmentResponse `json:"results"`
}

// CrawledPage is one fetched page: plaintext content plus discovered links.
type CrawledPage struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Links      []string `json:"links"`
	StatusCode int      `json:"status_code"`
}
