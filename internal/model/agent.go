package model

// ChatMessage is one turn of an agent conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ExtractionFilter is the provider search configuration the agent assembles
// from a conversation.
type ExtractionFilter struct {
	SearchQuery         string `json:"searchQuery"`
	LocationQuery       string `json:"locationQuery"`
	MaxResults          int    `json:"maxResults"`
	Language            string `json:"language"`
	Region              string `json:"region"`
	SkipClosedPlaces    bool   `json:"skipClosedPlaces"`
	ScrapeEmails        bool   `json:"scrapeEmails"`
	ScrapeSocialMedia   bool   `json:"scrapeSocialMedia"`
	ScrapeReviewsDetail bool   `json:"scrapeReviewsDetail"`
	MaxReviews          int    `json:"maxReviews"`
	EstimatedCredits    int    `json:"estimatedCredits"`
	CostEstimate        string `json:"costEstimate"`
}

// AgentReply is the agent's answer to one chat turn. Filter is nil while
// the agent still needs a clarification.
type AgentReply struct {
	Message               string            `json:"message"`
	Filter                *ExtractionFilter `json:"filter"`
	QueryText             *string           `json:"queryText"`
	NeedsConfirmation     bool              `json:"needsConfirmation"`
	NeedsClarification    bool              `json:"needsClarification"`
	ClarificationQuestion *string           `json:"clarificationQuestion"`
}
