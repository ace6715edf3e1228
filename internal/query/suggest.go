package query

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/crawl"
	"github.com/leadgrid/leadgen/internal/model"
	"github.com/leadgrid/leadgen/pkg/llm"
)

// Sentinel errors for the website suggestion flow.
var (
	// ErrFetch means the website could not be read at all.
	ErrFetch = eris.New("query: website unreadable")
	// ErrGeneration means fewer than five usable suggestions survived
	// filtering.
	ErrGeneration = eris.New("query: could not generate five suggestions")
)

// suggestionCount is the exact number of queries a successful suggestion
// response carries.
const suggestionCount = 5

// maxSuggestionLength rejects over-specific candidates.
const maxSuggestionLength = 90

const suggestPrompt = `You generate Google Maps search queries that potential customers of a business would type. ` +
	`Read the website content below and return JSON only with this schema: ` +
	`{"language": string, "suggestedQueries": [string, string, string, string, string, string, string, string]}. ` +
	`Each query must describe a plain business category with a location phrase (for example "dog groomers in Austin" or "roof repair near me"). ` +
	`Never describe the business's own prospects or needs. The language must be the website's language in BCP-47 format.` +
	"\n\nWebsite: %s\n\nWebsite content (truncated):\n%s\n"

// SuggestionGenerator produces Maps-friendly customer queries for a website.
type SuggestionGenerator struct {
	llm           llm.Client
	fetcher       crawl.Fetcher
	maxPages      int
	maxConcurrent int
}

// NewSuggestionGenerator creates a SuggestionGenerator.
func NewSuggestionGenerator(client llm.Client, fetcher crawl.Fetcher, maxPages int) *SuggestionGenerator {
	if maxPages <= 0 {
		maxPages = 6
	}
	return &SuggestionGenerator{
		llm:           client,
		fetcher:       fetcher,
		maxPages:      maxPages,
		maxConcurrent: 4,
	}
}

// Suggest crawls the website and produces exactly five customer search
// queries, each carrying explicit location intent.
func (g *SuggestionGenerator) Suggest(ctx context.Context, websiteInput string) (model.WebsiteSuggestions, error) {
	if g.llm == nil {
		return model.WebsiteSuggestions{}, eris.Wrap(ErrUnconfigured, "suggest")
	}

	websiteURL, err := crawl.NormalizeWebsiteURL(websiteInput)
	if err != nil {
		return model.WebsiteSuggestions{}, eris.Wrap(ErrFetch, err.Error())
	}

	urls := crawl.BuildContactURLs(websiteURL, g.maxPages)
	text, _ := crawl.FetchAllConcurrent(ctx, g.fetcher, urls, g.maxConcurrent)
	if strings.TrimSpace(text) == "" {
		return model.WebsiteSuggestions{}, eris.Wrap(ErrFetch, websiteURL)
	}
	if len(text) > 4000 {
		text = text[:4000]
	}

	raw, err := g.llm.Complete(ctx, fmt.Sprintf(suggestPrompt, websiteURL, text))
	if err != nil {
		return model.WebsiteSuggestions{}, eris.Wrap(ErrGeneration, err.Error())
	}

	language := "en"
	var candidates []any
	if obj, ok := llm.DecodeObject(raw); ok {
		language = NormalizeLanguage(obj["language"])
		candidates, _ = obj["suggestedQueries"].([]any)
	} else if arr, ok := llm.DecodeArray(raw); ok {
		// Some responses drop the wrapper object and return a bare array.
		candidates = arr
	} else {
		return model.WebsiteSuggestions{}, eris.Wrap(ErrGeneration, "no JSON in response")
	}

	queries := filterSuggestions(candidates)
	if len(queries) < suggestionCount {
		zap.L().Warn("query: too few usable suggestions",
			zap.String("website", websiteURL),
			zap.Int("usable", len(queries)),
		)
		return model.WebsiteSuggestions{}, eris.Wrap(ErrGeneration, websiteURL)
	}

	return model.WebsiteSuggestions{
		WebsiteURL:       websiteURL,
		Language:         language,
		SuggestedQueries: queries[:suggestionCount],
	}, nil
}

var (
	narrowIntentStripRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(for\s+)?(companies|businesses|firms|organizations)\s+(needing|using|that\s+need|that\s+use)\s+[\w\s&'-]+`),
		regexp.MustCompile(`(?i)\bwho\s+need\s+[\w\s&'-]+`),
	}
	narrowIntentRejectRe = regexp.MustCompile(`(?i)\b(needing|using|who\s+need|seeking|requiring)\b`)
	directionalUSRe      = regexp.MustCompile(`(?i)\b(in|across)\s+(the\s+)?(north|south|east|west|northeast|northwest|southeast|southwest|northern|southern|eastern|western|central)\s*(us|usa|u\.s\.|america|united\s+states)\b`)
	locationIntentRe     = regexp.MustCompile(`(?i)\b(in|near|around|within|at)\b|near\s+me`)
)

// filterSuggestions normalizes each candidate and keeps only the usable
// ones, deduplicated case-insensitively in first-seen order.
func filterSuggestions(candidates []any) []string {
	seen := make(map[string]struct{})
	var out []string

	for _, candidate := range candidates {
		s, ok := candidate.(string)
		if !ok {
			continue
		}
		normalized := normalizeSuggestion(s)
		if normalized == "" {
			continue
		}
		key := strings.ToLower(normalized)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

// normalizeSuggestion rewrites one candidate query, returning "" when it
// cannot be salvaged into a simple map-search query.
func normalizeSuggestion(candidate string) string {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return ""
	}

	for _, re := range narrowIntentStripRes {
		s = re.ReplaceAllString(s, " ")
	}
	s = directionalUSRe.ReplaceAllString(s, "in United States")
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	s = strings.Trim(s, ",")
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}
	if !locationIntentRe.MatchString(s) {
		s += " near me"
	}

	if len(s) > maxSuggestionLength {
		return ""
	}
	if strings.Count(s, ",") > 2 {
		return ""
	}
	if narrowIntentRejectRe.MatchString(s) {
		return ""
	}
	if !locationIntentRe.MatchString(s) {
		return ""
	}
	return s
}
