// Package query turns free-text search requests into structured provider
// queries, and generates Maps-friendly query suggestions from business
// websites.
package query

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/model"
	"github.com/leadgrid/leadgen/pkg/llm"
)

// Sentinel errors for the interpretation pipeline.
var (
	// ErrUnconfigured means no LLM backend is configured or reachable.
	ErrUnconfigured = eris.New("query: interpreter not configured")
	// ErrParse means the LLM output could not be coerced to the schema.
	ErrParse = eris.New("query: unparseable interpreter output")
	// ErrIntent means no business-type token could be identified.
	ErrIntent = eris.New("query: no business type identified")
)

const parsePrompt = `You extract business search intent from a natural language query. ` +
	`Return JSON only with this schema: {"searchItem": string, "location": string, "language": string}. ` +
	`The searchItem should be a business type or keyword (e.g., 'restaurant', 'law firm'). ` +
	`The location should be a city/area, or 'near me' if no explicit location is present. ` +
	`The language must be the detected language code of the user query in BCP-47 format ` +
	`(for example: 'en', 'hi', 'es', 'fr', 'de', 'en-us'). ` +
	`If multiple business types are present, choose the most specific one. ` +
	"Do not add any extra keys or commentary.\n\nQUERY:\n%s\n"

// Interpreter parses natural-language queries via an LLM backend.
type Interpreter struct {
	llm llm.Client
}

// NewInterpreter creates an Interpreter. A nil client leaves the interpreter
// unconfigured; Parse then fails fast.
func NewInterpreter(client llm.Client) *Interpreter {
	return &Interpreter{llm: client}
}

// Parse resolves a free-text query into {searchItem, location, language}.
func (i *Interpreter) Parse(ctx context.Context, query string) (model.ParsedQuery, error) {
	if i.llm == nil {
		return model.ParsedQuery{}, eris.Wrap(ErrUnconfigured, "parse")
	}

	raw, err := i.llm.Complete(ctx, fmt.Sprintf(parsePrompt, query))
	if err != nil {
		zap.L().Warn("query: interpreter backend unreachable", zap.Error(err))
		return model.ParsedQuery{}, eris.Wrap(ErrUnconfigured, err.Error())
	}

	data, ok := llm.DecodeObject(raw)
	if !ok {
		return model.ParsedQuery{}, eris.Wrap(ErrParse, "no JSON object in response")
	}

	searchItem, _ := data["searchItem"].(string)
	searchItem = strings.TrimSpace(searchItem)
	if searchItem == "" {
		return model.ParsedQuery{}, eris.Wrap(ErrIntent, query)
	}

	location, _ := data["location"].(string)
	location = NormalizeLocation(location)

	return model.ParsedQuery{
		SearchItem: searchItem,
		Location:   location,
		Language:   NormalizeLanguage(data["language"]),
	}, nil
}

var languageRe = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})*$`)

// NormalizeLanguage lower-cases, swaps underscores for hyphens, and
// validates against a BCP-47-like pattern. Anything non-conforming
// defaults to "en".
func NormalizeLanguage(value any) string {
	s, _ := value.(string)
	language := strings.ToLower(strings.TrimSpace(s))
	language = strings.ReplaceAll(language, "_", "-")
	if language == "" || !languageRe.MatchString(language) {
		return "en"
	}
	return language
}

var (
	fillerRe     = regexp.MustCompile(`(?i)\bthe\s+|\s+(region|area|metroplex)\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	directionRe  = regexp.MustCompile(`(?i)\b(north|south|east|west|northeast|northwest|southeast|southwest|northern|southern|eastern|western|central)\b`)
)

// macroRegionCountries maps country signal tokens to the encompassing
// country name used when a directional macro-region is detected.
var macroRegionCountries = []struct {
	token   string
	country string
}{
	{"united states", "United States"},
	{"usa", "United States"},
	{"u.s.", "United States"},
	{"us", "United States"},
	{"america", "United States"},
	{"united kingdom", "United Kingdom"},
	{"uk", "United Kingdom"},
	{"india", "India"},
	{"canada", "Canada"},
	{"australia", "Australia"},
}

// NormalizeLocation strips filler wording, collapses whitespace, and
// replaces recognized directional macro-regions ("Southeast US", "North
// India") with the encompassing country. Empty input defaults to "near me".
func NormalizeLocation(location string) string {
	cleaned := fillerRe.ReplaceAllString(location, " ")
	cleaned = strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return "near me"
	}

	if directionRe.MatchString(cleaned) {
		lower := strings.ToLower(cleaned)
		for _, mr := range macroRegionCountries {
			if containsToken(lower, mr.token) {
				return mr.country
			}
		}
	}

	return cleaned
}

func containsToken(text, token string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(token) + `\b`)
	return re.MatchString(text)
}

var bareDomainRe = regexp.MustCompile(`(?i)^([a-z0-9][a-z0-9-]*\.)+[a-z]{2,}(/\S*)?$`)

// IsWebsiteInput reports whether free text is itself a website reference:
// no whitespace, and either an explicit http(s) URL with a dotted host or a
// bare domain. This gates routing to the suggestion flow instead of search.
func IsWebsiteInput(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t\n") {
		return false
	}

	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		u, err := url.Parse(trimmed)
		if err != nil {
			return false
		}
		return strings.Contains(u.Host, ".")
	}

	return bareDomainRe.MatchString(trimmed)
}
