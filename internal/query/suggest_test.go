package query

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgrid/leadgen/internal/model"
)

type stubFetcher struct {
	pages map[string]*model.CrawledPage
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*model.CrawledPage, error) {
	page, ok := s.pages[url]
	if !ok {
		return nil, eris.Errorf("no such page: %s", url)
	}
	return page, nil
}

func siteFetcher() *stubFetcher {
	return &stubFetcher{pages: map[string]*model.CrawledPage{
		"https://acmehvac.example": {
			Text:  "Acme HVAC installs and repairs air conditioning across Texas.",
			Links: []string{"https://acmehvac.example/contact"},
		},
		"https://acmehvac.example/contact": {
			Text: "Call us for AC repair.",
		},
	}}
}

func TestSuggest_FiveQueries(t *testing.T) {
	llmClient := &fakeLLM{response: `{
		"language": "en",
		"suggestedQueries": [
			"AC repair in Austin",
			"HVAC installation near me",
			"air conditioning service in Dallas",
			"furnace repair in Houston",
			"emergency AC repair in San Antonio",
			"duct cleaning in Austin"
		]
	}`}

	gen := NewSuggestionGenerator(llmClient, siteFetcher(), 6)
	got, err := gen.Suggest(context.Background(), "acmehvac.example")
	require.NoError(t, err)

	assert.Equal(t, "https://acmehvac.example", got.WebsiteURL)
	assert.Equal(t, "en", got.Language)
	require.Len(t, got.SuggestedQueries, 5)
	assert.Equal(t, "AC repair in Austin", got.SuggestedQueries[0])

	// The crawl text reaches the prompt.
	require.Len(t, llmClient.prompts, 1)
	assert.Contains(t, llmClient.prompts[0], "air conditioning across Texas")
}

func TestSuggest_RewritesCandidates(t *testing.T) {
	llmClient := &fakeLLM{response: `{
		"language": "en",
		"suggestedQueries": [
			"plumbers",
			"drain cleaning across the southeast US",
			"Plumbers",
			"water heater repair in Atlanta",
			"pipe installation in Savannah",
			"leak detection in Macon"
		]
	}`}

	gen := NewSuggestionGenerator(llmClient, siteFetcher(), 6)
	got, err := gen.Suggest(context.Background(), "https://acmehvac.example")
	require.NoError(t, err)

	require.Len(t, got.SuggestedQueries, 5)
	// Missing location intent gets "near me"; duplicates collapse
	// case-insensitively.
	assert.Equal(t, "plumbers near me", got.SuggestedQueries[0])
	assert.Equal(t, "drain cleaning in United States", got.SuggestedQueries[1])
	assert.Equal(t, "water heater repair in Atlanta", got.SuggestedQueries[2])

	for _, q := range got.SuggestedQueries {
		assert.True(t, locationIntentRe.MatchString(q), q)
		assert.LessOrEqual(t, len(q), maxSuggestionLength)
	}
}

func TestSuggest_RejectsNarrowIntent(t *testing.T) {
	llmClient := &fakeLLM{response: `{
		"language": "en",
		"suggestedQueries": [
			"law firms seeking IT support in Boston",
			"startups requiring accountants near me",
			"AC repair in Austin",
			"HVAC installation near me",
			"furnace repair in Houston"
		]
	}`}

	gen := NewSuggestionGenerator(llmClient, siteFetcher(), 6)
	_, err := gen.Suggest(context.Background(), "acmehvac.example")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrGeneration))
}

func TestSuggest_BareArrayFallback(t *testing.T) {
	llmClient := &fakeLLM{response: `[
		"AC repair in Austin",
		"HVAC installation near me",
		"air conditioning service in Dallas",
		"furnace repair in Houston",
		"emergency AC repair in San Antonio"
	]`}

	gen := NewSuggestionGenerator(llmClient, siteFetcher(), 6)
	got, err := gen.Suggest(context.Background(), "acmehvac.example")
	require.NoError(t, err)

	assert.Equal(t, "en", got.Language)
	assert.Len(t, got.SuggestedQueries, 5)
}

func TestSuggest_UnreadableWebsite(t *testing.T) {
	gen := NewSuggestionGenerator(&fakeLLM{response: "{}"}, &stubFetcher{pages: map[string]*model.CrawledPage{}}, 6)

	_, err := gen.Suggest(context.Background(), "gone.example")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrFetch))
}

func TestSuggest_NoJSON(t *testing.T) {
	gen := NewSuggestionGenerator(&fakeLLM{response: "I cannot help with that."}, siteFetcher(), 6)

	_, err := gen.Suggest(context.Background(), "acmehvac.example")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrGeneration))
}

func TestNormalizeSuggestion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"restaurants in Pune", "restaurants in Pune"},
		{"coffee shops", "coffee shops near me"},
		{"dentists across southeast US", "dentists in United States"},
		{"", ""},
		{"a, b, c, d in Austin", ""},
		{"companies using CRM software in Denver", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeSuggestion(tt.in), tt.in)
	}
}
