package enrich

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

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Complete(context.Context, string) (string, error) {
	return s.response, s.err
}

func contactSite() *stubFetcher {
	return &stubFetcher{pages: map[string]*model.CrawledPage{
		"https://acme.example": {
			Text: "Welcome to Acme. Reach jane.doe@acme.com or bob_smith@acme.com, call +1 (555) 010-2233.",
			Links: []string{
				"https://acme.example/contact",
				"https://www.linkedin.com/company/acme",
				"https://twitter.com/acmeco",
			},
		},
		"https://acme.example/contact": {
			Text: "Contact jane.doe@acme.com for sales.",
		},
	}}
}

func TestExtract_HeuristicEmails(t *testing.T) {
	extractor := NewExtractor(nil, contactSite(), 6)
	addr := "1 Main St"

	result := extractor.Extract(context.Background(), "Acme", "acme.example", &addr)

	assert.Equal(t, "Acme", result.BusinessName)
	assert.Equal(t, "acme.example", result.Website)
	require.Len(t, result.Contacts, 2)

	jane := result.Contacts[0]
	assert.Equal(t, "Jane Doe", jane.Name)
	require.NotNil(t, jane.Email)
	assert.Equal(t, "jane.doe@acme.com", *jane.Email)
	require.NotNil(t, jane.Phone)
	assert.Equal(t, "+1 (555) 010-2233", *jane.Phone)
	require.NotNil(t, jane.LinkedInURL)
	assert.Equal(t, "https://www.linkedin.com/company/acme", *jane.LinkedInURL)
	require.NotNil(t, jane.TwitterURL)
	require.NotNil(t, jane.Address)
	assert.Equal(t, "1 Main St", *jane.Address)

	assert.Equal(t, "Bob Smith", result.Contacts[1].Name)

	// Email, phone, and social evidence all present.
	assert.InDelta(t, 0.7, result.Confidence, 1e-9)
}

func TestExtract_GenericContactFromPhoneOnly(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]*model.CrawledPage{
		"https://quiet.example": {Text: "Call us on 020 7946 0018 today."},
	}}

	result := NewExtractor(nil, fetcher, 6).Extract(context.Background(), "Quiet Co", "quiet.example", nil)

	require.Len(t, result.Contacts, 1)
	assert.Equal(t, "Quiet Co Contact", result.Contacts[0].Name)
	assert.Nil(t, result.Contacts[0].Email)
	require.NotNil(t, result.Contacts[0].Phone)
	// One evidence category.
	assert.InDelta(t, 0.3, result.Confidence, 1e-9)
}

func TestExtract_NothingFound(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]*model.CrawledPage{
		"https://empty.example": {Text: "Nothing to see here"},
	}}

	result := NewExtractor(nil, fetcher, 6).Extract(context.Background(), "Empty", "empty.example", nil)

	assert.Empty(t, result.Contacts)
	assert.Zero(t, result.Confidence)
}

func TestExtract_UnreadableSiteDegrades(t *testing.T) {
	result := NewExtractor(nil, &stubFetcher{pages: map[string]*model.CrawledPage{}}, 6).
		Extract(context.Background(), "Gone", "gone.example", nil)

	assert.Equal(t, "Gone", result.BusinessName)
	assert.Empty(t, result.Contacts)
	assert.Zero(t, result.Confidence)
}

func TestExtract_BadURLDegrades(t *testing.T) {
	result := NewExtractor(nil, contactSite(), 6).Extract(context.Background(), "Acme", "   ", nil)

	assert.Empty(t, result.Contacts)
	assert.Zero(t, result.Confidence)
}

func TestExtract_LLMFirst(t *testing.T) {
	llmClient := &stubLLM{response: `{
		"contacts": [
			{"name": "Dana Reyes", "title": "Owner", "email": "dana@acme.com"},
			{"email": "ops.lead@acme.com"}
		],
		"confidence": 0.85
	}`}

	result := NewExtractor(llmClient, contactSite(), 6).Extract(context.Background(), "Acme", "acme.example", nil)

	require.Len(t, result.Contacts, 2)
	assert.Equal(t, "Dana Reyes", result.Contacts[0].Name)
	require.NotNil(t, result.Contacts[0].Title)
	assert.Equal(t, "Owner", *result.Contacts[0].Title)

	// Missing name synthesized from the email local-part; missing
	// source_url defaults to the input website.
	assert.Equal(t, "Ops Lead", result.Contacts[1].Name)
	require.NotNil(t, result.Contacts[1].SourceURL)
	assert.Equal(t, "acme.example", *result.Contacts[1].SourceURL)

	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
}

func TestExtract_LLMConfidenceDefaultsAndClamps(t *testing.T) {
	t.Run("default when unspecified", func(t *testing.T) {
		llmClient := &stubLLM{response: `{"contacts": [{"name": "A"}]}`}
		result := NewExtractor(llmClient, contactSite(), 6).Extract(context.Background(), "Acme", "acme.example", nil)
		assert.InDelta(t, 0.6, result.Confidence, 1e-9)
	})

	t.Run("clamped above one", func(t *testing.T) {
		llmClient := &stubLLM{response: `{"contacts": [{"name": "A"}], "confidence": 3.2}`}
		result := NewExtractor(llmClient, contactSite(), 6).Extract(context.Background(), "Acme", "acme.example", nil)
		assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	})
}

func TestExtract_LLMFailureFallsBackToHeuristics(t *testing.T) {
	llmClient := &stubLLM{err: eris.New("rate limited")}

	result := NewExtractor(llmClient, contactSite(), 6).Extract(context.Background(), "Acme", "acme.example", nil)

	require.NotEmpty(t, result.Contacts)
	assert.Equal(t, "Jane Doe", result.Contacts[0].Name)
}

func TestExtract_LLMEmptyContactsFallsBack(t *testing.T) {
	llmClient := &stubLLM{response: `{"contacts": [], "confidence": 0}`}

	result := NewExtractor(llmClient, contactSite(), 6).Extract(context.Background(), "Acme", "acme.example", nil)

	require.NotEmpty(t, result.Contacts)
	assert.Equal(t, "Jane Doe", result.Contacts[0].Name)
}

func TestClassifySocialLinks(t *testing.T) {
	social := classifySocialLinks([]string{
		"https://www.linkedin.com/company/a",
		"https://www.linkedin.com/company/b",
		"https://x.com/a",
		"https://facebook.com/a",
		"https://instagram.com/a",
		"https://youtube.com/@a",
		"https://blog.example/post",
	})

	require.NotNil(t, social.linkedIn)
	assert.Equal(t, "https://www.linkedin.com/company/a", *social.linkedIn)
	require.NotNil(t, social.twitter)
	assert.Equal(t, "https://x.com/a", *social.twitter)
	require.NotNil(t, social.facebook)
	require.NotNil(t, social.instagram)
	require.NotNil(t, social.youTube)
	// The second linkedin link and the blog link land in other.
	assert.Equal(t, []string{"https://www.linkedin.com/company/b", "https://blog.example/post"}, social.other)
}

func TestNameFromEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jane.doe@acme.com", "Jane Doe"},
		{"bob_smith@acme.com", "Bob Smith"},
		{"info@acme.com", "Info"},
		{"@acme.com", "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, nameFromEmail(tt.in), tt.in)
	}
}
