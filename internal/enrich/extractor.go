// Package enrich derives contact records from business websites, using
// regex heuristics with an optional LLM-structured extraction pass.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leadgrid/leadgen/internal/crawl"
	"github.com/leadgrid/leadgen/internal/model"
	"github.com/leadgrid/leadgen/pkg/llm"
)

// maxHeuristicContacts bounds the per-business contact list on the
// heuristic path, one contact per email address.
const maxHeuristicContacts = 5

// defaultLLMConfidence applies when the LLM returns contacts but omits a
// confidence value.
const defaultLLMConfidence = 0.6

var (
	emailRe = regexp.MustCompile(`[\w.-]+@[\w.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\-\s()]{6,}\d`)
)

// Extractor crawls a business website and derives Contact records. A nil
// LLM client disables the structured extraction pass; heuristics still run.
type Extractor struct {
	llm      llm.Client
	fetcher  crawl.Fetcher
	maxPages int
}

// NewExtractor creates an Extractor.
func NewExtractor(client llm.Client, fetcher crawl.Fetcher, maxPages int) *Extractor {
	if maxPages <= 0 {
		maxPages = 6
	}
	return &Extractor{llm: client, fetcher: fetcher, maxPages: maxPages}
}

// Extract crawls the website's likely contact pages and derives contacts.
// It never fails: every internal error degrades to an empty-contacts,
// zero-confidence result.
func (e *Extractor) Extract(ctx context.Context, businessName, websiteURL string, address *string) model.ContactExtractionResult {
	result := model.ContactExtractionResult{
		BusinessName: businessName,
		Website:      websiteURL,
		Contacts:     []model.Contact{},
	}

	normalized, err := crawl.NormalizeWebsiteURL(websiteURL)
	if err != nil {
		zap.L().Warn("enrich: unusable website url",
			zap.String("business", businessName),
			zap.String("website", websiteURL),
			zap.Error(err),
		)
		return result
	}

	var text string
	var links []string
	if e.fetcher != nil {
		urls := crawl.BuildContactURLs(normalized, e.maxPages)
		text, links = crawl.FetchAll(ctx, e.fetcher, urls)
	}

	if e.llm != nil {
		contacts, confidence := e.extractWithLLM(ctx, businessName, websiteURL, address, text, links)
		if len(contacts) > 0 {
			result.Contacts = contacts
			result.Confidence = confidence
			return result
		}
	}

	result.Contacts, result.Confidence = e.extractHeuristic(businessName, websiteURL, address, text, links)
	return result
}

// extractHeuristic regex-extracts emails and phone-like tokens from page
// text and classifies social links. One contact per email, capped; a lone
// phone or social link yields one generic contact.
func (e *Extractor) extractHeuristic(businessName, websiteURL string, address *string, text string, links []string) ([]model.Contact, float64) {
	emails := dedupeKeepOrder(emailRe.FindAllString(text, -1))
	phones := dedupeKeepOrder(phoneRe.FindAllString(text, -1))
	social := classifySocialLinks(links)

	var firstPhone *string
	if len(phones) > 0 {
		firstPhone = &phones[0]
	}

	var contacts []model.Contact
	switch {
	case len(emails) > 0:
		for _, email := range emails {
			if len(contacts) == maxHeuristicContacts {
				break
			}
			email := email
			contacts = append(contacts, model.Contact{
				Name:            nameFromEmail(email),
				Email:           &email,
				Phone:           firstPhone,
				Company:         strPtr(businessName),
				Website:         strPtr(websiteURL),
				Address:         address,
				LinkedInURL:     social.linkedIn,
				TwitterURL:      social.twitter,
				FacebookURL:     social.facebook,
				InstagramURL:    social.instagram,
				YouTubeURL:      social.youTube,
				OtherSocialURLs: social.other,
				SourceURL:       strPtr(websiteURL),
			})
		}
	case len(phones) > 0 || social.any():
		contacts = append(contacts, model.Contact{
			Name:            businessName + " Contact",
			Phone:           firstPhone,
			Company:         strPtr(businessName),
			Website:         strPtr(websiteURL),
			Address:         address,
			LinkedInURL:     social.linkedIn,
			TwitterURL:      social.twitter,
			FacebookURL:     social.facebook,
			InstagramURL:    social.instagram,
			YouTubeURL:      social.youTube,
			OtherSocialURLs: social.other,
			SourceURL:       strPtr(websiteURL),
		})
	}

	if len(contacts) == 0 {
		return nil, 0
	}

	evidence := 0
	if len(emails) > 0 {
		evidence++
	}
	if len(phones) > 0 {
		evidence++
	}
	if social.any() {
		evidence++
	}
	confidence := 0.2*float64(evidence) + 0.1
	if confidence > 0.7 {
		confidence = 0.7
	}
	return contacts, confidence
}

const extractPromptTemplate = `Extract all possible contact and lead enrichment data for the business below.

Business name: %s.%s
Website: %s

Website content (truncated):
%s

Discovered links:
%s

Return JSON only with this structure:
{
  "contacts": [
    {
      "name": "Full Name",
      "first_name": "First",
      "last_name": "Last",
      "title": "Job Title",
      "email": "email@example.com",
      "phone": "+1-234-567-8900",
      "mobile_phone": "+1-555-555-5555",
      "department": "Sales/Marketing/Leadership",
      "company": "Company Name",
      "website": "https://company.com",
      "industry": "Software/IT/Healthcare/etc",
      "address": "Street address",
      "city": "City",
      "state": "State",
      "postal_code": "12345",
      "country": "Country",
      "linkedin_url": "https://www.linkedin.com/in/...",
      "twitter_url": "https://twitter.com/...",
      "facebook_url": "https://facebook.com/...",
      "instagram_url": "https://instagram.com/...",
      "youtube_url": "https://youtube.com/...",
      "other_social_urls": ["https://..."],
      "source_url": "https://example.com/team",
      "notes": "Anything else relevant"
    }
  ],
  "confidence": 0.85
}

Rules:
- Only include contacts you can confidently identify from the text/links.
- If nothing is found, return empty contacts and confidence 0.
- Return ONLY valid JSON, no extra text.
`

// extractWithLLM runs the structured extraction pass. Any failure returns
// zero contacts so the heuristic path can take over.
func (e *Extractor) extractWithLLM(ctx context.Context, businessName, websiteURL string, address *string, text string, links []string) ([]model.Contact, float64) {
	addressText := ""
	if address != nil && *address != "" {
		addressText = " Known address: " + *address + "."
	}
	if len(text) > 4000 {
		text = text[:4000]
	}
	promptLinks := links
	if len(promptLinks) > 50 {
		promptLinks = promptLinks[:50]
	}

	prompt := fmt.Sprintf(extractPromptTemplate,
		businessName, addressText, websiteURL, text, strings.Join(promptLinks, "\n"))

	raw, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		zap.L().Warn("enrich: llm extraction failed",
			zap.String("business", businessName),
			zap.Error(err),
		)
		return nil, 0
	}

	data, ok := llm.DecodeObject(raw)
	if !ok {
		return nil, 0
	}

	rawContacts, _ := data["contacts"].([]any)
	var contacts []model.Contact
	for _, rc := range rawContacts {
		contactMap, ok := rc.(map[string]any)
		if !ok {
			continue
		}
		contact, err := decodeContact(contactMap)
		if err != nil {
			zap.L().Debug("enrich: unparseable llm contact", zap.Error(err))
			continue
		}
		if contact.Name == "" {
			if contact.Email != nil {
				contact.Name = nameFromEmail(*contact.Email)
			} else {
				contact.Name = "Unknown"
			}
		}
		if contact.SourceURL == nil || *contact.SourceURL == "" {
			contact.SourceURL = strPtr(websiteURL)
		}
		contacts = append(contacts, contact)
	}

	if len(contacts) == 0 {
		return nil, 0
	}

	confidence := defaultLLMConfidence
	if v, ok := data["confidence"]; ok {
		if f, ok := v.(float64); ok {
			confidence = f
		}
	}
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return contacts, confidence
}

// decodeContact round-trips one loosely typed LLM contact through JSON
// into the typed schema.
func decodeContact(contactMap map[string]any) (model.Contact, error) {
	var contact model.Contact
	encoded, err := json.Marshal(contactMap)
	if err != nil {
		return contact, err
	}
	if err := json.Unmarshal(encoded, &contact); err != nil {
		return contact, err
	}
	return contact, nil
}

// nameFromEmail title-cases the email local-part, mapping dots and
// underscores to spaces. "jane.doe@acme.com" becomes "Jane Doe".
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.ReplaceAll(local, ".", " ")
	local = strings.ReplaceAll(local, "_", " ")
	name := strings.TrimSpace(cases.Title(language.English).String(local))
	if name == "" {
		return "Unknown"
	}
	return name
}

type socialLinks struct {
	linkedIn  *string
	twitter   *string
	facebook  *string
	instagram *string
	youTube   *string
	other     []string
}

func (s socialLinks) any() bool {
	return s.linkedIn != nil || s.twitter != nil || s.facebook != nil ||
		s.instagram != nil || s.youTube != nil || len(s.other) > 0
}

// classifySocialLinks buckets discovered links by platform substring.
// The first match per platform wins; everything else lands in other.
func classifySocialLinks(links []string) socialLinks {
	var social socialLinks
	for _, link := range links {
		link := link
		lower := strings.ToLower(link)
		switch {
		case strings.Contains(lower, "linkedin.com") && social.linkedIn == nil:
			social.linkedIn = &link
		case (strings.Contains(lower, "twitter.com") || strings.Contains(lower, "x.com")) && social.twitter == nil:
			social.twitter = &link
		case strings.Contains(lower, "facebook.com") && social.facebook == nil:
			social.facebook = &link
		case strings.Contains(lower, "instagram.com") && social.instagram == nil:
			social.instagram = &link
		case strings.Contains(lower, "youtube.com") && social.youTube == nil:
			social.youTube = &link
		default:
			if !containsString(social.other, link) {
				social.other = append(social.other, link)
			}
		}
	}
	return social
}

func dedupeKeepOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }
