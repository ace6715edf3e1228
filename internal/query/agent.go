package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/model"
	"github.com/leadgrid/leadgen/pkg/llm"
)

const (
	// pricePerResult is the advertised cost of one extracted place.
	pricePerResult = 0.01
	// defaultAgentMaxResults applies when the user names no count.
	defaultAgentMaxResults = 100
)

const agentPrompt = `You are an AI assistant that converts chat requests into Google Maps extraction parameters. ` +
	`If critical info is missing (business type or location), ask one clarifying question and do not finalize a filter. ` +
	`If business type and location are already present, do not ask any clarifying question. ` +
	`Treat 'near me' as a valid location and set locationQuery to 'near me' (do not ask for a city). ` +
	`If the latest user message is a location-only reply (e.g., a place name) and earlier context includes the business type, combine them into a complete filter. ` +
	`If you already asked a clarification, use the user's next reply to fill the missing field instead of repeating the question. ` +
	`Otherwise, return a concise, friendly message plus a structured filter. ` +
	`Use maxResults only when user explicitly provides a number; otherwise default to 100. ` +
	"Always output JSON only.\n\n" +
	"Return JSON with this schema:\n" +
	"{\n" +
	"  \"message\": string,\n" +
	"  \"needsClarification\": boolean,\n" +
	"  \"clarificationQuestion\": string | null,\n" +
	"  \"needsConfirmation\": boolean,\n" +
	"  \"queryText\": string,\n" +
	"  \"filter\": {\n" +
	"     \"searchQuery\": string,\n" +
	"     \"locationQuery\": string,\n" +
	"     \"maxResults\": number,\n" +
	"     \"language\": \"en\",\n" +
	"     \"region\": \"us\",\n" +
	"     \"skipClosedPlaces\": true,\n" +
	"     \"scrapeEmails\": true,\n" +
	"     \"scrapeSocialMedia\": true,\n" +
	"     \"scrapeReviewsDetail\": boolean,\n" +
	"     \"maxReviews\": number\n" +
	"  } | null\n" +
	"}\n\n" +
	"CHAT HISTORY:\n%s\n\n" +
	"LATEST USER MESSAGE:\n%s\n"

// Agent turns a chat conversation into a provider extraction filter,
// asking one clarifying question per turn while the business type or
// location is still missing.
type Agent struct {
	llm llm.Client
}

// NewAgent creates an Agent. A nil client leaves it unconfigured; Chat then
// fails fast.
func NewAgent(client llm.Client) *Agent {
	return &Agent{llm: client}
}

// Chat answers one conversation turn. The returned reply either carries a
// finalized filter with its cost estimate, or a clarification question.
func (a *Agent) Chat(ctx context.Context, message string, history []model.ChatMessage) (model.AgentReply, error) {
	if a.llm == nil {
		return model.AgentReply{}, eris.Wrap(ErrUnconfigured, "agent chat")
	}

	raw, err := a.llm.Complete(ctx, agentChatPrompt(message, history))
	if err != nil {
		zap.L().Warn("query: agent backend unreachable", zap.Error(err))
		return model.AgentReply{}, eris.Wrap(ErrUnconfigured, err.Error())
	}

	data, ok := llm.DecodeObject(raw)
	if !ok {
		return model.AgentReply{}, eris.Wrap(ErrParse, "no JSON object in agent response")
	}

	reply := model.AgentReply{
		Message:               stringField(data, "message"),
		QueryText:             optionalString(data, "queryText"),
		NeedsConfirmation:     boolField(data, "needsConfirmation"),
		NeedsClarification:    boolField(data, "needsClarification"),
		ClarificationQuestion: optionalString(data, "clarificationQuestion"),
	}
	if filter, ok := data["filter"].(map[string]any); ok {
		reply.Filter = decodeFilter(filter)
	}
	return reply, nil
}

func agentChatPrompt(message string, history []model.ChatMessage) string {
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		role := strings.ToUpper(strings.TrimSpace(turn.Role))
		if role == "" {
			role = "USER"
		}
		lines = append(lines, role+": "+turn.Content)
	}
	return fmt.Sprintf(agentPrompt, strings.Join(lines, "\n"), message)
}

// decodeFilter coerces the agent's filter object and attaches the cost
// estimate derived from maxResults.
func decodeFilter(data map[string]any) *model.ExtractionFilter {
	maxResults := intField(data, "maxResults", defaultAgentMaxResults)
	if maxResults <= 0 {
		maxResults = defaultAgentMaxResults
	}

	return &model.ExtractionFilter{
		SearchQuery:         stringField(data, "searchQuery"),
		LocationQuery:       stringField(data, "locationQuery"),
		MaxResults:          maxResults,
		Language:            stringField(data, "language"),
		Region:              stringField(data, "region"),
		SkipClosedPlaces:    boolField(data, "skipClosedPlaces"),
		ScrapeEmails:        boolField(data, "scrapeEmails"),
		ScrapeSocialMedia:   boolField(data, "scrapeSocialMedia"),
		ScrapeReviewsDetail: boolField(data, "scrapeReviewsDetail"),
		MaxReviews:          intField(data, "maxReviews", 0),
		EstimatedCredits:    maxResults,
		CostEstimate:        fmt.Sprintf("$%.2f", float64(maxResults)*pricePerResult),
	}
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func optionalString(data map[string]any, key string) *string {
	s, ok := data[key].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func boolField(data map[string]any, key string) bool {
	b, _ := data[key].(bool)
	return b
}

func intField(data map[string]any, key string, fallback int) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
