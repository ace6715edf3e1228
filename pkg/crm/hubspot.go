package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultHubSpotBaseURL = "https://api.hubapi.com"

// HubSpotOption configures the HubSpot connector.
type HubSpotOption func(*hubspotClient)

// WithHubSpotBaseURL overrides the API base URL.
func WithHubSpotBaseURL(url string) HubSpotOption {
	return func(c *hubspotClient) {
		c.baseURL = url
	}
}

// WithHubSpotHTTPClient overrides the default http.Client.
func WithHubSpotHTTPClient(hc *http.Client) HubSpotOption {
	return func(c *hubspotClient) {
		c.http = hc
	}
}

type hubspotClient struct {
	accessToken string
	baseURL     string
	http        *http.Client
}

// NewHubSpot creates a HubSpot connector using a private app access token.
func NewHubSpot(accessToken string, opts ...HubSpotOption) Connector {
	c := &hubspotClient{
		accessToken: accessToken,
		baseURL:     defaultHubSpotBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *hubspotClient) Name() string { return "hubspot" }

func (c *hubspotClient) VerifyConnection(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/crm/v3/objects/contacts?limit=1", nil)
	if err != nil {
		return eris.Wrap(err, "hubspot: verify connection")
	}
	return nil
}

func (c *hubspotClient) CreateLead(ctx context.Context, lead Lead) (string, error) {
	payload := map[string]any{"properties": hubspotProperties(lead)}
	body, err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts", payload)
	if err != nil {
		return "", eris.Wrap(err, "hubspot: create lead")
	}

	var contact struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &contact); err != nil {
		return "", eris.Wrap(err, "hubspot: decode contact")
	}
	return contact.ID, nil
}

func (c *hubspotClient) UpsertLead(ctx context.Context, lead Lead) (string, error) {
	if lead.Email == "" {
		return "", eris.Wrap(ErrMissingEmail, "hubspot: upsert")
	}

	payload := map[string]any{
		"inputs": []map[string]any{{
			"id":         lead.Email,
			"idProperty": "email",
			"properties": hubspotProperties(lead),
		}},
	}
	body, err := c.do(ctx, http.MethodPost, "/crm/v3/objects/contacts/batch/upsert", payload)
	if err != nil {
		return "", eris.Wrap(err, "hubspot: upsert lead")
	}

	var result struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", eris.Wrap(err, "hubspot: decode upsert result")
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].ID, nil
}

func (c *hubspotClient) CreateDeal(ctx context.Context, deal Deal) (string, error) {
	properties := map[string]string{
		"dealname":    deal.Name,
		"dealstage":   deal.Stage,
		"amount":      deal.Amount,
		"description": deal.Description,
	}
	if properties["dealname"] == "" {
		properties["dealname"] = "New Deal"
	}
	if properties["dealstage"] == "" {
		properties["dealstage"] = "negotiation"
	}

	body, err := c.do(ctx, http.MethodPost, "/crm/v3/objects/deals", map[string]any{"properties": properties})
	if err != nil {
		return "", eris.Wrap(err, "hubspot: create deal")
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", eris.Wrap(err, "hubspot: decode deal")
	}

	if created.ID != "" && deal.ContactID != "" {
		if err := c.associateDeal(ctx, created.ID, deal.ContactID); err != nil {
			// The deal exists; a failed association is not fatal.
			zap.L().Warn("hubspot: deal association failed",
				zap.String("deal_id", created.ID),
				zap.String("contact_id", deal.ContactID),
				zap.Error(err),
			)
		}
	}
	return created.ID, nil
}

func (c *hubspotClient) associateDeal(ctx context.Context, dealID, contactID string) error {
	payload := map[string]any{
		"inputs": []map[string]any{{
			"id":    dealID,
			"types": []map[string]any{{"associationType": "contact_to_deal"}},
			"to":    map[string]any{"id": contactID},
		}},
	}
	_, err := c.do(ctx, http.MethodPut, "/crm/v3/objects/deals/batch/associate", payload)
	return err
}

func (c *hubspotClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, eris.Wrap(err, "hubspot: marshal request")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("hubspot: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// hubspotProperties maps a lead to HubSpot contact properties, skipping
// empty fields. A bare Name lands in lastname when no last name is set.
func hubspotProperties(lead Lead) map[string]string {
	properties := map[string]string{}
	set := func(key, value string) {
		if value != "" {
			properties[key] = value
		}
	}

	set("email", lead.Email)
	set("firstname", lead.FirstName)
	set("lastname", lead.LastName)
	if properties["lastname"] == "" {
		set("lastname", lead.Name)
	}
	set("phone", lead.Phone)
	set("company", lead.Company)
	set("website", lead.Website)
	set("address", lead.Address)
	set("city", lead.City)
	set("state", lead.State)
	set("country", lead.Country)
	set("zip", lead.PostalCode)
	set("lifecyclestage", lead.BusinessType)
	if lead.Rating != nil {
		set("hs_lead_status", strconv.FormatFloat(*lead.Rating, 'f', -1, 64))
	}
	return properties
}
