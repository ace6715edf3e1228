package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultZohoBaseURL = "https://www.zohoapis.com/crm/v2"

// ZohoOption configures the Zoho connector.
type ZohoOption func(*zohoClient)

// WithZohoBaseURL overrides the API base URL.
func WithZohoBaseURL(url string) ZohoOption {
	return func(c *zohoClient) {
		c.baseURL = url
	}
}

// WithZohoHTTPClient overrides the default http.Client.
func WithZohoHTTPClient(hc *http.Client) ZohoOption {
	return func(c *zohoClient) {
		c.http = hc
	}
}

type zohoClient struct {
	accessToken string
	baseURL     string
	http        *http.Client
}

// NewZoho creates a Zoho CRM connector.
func NewZoho(accessToken string, opts ...ZohoOption) Connector {
	c := &zohoClient{
		accessToken: accessToken,
		baseURL:     defaultZohoBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *zohoClient) Name() string { return "zoho" }

func (c *zohoClient) VerifyConnection(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return eris.Wrap(err, "zoho: verify connection")
	}
	return nil
}

func (c *zohoClient) CreateLead(ctx context.Context, lead Lead) (string, error) {
	payload := map[string]any{"data": []map[string]any{zohoLeadRecord(lead)}}
	body, err := c.do(ctx, http.MethodPost, "/Leads", payload)
	if err != nil {
		return "", eris.Wrap(err, "zoho: create lead")
	}
	return zohoRecordID(body), nil
}

// UpsertLead degrades to a create: Zoho upserts key on a configured
// external ID field this integration does not manage.
func (c *zohoClient) UpsertLead(ctx context.Context, lead Lead) (string, error) {
	return c.CreateLead(ctx, lead)
}

func (c *zohoClient) CreateDeal(ctx context.Context, deal Deal) (string, error) {
	record := map[string]any{
		"Deal_Name":   deal.Name,
		"Stage":       deal.Stage,
		"Description": deal.Description,
	}
	if deal.Amount != "" {
		record["Amount"] = deal.Amount
	}
	payload := map[string]any{"data": []map[string]any{record}}

	body, err := c.do(ctx, http.MethodPost, "/Deals", payload)
	if err != nil {
		return "", eris.Wrap(err, "zoho: create deal")
	}
	return zohoRecordID(body), nil
}

func (c *zohoClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, eris.Wrap(err, "zoho: marshal request")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, eris.Wrap(err, "zoho: create request")
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "zoho: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "zoho: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("zoho: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// zohoRecordID digs the created record ID out of Zoho's response envelope.
func zohoRecordID(body []byte) string {
	var result struct {
		Data []struct {
			Details struct {
				ID string `json:"id"`
			} `json:"details"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil || len(result.Data) == 0 {
		return ""
	}
	return result.Data[0].Details.ID
}

func zohoLeadRecord(lead Lead) map[string]any {
	record := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			record[key] = value
		}
	}

	lastName := lead.LastName
	if lastName == "" {
		lastName = lead.Name
	}
	// Zoho rejects leads without Last_Name.
	if lastName == "" {
		lastName = lead.Company
	}
	set("Last_Name", lastName)
	set("First_Name", lead.FirstName)
	set("Email", lead.Email)
	set("Phone", lead.Phone)
	set("Company", lead.Company)
	set("Website", lead.Website)
	set("Street", lead.Address)
	set("City", lead.City)
	set("State", lead.State)
	set("Country", lead.Country)
	set("Zip_Code", lead.PostalCode)
	set("Industry", lead.BusinessType)
	return record
}
