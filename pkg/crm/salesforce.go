package crm

import (
	"context"
	"strconv"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// SalesforceOption configures the Salesforce connector.
type SalesforceOption func(*salesforceClient)

// WithSalesforceRateLimit sets a per-second limit on Salesforce API calls.
func WithSalesforceRateLimit(rps float64) SalesforceOption {
	return func(c *salesforceClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// salesforceClient wraps a go-salesforce/v3 session.
//
// The underlying library does not accept context.Context; ctx only governs
// the rate limiter wait.
type salesforceClient struct {
	sf      *salesforce.Salesforce
	limiter *rate.Limiter
}

// NewSalesforce creates a Salesforce connector around an authenticated
// go-salesforce session.
func NewSalesforce(sf *salesforce.Salesforce, opts ...SalesforceOption) Connector {
	c := &salesforceClient{sf: sf}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *salesforceClient) Name() string { return "salesforce" }

func (c *salesforceClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *salesforceClient) VerifyConnection(ctx context.Context) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "sf: rate limit")
	}
	resp, err := c.sf.DoRequest("GET", "/sobjects", nil)
	if err != nil {
		return eris.Wrap(err, "sf: verify connection")
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != 200 {
		return eris.Errorf("sf: verify connection status %d", resp.StatusCode)
	}
	return nil
}

func (c *salesforceClient) CreateLead(ctx context.Context, lead Lead) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", eris.Wrap(err, "sf: rate limit")
	}

	result, err := c.sf.InsertOne("Contact", salesforceContactRecord(lead))
	if err != nil {
		return "", eris.Wrap(err, "sf: insert Contact")
	}
	if !result.Success {
		return "", eris.Errorf("sf: insert Contact failed: %v", result.Errors)
	}
	return result.Id, nil
}

// UpsertLead degrades to a create: upserting requires an external ID field
// this integration does not manage.
func (c *salesforceClient) UpsertLead(ctx context.Context, lead Lead) (string, error) {
	return c.CreateLead(ctx, lead)
}

func (c *salesforceClient) CreateDeal(ctx context.Context, deal Deal) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", eris.Wrap(err, "sf: rate limit")
	}

	stage := deal.Stage
	if stage == "" {
		stage = "Prospecting"
	}
	record := map[string]any{
		"Name":      deal.Name,
		"StageName": stage,
		// Opportunity requires a close date.
		"CloseDate": time.Now().AddDate(0, 0, 30).Format("2006-01-02"),
	}
	if deal.Description != "" {
		record["Description"] = deal.Description
	}
	if deal.Amount != "" {
		if amount, err := strconv.ParseFloat(deal.Amount, 64); err == nil {
			record["Amount"] = amount
		}
	}

	result, err := c.sf.InsertOne("Opportunity", record)
	if err != nil {
		return "", eris.Wrap(err, "sf: insert Opportunity")
	}
	if !result.Success {
		return "", eris.Errorf("sf: insert Opportunity failed: %v", result.Errors)
	}
	return result.Id, nil
}

func salesforceContactRecord(lead Lead) map[string]any {
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
	// Contact requires LastName.
	if lastName == "" {
		lastName = lead.Company
	}
	set("LastName", lastName)
	set("FirstName", lead.FirstName)
	set("Email", lead.Email)
	set("Phone", lead.Phone)
	set("MailingStreet", lead.Address)
	set("MailingCity", lead.City)
	set("MailingState", lead.State)
	set("MailingPostalCode", lead.PostalCode)
	set("MailingCountry", lead.Country)
	set("Description", lead.Website)
	return record
}
