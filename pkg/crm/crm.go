// Package crm forwards normalized leads into external CRM systems.
package crm

import (
	"context"

	"github.com/rotisserie/eris"
)

// ErrMissingEmail means an operation that keys on email got a lead without
// one.
var ErrMissingEmail = eris.New("crm: lead has no email")

// Lead is the normalized lead shape pushed into a CRM. Empty fields are
// omitted from the outgoing payload.
type Lead struct {
	Email        string
	FirstName    string
	LastName     string
	Name         string
	Phone        string
	Company      string
	Website      string
	Address      string
	City         string
	State        string
	Country      string
	PostalCode   string
	BusinessType string
	Rating       *float64
	Latitude     *float64
	Longitude    *float64
}

// Deal is a sales opportunity attached to an optional existing contact.
type Deal struct {
	Name        string
	Stage       string
	Amount      string
	Description string
	ContactID   string
}

// Connector is one CRM integration.
type Connector interface {
	// Name identifies the provider ("hubspot", "zoho", "salesforce").
	Name() string
	// VerifyConnection checks credentials with a cheap read call.
	VerifyConnection(ctx context.Context) error
	// CreateLead creates a new lead and returns its provider ID when the
	// provider reports one.
	CreateLead(ctx context.Context, lead Lead) (string, error)
	// UpsertLead creates or updates a lead keyed on email.
	UpsertLead(ctx context.Context, lead Lead) (string, error)
	// CreateDeal creates a deal, associating it with Deal.ContactID when set.
	CreateDeal(ctx context.Context, deal Deal) (string, error)
}
