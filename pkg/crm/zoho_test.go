package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoho_CreateLead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/Leads", r.URL.Path)
		assert.Equal(t, "Zoho-oauthtoken z-token", r.Header.Get("Authorization"))

		var payload struct {
			Data []map[string]any `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Data, 1)
		assert.Equal(t, "Doe", payload.Data[0]["Last_Name"])
		assert.Equal(t, "jane@acme.example", payload.Data[0]["Email"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data": [{"details": {"id": "zoho-55"}}]}`))
	}))
	defer srv.Close()

	connector := NewZoho("z-token", WithZohoBaseURL(srv.URL))
	id, err := connector.CreateLead(context.Background(), Lead{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@acme.example",
	})

	require.NoError(t, err)
	assert.Equal(t, "zoho-55", id)
}

func TestZoho_LastNameFallsBackToCompany(t *testing.T) {
	record := zohoLeadRecord(Lead{Company: "Acme Plumbing"})
	assert.Equal(t, "Acme Plumbing", record["Last_Name"])
}

func TestZoho_CreateDeal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Deals", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data": [{"details": {"id": "deal-7"}}]}`))
	}))
	defer srv.Close()

	connector := NewZoho("z-token", WithZohoBaseURL(srv.URL))
	id, err := connector.CreateDeal(context.Background(), Deal{Name: "Expansion", Stage: "Qualification"})

	require.NoError(t, err)
	assert.Equal(t, "deal-7", id)
}

func TestZoho_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code": "INVALID_TOKEN"}`))
	}))
	defer srv.Close()

	connector := NewZoho("stale", WithZohoBaseURL(srv.URL))
	err := connector.VerifyConnection(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSalesforceContactRecord(t *testing.T) {
	rating := 4.5
	record := salesforceContactRecord(Lead{
		Name:       "Acme Plumbing",
		Email:      "info@acme.example",
		Phone:      "+1 217 555 0100",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Rating:     &rating,
	})

	assert.Equal(t, "Acme Plumbing", record["LastName"])
	assert.Equal(t, "info@acme.example", record["Email"])
	assert.Equal(t, "Springfield", record["MailingCity"])
	_, hasStreet := record["MailingStreet"]
	assert.False(t, hasStreet)
}
