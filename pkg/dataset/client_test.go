package dataset

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSearch_BareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/acts/maps-actor/run-sync-get-dataset-items", r.URL.Path)
		assert.Equal(t, "secret-token", r.URL.Query().Get("token"))
		assert.Equal(t, "true", r.URL.Query().Get("clean"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "plumber", payload["searchStringsArray"].([]any)[0])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"title": "Acme Plumbing"}, {"title": "Bolt Pipes"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "maps-actor", "secret-token")
	items, err := client.RunSearch(context.Background(), map[string]any{
		"searchStringsArray": []string{"plumber"},
	})

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Acme Plumbing", items[0]["title"])
}

func TestRunSearch_ItemsWrapper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": [{"title": "Wrapped"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "maps-actor", "secret-token")
	items, err := client.RunSearch(context.Background(), map[string]any{})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Wrapped", items[0]["title"])
}

func TestRunSearch_NullItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": null}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "maps-actor", "secret-token")
	items, err := client.RunSearch(context.Background(), map[string]any{})

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRunSearch_UnexpectedFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "maps-actor", "secret-token")
	_, err := client.RunSearch(context.Background(), map[string]any{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected response format")
}

func TestRunSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error": "insufficient credit"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "maps-actor", "bad-token")
	_, err := client.RunSearch(context.Background(), map[string]any{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}
