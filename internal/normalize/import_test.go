package normalize

import (
	"encoding/json"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, raw string) any {
	t.Helper()
	var payload any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func TestExtractPayload_BareArray(t *testing.T) {
	items, query, err := ExtractPayload(decodePayload(t, `[{"title": "A"}, {"title": "B"}]`))

	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "provider_import", query)
}

func TestExtractPayload_WrappedItems(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"items key", `{"items": [{"title": "A"}], "query": "cafes in berlin"}`},
		{"data key", `{"data": [{"title": "A"}], "query": "cafes in berlin"}`},
		{"results key", `{"results": [{"title": "A"}], "query": "cafes in berlin"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, query, err := ExtractPayload(decodePayload(t, tt.raw))
			require.NoError(t, err)
			assert.Len(t, items, 1)
			assert.Equal(t, "cafes in berlin", query)
		})
	}
}

func TestExtractPayload_QueryLabelAliases(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"items": [], "searchQuery": "plumbers"}`, "plumbers"},
		{`{"items": [], "search_string": "dentists"}`, "dentists"},
		{`{"items": [], "searchString": "florists"}`, "florists"},
		{`{"items": []}`, "provider_import"},
	}

	for _, tt := range tests {
		_, query, err := ExtractPayload(decodePayload(t, tt.raw))
		require.NoError(t, err)
		assert.Equal(t, tt.want, query)
	}
}

func TestExtractPayload_BareObjectBecomesSingleItem(t *testing.T) {
	items, query, err := ExtractPayload(decodePayload(t, `{"title": "Solo Business", "placeId": "p-1"}`))

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Solo Business", items[0]["title"])
	assert.Equal(t, "provider_import", query)
}

func TestExtractPayload_EmptyObject(t *testing.T) {
	items, _, err := ExtractPayload(decodePayload(t, `{}`))

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExtractPayload_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"scalar payload", `"just a string"`},
		{"non-object item", `[{"title": "A"}, "nope"]`},
		{"items not an array", `{"items": {"title": "A"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ExtractPayload(decodePayload(t, tt.raw))
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrInvalidPayload))
		})
	}
}
