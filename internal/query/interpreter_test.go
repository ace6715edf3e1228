package query

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM returns a canned completion or a canned error.
type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestParse_Success(t *testing.T) {
	interp := NewInterpreter(&fakeLLM{
		response: `{"searchItem": "dental clinic", "location": "Pune", "language": "en"}`,
	})

	parsed, err := interp.Parse(context.Background(), "dental clinics in Pune")
	require.NoError(t, err)

	assert.Equal(t, "dental clinic", parsed.SearchItem)
	assert.Equal(t, "Pune", parsed.Location)
	assert.Equal(t, "en", parsed.Language)
}

func TestParse_TolerantJSONExtraction(t *testing.T) {
	interp := NewInterpreter(&fakeLLM{
		response: "Sure! Here is the result:\n```json\n{\"searchItem\": \"cafe\", \"location\": \"\", \"language\": \"EN_US\"}\n```",
	})

	parsed, err := interp.Parse(context.Background(), "cafes")
	require.NoError(t, err)

	assert.Equal(t, "cafe", parsed.SearchItem)
	assert.Equal(t, "near me", parsed.Location)
	assert.Equal(t, "en-us", parsed.Language)
}

func TestParse_ErrorPaths(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		_, err := NewInterpreter(nil).Parse(context.Background(), "plumbers")
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrUnconfigured))
	})

	t.Run("backend unreachable", func(t *testing.T) {
		interp := NewInterpreter(&fakeLLM{err: eris.New("dial tcp: timeout")})
		_, err := interp.Parse(context.Background(), "plumbers")
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrUnconfigured))
	})

	t.Run("no JSON in output", func(t *testing.T) {
		interp := NewInterpreter(&fakeLLM{response: "I could not determine the intent."})
		_, err := interp.Parse(context.Background(), "plumbers")
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrParse))
	})

	t.Run("empty search item", func(t *testing.T) {
		interp := NewInterpreter(&fakeLLM{response: `{"searchItem": "  ", "location": "Austin", "language": "en"}`})
		_, err := interp.Parse(context.Background(), "hmm")
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrIntent))
	})
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"en_US", "en-us"},
		{"pt-BR", "pt-br"},
		{"hin", "hin"},
		{"", "en"},
		{"english language", "en"},
		{"e", "en"},
		{nil, "en"},
		{42.0, "en"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLanguage(tt.in), "%v", tt.in)
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pune", "Pune"},
		{"the Bay Area", "Bay"},
		{"Dallas metroplex", "Dallas"},
		{"", "near me"},
		{"   ", "near me"},
		{"Southeast US", "United States"},
		{"northern India", "India"},
		{"western Canada", "Canada"},
		{"South Austin", "South Austin"},
		{"Northern Virginia", "Northern Virginia"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLocation(tt.in), tt.in)
	}
}

func TestIsWebsiteInput(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"example.com", true},
		{"https://a.b.co/path", true},
		{"http://example.com", true},
		{"sub.domain.example.org", true},
		{"cafe near me", false},
		{"restaurants", false},
		{"https://", false},
		{"http://nohost", false},
		{"", false},
		{"dentists in pune.com area", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsWebsiteInput(tt.in), tt.in)
	}
}
