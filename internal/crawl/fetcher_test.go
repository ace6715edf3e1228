package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html>
<head><title>Acme Plumbing | Contact</title><style>.x{color:red}</style></head>
<body>
<nav><a href="/about">About</a></nav>
<script>var tracking = "junk";</script>
<h1>Contact Acme Plumbing</h1>
<p>Email us at info@acme-plumbing.example or call +1 (555) 010-2233.</p>
<a href="/team">Our Team</a>
<a href="https://www.linkedin.com/company/acme-plumbing">LinkedIn</a>
<a href="mailto:info@acme-plumbing.example">Mail</a>
<a href="/team">Duplicate</a>
<footer>Copyright Acme</footer>
</body></html>`

func TestFetch_StripsAndCollectsLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "LeadgridBot")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	page, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL+"/contact")
	require.NoError(t, err)

	assert.Equal(t, "Acme Plumbing | Contact", page.Title)
	assert.Contains(t, page.Text, "info@acme-plumbing.example")
	assert.Contains(t, page.Text, "+1 (555) 010-2233")
	assert.NotContains(t, page.Text, "tracking")
	assert.NotContains(t, page.Text, "color:red")
	assert.NotContains(t, page.Text, "Copyright Acme")

	assert.Contains(t, page.Links, srv.URL+"/team")
	assert.Contains(t, page.Links, "https://www.linkedin.com/company/acme-plumbing")
	for _, link := range page.Links {
		assert.NotContains(t, link, "mailto:")
	}
	// Duplicate hrefs collapse.
	count := 0
	for _, link := range page.Links {
		if link == srv.URL+"/team" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFetch_TLSFallback(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><title>Self Signed</title><body>hello there world</body></html>"))
	}))
	defer srv.Close()

	// The default client rejects the self-signed cert; the insecure retry
	// must recover.
	page, err := NewHTTPFetcher().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Self Signed", page.Title)
}

func TestNormalizeWebsiteURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com", "https://example.com", false},
		{"https://example.com/path", "https://example.com/path", false},
		{"http://example.com", "http://example.com", false},
		{"", "", true},
		{"https://", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizeWebsiteURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestBuildContactURLs(t *testing.T) {
	urls := BuildContactURLs("https://example.com/", 6)

	require.Len(t, urls, 6)
	assert.Equal(t, "https://example.com/", urls[0])
	assert.Equal(t, "https://example.com/contact", urls[1])
	assert.Equal(t, "https://example.com/contact-us", urls[2])

	assert.Nil(t, BuildContactURLs("", 6))
	assert.Nil(t, BuildContactURLs("https://example.com", 0))

	all := BuildContactURLs("https://example.com", 50)
	assert.Len(t, all, 1+len(ContactPaths))
}
