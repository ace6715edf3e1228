// Package crawl fetches business web pages and returns plaintext content
// plus discovered links. It is the page-fetch collaborator for contact
// extraction and website query suggestions.
package crawl

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/model"
)

const (
	userAgent   = "Mozilla/5.0 (compatible; LeadgridBot/1.0)"
	maxBodySize = 512 * 1024
)

// Fetcher fetches a single URL and returns its content.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.CrawledPage, error)
}

// HTTPFetcher fetches HTML via net/http and converts it to plaintext.
// Certificate failures retry once without verification; many small-business
// sites ship incomplete chains.
type HTTPFetcher struct {
	client   *http.Client
	insecure *http.Client
}

// Option configures the fetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient overrides the default verified http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = hc
	}
}

// WithTimeout overrides the per-page fetch timeout on the default clients.
func WithTimeout(timeout time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.client.Timeout = timeout
		f.insecure.Timeout = timeout
	}
}

// NewHTTPFetcher creates an HTTPFetcher with sensible defaults.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	f := &HTTPFetcher{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		insecure: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch retrieves a page, strips it to plaintext, and collects outbound
// links resolved against the page URL.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (*model.CrawledPage, error) {
	resp, err := f.get(ctx, f.client, targetURL)
	if err != nil {
		var tlsErr *tls.CertificateVerificationError
		if eris.As(err, &tlsErr) {
			zap.L().Debug("crawl: tls verification failed, retrying insecure",
				zap.String("url", targetURL),
			)
			resp, err = f.get(ctx, f.insecure, targetURL)
		}
		if err != nil {
			return nil, eris.Wrap(err, "crawl: fetch")
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("crawl: status %d for %s", resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, eris.Wrap(err, "crawl: read body")
	}

	html := string(body)
	return &model.CrawledPage{
		URL:        targetURL,
		Title:      extractTitle(html),
		Text:       stripHTML(html),
		Links:      extractLinks(html, targetURL),
		StatusCode: resp.StatusCode,
	}, nil
}

func (f *HTTPFetcher) get(ctx context.Context, client *http.Client, targetURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "crawl: create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return client.Do(req)
}

var (
	titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)
	hrefRe  = regexp.MustCompile(`(?i)href\s*=\s*["']([^"'#]+)["']`)
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRe = regexp.MustCompile(`[ \t]+`)
	nlRe    = regexp.MustCompile(`\n{3,}`)
)

func extractTitle(html string) string {
	m := titleRe.FindStringSubmatch(html)
	if len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractLinks resolves every href against the page URL and keeps http(s)
// targets only, deduplicated in document order.
func extractLinks(html, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	for _, m := range hrefRe.FindAllStringSubmatch(html, -1) {
		ref, err := url.Parse(strings.TrimSpace(m[1]))
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		link := resolved.String()
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// stripHTML removes script/style/nav/footer blocks, strips tags, decodes
// common entities, and collapses whitespace.
func stripHTML(html string) string {
	for _, tag := range []string{"script", "style", "nav", "footer"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		html = re.ReplaceAllString(html, "")
	}

	html = tagRe.ReplaceAllString(html, " ")

	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	html = spaceRe.ReplaceAllString(html, " ")
	html = nlRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}
