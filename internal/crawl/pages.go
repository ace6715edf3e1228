package crawl

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ContactPaths are the site paths most likely to carry contact data.
var ContactPaths = []string{
	"/contact",
	"/contact-us",
	"/about",
	"/team",
	"/about-us",
	"/our-team",
	"/staff",
	"/people",
}

// NormalizeWebsiteURL prepends https:// when the input has no scheme and
// rejects inputs whose host component is empty.
func NormalizeWebsiteURL(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", eris.New("crawl: empty website url")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", eris.Wrap(err, "crawl: parse website url")
	}
	if u.Host == "" {
		return "", eris.Errorf("crawl: website url has no host: %s", input)
	}
	return trimmed, nil
}

// BuildContactURLs returns the site root plus the likely contact paths,
// deduplicated and capped at maxPages.
func BuildContactURLs(websiteURL string, maxPages int) []string {
	if websiteURL == "" || maxPages <= 0 {
		return nil
	}

	urls := []string{websiteURL}
	root := strings.TrimRight(websiteURL, "/")
	for _, path := range ContactPaths {
		urls = append(urls, root+path)
	}

	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if len(out) == maxPages {
			break
		}
	}
	return out
}

// FetchAll crawls the URL list in bounded sequence. Page failures are
// skipped, never fatal: the combined text of the pages that did load and the
// union of their links come back in input order.
func FetchAll(ctx context.Context, fetcher Fetcher, urls []string) (string, []string) {
	var chunks []string
	seen := make(map[string]struct{})
	var links []string

	for _, u := range urls {
		page, err := fetcher.Fetch(ctx, u)
		if err != nil {
			zap.L().Debug("crawl: page unavailable", zap.String("url", u), zap.Error(err))
			continue
		}
		if page.Text != "" {
			chunks = append(chunks, page.Text)
		}
		for _, link := range page.Links {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}

	return strings.Join(chunks, "\n"), links
}

// FetchAllConcurrent crawls the URL list with bounded parallelism. Pages are
// independent and failures are isolated, so the suggestion path fans out;
// results keep input order.
func FetchAllConcurrent(ctx context.Context, fetcher Fetcher, urls []string, maxConcurrent int) (string, []string) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	type pageResult struct {
		text  string
		links []string
	}
	results := make([]pageResult, len(urls))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, u := range urls {
		g.Go(func() error {
			page, err := fetcher.Fetch(gCtx, u)
			if err != nil {
				zap.L().Debug("crawl: page unavailable", zap.String("url", u), zap.Error(err))
				return nil
			}
			mu.Lock()
			results[i] = pageResult{text: page.Text, links: page.Links}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var chunks []string
	seen := make(map[string]struct{})
	var links []string
	for _, r := range results {
		if r.text != "" {
			chunks = append(chunks, r.text)
		}
		for _, link := range r.links {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}

	return strings.Join(chunks, "\n"), links
}
