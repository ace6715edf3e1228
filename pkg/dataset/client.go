// Package dataset wraps the external scraping provider's synchronous
// actor-run API, which returns raw dataset items.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Runs can take over a minute; the provider holds the connection open
// until the dataset is ready.
const defaultTimeout = 90 * time.Second

// Client runs provider jobs and returns their dataset items.
type Client interface {
	RunSearch(ctx context.Context, payload map[string]any) ([]map[string]any, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the provider base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiToken string
	actorID  string
	baseURL  string
	http     *http.Client
}

// NewClient creates a provider client. The base URL and actor ID come from
// configuration; there is no meaningful default for either.
func NewClient(baseURL, actorID, apiToken string, opts ...Option) Client {
	c := &httpClient{
		apiToken: apiToken,
		actorID:  actorID,
		baseURL:  baseURL,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RunSearch runs the actor synchronously and returns its dataset items.
// The response is either a bare item array or an {items: [...]} wrapper.
func (c *httpClient) RunSearch(ctx context.Context, payload map[string]any) ([]map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: marshal payload")
	}

	params := url.Values{}
	params.Set("token", c.apiToken)
	params.Set("clean", "true")
	endpoint := c.baseURL + "/v2/acts/" + url.PathEscape(c.actorID) + "/run-sync-get-dataset-items?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "dataset: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	zap.L().Info("dataset: running provider job", zap.String("actor", c.actorID))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("dataset: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	items, err := decodeItems(respBody)
	if err != nil {
		return nil, err
	}

	zap.L().Info("dataset: provider job complete", zap.Int("items", len(items)))
	return items, nil
}

func decodeItems(body []byte) ([]map[string]any, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "dataset: unmarshal response")
	}

	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case map[string]any:
		wrapped, present := v["items"]
		if !present {
			return nil, eris.New("dataset: unexpected response format")
		}
		// A null items field means an empty dataset.
		if wrapped != nil {
			arr, ok := wrapped.([]any)
			if !ok {
				return nil, eris.New("dataset: unexpected response format")
			}
			list = arr
		}
	default:
		return nil, eris.New("dataset: unexpected response format")
	}

	items := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		item, ok := entry.(map[string]any)
		if !ok {
			return nil, eris.New("dataset: non-object dataset item")
		}
		items = append(items, item)
	}
	return items, nil
}
