// Package profiler wraps the page-profiling service. The service does the
// scraping and text extraction; this client only speaks its JSON contract.
package profiler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/resilience"
)

const defaultBaseURL = "https://profiler.sellsgroup.dev/v1"

// Client performs page profiling operations.
type Client interface {
	Profile(ctx context.Context, pageURL string) (*model.PageProfile, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry overrides the default retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a profiler client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Profile(ctx context.Context, pageURL string) (*model.PageProfile, error) {
	return resilience.DoVal(ctx, c.retry, "profiler", func(ctx context.Context) (*model.PageProfile, error) {
		return c.profileOnce(ctx, pageURL)
	})
}

func (c *httpClient) profileOnce(ctx context.Context, pageURL string) (*model.PageProfile, error) {
	endpoint := c.baseURL + "/profile?url=" + url.QueryEscape(pageURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "profiler: create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "profiler: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "profiler: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("profiler: unexpected status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var profile model.PageProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, eris.Wrap(err, "profiler: unmarshal response")
	}
	if profile.URL == "" {
		profile.URL = pageURL
	}
	return &profile, nil
}
