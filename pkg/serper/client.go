// Package serper wraps the SERP provider API (serper.dev-compatible).
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/linkforge/internal/model"
	"github.com/sells-group/linkforge/internal/resilience"
)

const defaultBaseURL = "https://google.serper.dev"

// Query identifies one SERP fetch.
type Query struct {
	Text     string
	Language string
	Location string
	TopN     int
}

// Client fetches ranked search results.
type Client interface {
	Fetch(ctx context.Context, q Query) ([]model.SerpResult, error)
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

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a SERP provider client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchRequest struct {
	Q   string `json:"q"`
	HL  string `json:"hl,omitempty"`
	GL  string `json:"gl,omitempty"`
	Num int    `json:"num,omitempty"`
}

type searchResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
}

func (c *httpClient) Fetch(ctx context.Context, q Query) ([]model.SerpResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "serper: rate limit wait")
		}
	}
	return resilience.DoVal(ctx, c.retry, "serper", func(ctx context.Context) ([]model.SerpResult, error) {
		return c.fetchOnce(ctx, q)
	})
}

func (c *httpClient) fetchOnce(ctx context.Context, q Query) ([]model.SerpResult, error) {
	topN := q.TopN
	if topN <= 0 {
		topN = 10
	}
	body, err := json.Marshal(searchRequest{
		Q:   q.Text,
		HL:  q.Language,
		GL:  q.Location,
		Num: topN,
	})
	if err != nil {
		return nil, eris.Wrap(err, "serper: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "serper: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serper: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serper: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("serper: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "serper: unmarshal response")
	}

	out := make([]model.SerpResult, 0, len(result.Organic))
	for i, r := range result.Organic {
		rank := r.Position
		if rank <= 0 {
			rank = i + 1
		}
		if rank > topN {
			continue
		}
		out = append(out, model.SerpResult{
			Rank:    rank,
			Title:   r.Title,
			URL:     r.Link,
			Snippet: r.Snippet,
		})
	}
	return out, nil
}
