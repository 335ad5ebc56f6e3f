// Package brave implements the premium keyed web-search connector. When its
// credential is configured it fully replaces the free connector set for a
// run: one recency-oriented news search plus one general web search, merged
// locally with first-URL-wins dedup.
package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/lgfc/discovery/internal/discovery"
)

const (
	defaultNewsURL = "https://api.search.brave.com/res/v1/news/search"
	defaultWebURL  = "https://api.search.brave.com/res/v1/web/search"

	// maxCount is the largest page size the API serves.
	maxCount = 20

	// pageAgeLayout matches the page_age timestamps on results.
	pageAgeLayout = "2006-01-02T15:04:05"
)

// Connector fetches candidates from the Brave Search API.
type Connector struct {
	newsURL string
	webURL  string
	apiKey  string
	client  *http.Client
}

// New builds a Brave connector with its own request timeout.
func New(apiKey string, timeout time.Duration) *Connector {
	return &Connector{
		newsURL: defaultNewsURL,
		webURL:  defaultWebURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewWithEndpoints overrides the endpoints and client, primarily for tests.
func NewWithEndpoints(newsURL, webURL, apiKey string, client *http.Client) *Connector {
	if client == nil {
		client = http.DefaultClient
	}
	return &Connector{newsURL: newsURL, webURL: webURL, apiKey: apiKey, client: client}
}

// Name identifies the source on sessions, logs, and metrics.
func (c *Connector) Name() string { return "brave" }

type result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PageAge     string `json:"page_age"`
}

type newsResponse struct {
	Results []result `json:"results"`
}

type webResponse struct {
	Web struct {
		Results []result `json:"results"`
	} `json:"web"`
}

// Fetch issues the news call then the web call and merges them, news first.
// Brave has no absolute date operator, so notBefore is accepted but not
// forwarded; the news call's recency ordering plus the gate cover it.
func (c *Connector) Fetch(ctx context.Context, query string, limit int, _ *time.Time) ([]discovery.RawResult, error) {
	want := limit
	if want > maxCount {
		want = maxCount
	}

	var news newsResponse
	if err := c.get(ctx, c.newsURL, query, want, &news); err != nil {
		return nil, fmt.Errorf("news search: %w", err)
	}
	var web webResponse
	if err := c.get(ctx, c.webURL, query, want, &web); err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	merged := make([]discovery.RawResult, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, r := range append(news.Results, web.Web.Results...) {
		if r.Title == "" || r.URL == "" {
			continue
		}
		if _, dup := seen[r.URL]; dup {
			continue
		}
		seen[r.URL] = struct{}{}
		out := discovery.RawResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Description,
		}
		if ts, perr := parsePageAge(r.PageAge); perr == nil {
			out.PublishedAt = &ts
		}
		merged = append(merged, out)
		if len(merged) >= limit {
			break
		}
	}
	return merged, nil
}

func (c *Connector) get(ctx context.Context, endpoint, query string, count int, out any) error {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", fmt.Sprintf("%d", count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build brave request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch brave: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("brave returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode brave response: %w", err)
	}
	return nil
}

func parsePageAge(raw string) (time.Time, error) {
	if ts, err := time.Parse(pageAgeLayout, raw); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, raw)
}
