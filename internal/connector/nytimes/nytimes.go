// Package nytimes queries the New York Times Article Search API. The
// connector is only enabled when an API key is configured.
package nytimes

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
	defaultBaseURL = "https://api.nytimes.com/svc/search/v2/articlesearch.json"
	maxDocs        = 25

	// pubDateLayout matches the API's pub_date field.
	pubDateLayout = "2006-01-02T15:04:05-0700"
)

// Connector fetches paid news-archive candidates from the NYT.
type Connector struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New builds an NYT connector with its own request timeout.
func New(apiKey string, timeout time.Duration) *Connector {
	return &Connector{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewWithBaseURL overrides the endpoint and client, primarily for tests.
func NewWithBaseURL(baseURL, apiKey string, client *http.Client) *Connector {
	if client == nil {
		client = http.DefaultClient
	}
	return &Connector{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name identifies the source on sessions, logs, and metrics.
func (c *Connector) Name() string { return "nytimes" }

type searchResponse struct {
	Response struct {
		Docs []doc `json:"docs"`
	} `json:"response"`
}

type doc struct {
	Headline struct {
		Main string `json:"main"`
	} `json:"headline"`
	WebURL        string `json:"web_url"`
	Abstract      string `json:"abstract"`
	LeadParagraph string `json:"lead_paragraph"`
	PubDate       string `json:"pub_date"`
}

// Fetch queries the article search endpoint sorted newest first, mapping
// notBefore onto the native begin_date filter.
func (c *Connector) Fetch(ctx context.Context, query string, limit int, notBefore *time.Time) ([]discovery.RawResult, error) {
	want := limit
	if want > maxDocs {
		want = maxDocs
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "newest")
	params.Set("api-key", c.apiKey)
	params.Set("page", "0")
	if notBefore != nil {
		params.Set("begin_date", notBefore.UTC().Format("20060102"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build nytimes request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch nytimes: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nytimes returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode nytimes response: %w", err)
	}

	results := make([]discovery.RawResult, 0, len(body.Response.Docs))
	for _, d := range body.Response.Docs {
		if d.Headline.Main == "" || d.WebURL == "" {
			continue
		}
		snippet := d.Abstract
		if snippet == "" {
			snippet = d.LeadParagraph
		}
		r := discovery.RawResult{
			Title:   d.Headline.Main,
			URL:     d.WebURL,
			Snippet: snippet,
		}
		if ts, perr := time.Parse(pubDateLayout, d.PubDate); perr == nil {
			r.PublishedAt = &ts
		}
		results = append(results, r)
		if len(results) >= want {
			break
		}
	}
	return results, nil
}
