// Package gdelt queries the GDELT DOC 2.0 article list API.
package gdelt

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
	defaultBaseURL = "https://api.gdeltproject.org/api/v2/doc/doc"

	// maxRecords is the largest page GDELT serves per request.
	maxRecords = 50

	// seenDateLayout is GDELT's article timestamp format.
	seenDateLayout = "20060102T150405Z"

	// startDateLayout is the startdatetime query parameter format.
	startDateLayout = "20060102150405"
)

// Connector fetches news-event candidates from GDELT.
type Connector struct {
	baseURL string
	client  *http.Client
}

// New builds a GDELT connector with its own request timeout.
func New(timeout time.Duration) *Connector {
	return &Connector{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewWithBaseURL overrides the endpoint and client, primarily for tests.
func NewWithBaseURL(baseURL string, client *http.Client) *Connector {
	if client == nil {
		client = http.DefaultClient
	}
	return &Connector{baseURL: baseURL, client: client}
}

// Name identifies the source on sessions, logs, and metrics.
func (c *Connector) Name() string { return "gdelt" }

type articleList struct {
	Articles []article `json:"articles"`
}

type article struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Excerpt  string `json:"excerpt"`
	SeenDate string `json:"seendate"`
}

// Fetch queries the ArtList endpoint, passing notBefore through as GDELT's
// native startdatetime filter.
func (c *Connector) Fetch(ctx context.Context, query string, limit int, notBefore *time.Time) ([]discovery.RawResult, error) {
	want := limit
	if want > maxRecords {
		want = maxRecords
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", "ArtList")
	params.Set("maxrecords", fmt.Sprintf("%d", want))
	params.Set("format", "json")
	if notBefore != nil {
		params.Set("startdatetime", notBefore.UTC().Format(startDateLayout))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build gdelt request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch gdelt: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gdelt returned status %d", resp.StatusCode)
	}

	var body articleList
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode gdelt response: %w", err)
	}

	results := make([]discovery.RawResult, 0, len(body.Articles))
	for _, art := range body.Articles {
		if art.Title == "" || art.URL == "" {
			continue
		}
		r := discovery.RawResult{
			Title:   art.Title,
			URL:     art.URL,
			Snippet: art.Excerpt,
		}
		if ts, perr := time.Parse(seenDateLayout, art.SeenDate); perr == nil {
			r.PublishedAt = &ts
		}
		results = append(results, r)
		if len(results) >= want {
			break
		}
	}
	return results, nil
}
