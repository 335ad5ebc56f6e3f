// Package mediawiki queries MediaWiki full-text search APIs. It backs both
// the encyclopedia connector (en.wikipedia.org) and the media-library
// connector (commons.wikimedia.org, file namespace).
package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/lgfc/discovery/internal/discovery"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Connector fetches search results from one MediaWiki instance.
type Connector struct {
	name      string
	apiURL    string
	pageBase  string
	namespace string
	maxHits   int
	client    *http.Client
}

// NewWikipedia builds the encyclopedia connector against en.wikipedia.org.
func NewWikipedia(timeout time.Duration) *Connector {
	return &Connector{
		name:     "wikipedia",
		apiURL:   "https://en.wikipedia.org/w/api.php",
		pageBase: "https://en.wikipedia.org/wiki/",
		maxHits:  20,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewCommons builds the media-library connector against Wikimedia Commons,
// searching the file namespace only.
func NewCommons(timeout time.Duration) *Connector {
	return &Connector{
		name:      "commons",
		apiURL:    "https://commons.wikimedia.org/w/api.php",
		pageBase:  "https://commons.wikimedia.org/wiki/",
		namespace: "6",
		maxHits:   25,
		client:    &http.Client{Timeout: timeout},
	}
}

// NewWithAPIURL overrides the endpoint and client, primarily for tests.
func NewWithAPIURL(name, apiURL, pageBase string, maxHits int, client *http.Client) *Connector {
	if client == nil {
		client = http.DefaultClient
	}
	return &Connector{
		name:     name,
		apiURL:   apiURL,
		pageBase: pageBase,
		maxHits:  maxHits,
		client:   client,
	}
}

// Name identifies the source on sessions, logs, and metrics.
func (c *Connector) Name() string { return c.name }

type searchResponse struct {
	Query struct {
		Search []searchHit `json:"search"`
	} `json:"query"`
}

type searchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Fetch runs a list=search query. MediaWiki search has no date operator, so
// notBefore is accepted but ignored; the gate catches already-seen pages.
func (c *Connector) Fetch(ctx context.Context, query string, limit int, _ *time.Time) ([]discovery.RawResult, error) {
	want := limit
	if want > c.maxHits {
		want = c.maxHits
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", fmt.Sprintf("%d", want))
	params.Set("format", "json")
	params.Set("origin", "*")
	if c.namespace != "" {
		params.Set("srnamespace", c.namespace)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.name, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.name, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", c.name, err)
	}

	results := make([]discovery.RawResult, 0, len(body.Query.Search))
	for _, hit := range body.Query.Search {
		if hit.Title == "" {
			continue
		}
		results = append(results, discovery.RawResult{
			Title:   hit.Title,
			URL:     c.pageBase + pageSlug(hit.Title),
			Snippet: tagPattern.ReplaceAllString(hit.Snippet, ""),
		})
		if len(results) >= want {
			break
		}
	}
	return results, nil
}

// pageSlug turns a page title into its canonical URL path segment.
func pageSlug(title string) string {
	return url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
