// Package archive queries the Internet Archive advanced search API.
package archive

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
	defaultBaseURL = "https://archive.org/advancedsearch.php"
	detailsBase    = "https://archive.org/details/"
	maxRows        = 50
)

// Connector fetches digital-archive candidates from archive.org.
type Connector struct {
	baseURL string
	client  *http.Client
}

// New builds an Internet Archive connector with its own request timeout.
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
func (c *Connector) Name() string { return "archive" }

type searchResponse struct {
	Response struct {
		Docs []doc `json:"docs"`
	} `json:"response"`
}

type doc struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	// Description comes back as either a string or a list of strings
	// depending on the item; only the plain-string form is used.
	Description json.RawMessage `json:"description"`
	PublicDate  string          `json:"publicdate"`
}

// Fetch queries advancedsearch, folding notBefore into a publicdate range
// clause and sorting newest first.
func (c *Connector) Fetch(ctx context.Context, query string, limit int, notBefore *time.Time) ([]discovery.RawResult, error) {
	want := limit
	if want > maxRows {
		want = maxRows
	}

	q := query
	if notBefore != nil {
		q = fmt.Sprintf("%s AND publicdate:[%s TO *]", query, notBefore.UTC().Format(time.RFC3339))
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("output", "json")
	params.Set("rows", fmt.Sprintf("%d", want))
	params.Add("sort[]", "publicdate desc")
	params.Add("fl[]", "identifier")
	params.Add("fl[]", "title")
	params.Add("fl[]", "description")
	params.Add("fl[]", "publicdate")
	params.Set("page", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build archive request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch archive: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive returned status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode archive response: %w", err)
	}

	results := make([]discovery.RawResult, 0, len(body.Response.Docs))
	for _, d := range body.Response.Docs {
		if d.Identifier == "" {
			continue
		}
		title := d.Title
		if title == "" {
			title = d.Identifier
		}
		r := discovery.RawResult{
			Title:   title,
			URL:     detailsBase + url.PathEscape(d.Identifier),
			Snippet: descriptionText(d.Description),
		}
		if ts, perr := time.Parse(time.RFC3339, d.PublicDate); perr == nil {
			r.PublishedAt = &ts
		}
		results = append(results, r)
		if len(results) >= want {
			break
		}
	}
	return results, nil
}

func descriptionText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
