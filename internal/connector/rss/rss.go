// Package rss reads a configurable list of RSS/Atom feeds.
package rss

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/lgfc/discovery/internal/discovery"
)

const maxItems = 50

// Connector reads every configured feed in order. A broken feed is logged
// and skipped rather than failing the whole fetch, since the feed list mixes
// independent publishers.
type Connector struct {
	feeds  []string
	client *http.Client
	logger *zap.Logger
}

// New builds an RSS connector over a fixed feed list.
func New(feeds []string, timeout time.Duration, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		feeds:  append([]string(nil), feeds...),
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Name identifies the source on sessions, logs, and metrics.
func (c *Connector) Name() string { return "rss" }

// Fetch parses the configured feeds in order. Feeds have no query semantics,
// so the query is ignored; notBefore is applied client-side against each
// item's published timestamp when one is parseable.
func (c *Connector) Fetch(ctx context.Context, _ string, limit int, notBefore *time.Time) ([]discovery.RawResult, error) {
	want := limit
	if want > maxItems {
		want = maxItems
	}

	parser := gofeed.NewParser()
	parser.Client = c.client

	results := make([]discovery.RawResult, 0, want)
	for _, feedURL := range c.feeds {
		feed, err := parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			c.logger.Warn("skip unreadable feed", zap.String("feed", feedURL), zap.Error(err))
			continue
		}
		for _, item := range feed.Items {
			if item.Title == "" || item.Link == "" {
				continue
			}
			if notBefore != nil && item.PublishedParsed != nil && item.PublishedParsed.Before(*notBefore) {
				continue
			}
			results = append(results, discovery.RawResult{
				Title:       item.Title,
				URL:         item.Link,
				Snippet:     item.Description,
				PublishedAt: item.PublishedParsed,
			})
			if len(results) >= want {
				return results, nil
			}
		}
	}
	return results, nil
}
