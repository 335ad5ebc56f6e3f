// Package discovery implements the content discovery and ingestion pipeline:
// a fan-out aggregator over external source connectors, a dedup/scoring gate
// against the content store, media extraction, and run bookkeeping with a
// durable incremental cursor.
package discovery

import (
	"context"
	"errors"
	"time"
)

// RawResult is one candidate record returned by a source connector, not yet
// checked against storage.
type RawResult struct {
	Title   string
	URL     string
	Snippet string

	// PublishedAt is the source-reported publish time, nil when the
	// provider does not report one or it could not be parsed.
	PublishedAt *time.Time
}

// Connector queries one external content source and returns normalized
// candidate records. Fetch honors limit as an upper bound and treats
// notBefore as a native date filter where the provider supports one.
// Transport and decode failures are returned as errors; the aggregator
// converts them to empty results so one source never breaks a run.
type Connector interface {
	Name() string
	Fetch(ctx context.Context, query string, limit int, notBefore *time.Time) ([]RawResult, error)
}

// ContentItem is a discovered piece of content as persisted in storage.
// Content hash and source URL are each globally unique; items are created by
// the pipeline and never updated or deleted by it.
type ContentItem struct {
	ID             int64
	Title          string
	ContentText    string
	SourceURL      string
	ContentHash    string
	ContentType    string
	SearchQuery    string
	WordCount      int
	RelevanceScore int
	DateFound      time.Time
}

// MediaFile is a media asset referenced inside a ContentItem's body.
type MediaFile struct {
	ContentItemID int64
	MediaURL      string
	MediaType     string
	FileName      string
}

// SearchSession is the append-only audit record of one pipeline invocation.
type SearchSession struct {
	SearchQuery     string
	SearchProvider  string
	ResultsFound    int
	NewContentAdded int
	DuplicatesFound int
}

// SearchState is the singleton incremental cursor. LastRunAt is nil before
// the first successful run.
type SearchState struct {
	LastRunAt *time.Time
	LastQuery string
}

// ErrDuplicate is returned by Store.InsertContentItem when the row loses a
// unique-constraint race on content_hash or source_url. The gate counts it
// as a duplicate rather than a failure.
var ErrDuplicate = errors.New("content item already stored")

// Store is the persistence contract the pipeline runs against.
type Store interface {
	// HasContentHash reports whether an item with the hash is already stored.
	HasContentHash(ctx context.Context, hash string) (bool, error)

	// HasSourceURL reports whether an item with the exact URL is already stored.
	HasSourceURL(ctx context.Context, url string) (bool, error)

	// InsertContentItem stores a new item and returns its assigned ID.
	// Unique-constraint conflicts surface as ErrDuplicate.
	InsertContentItem(ctx context.Context, item ContentItem) (int64, error)

	// InsertMediaFile stores one media reference linked to an item.
	InsertMediaFile(ctx context.Context, media MediaFile) error

	// InsertSearchSession appends the audit row for a run.
	InsertSearchSession(ctx context.Context, session SearchSession) error

	// GetSearchState reads the cursor. A missing row yields a zero state.
	GetSearchState(ctx context.Context) (SearchState, error)

	// UpsertSearchState writes the cursor, keyed on the fixed singleton ID.
	UpsertSearchState(ctx context.Context, state SearchState) error
}

// Hasher computes the hex digest used for content deduplication.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Summary is the structured run outcome emitted on success.
type Summary struct {
	Success         bool   `json:"success"`
	Query           string `json:"query"`
	ResultsFound    int    `json:"resultsFound"`
	NewContentAdded int    `json:"newContentAdded"`
	DuplicatesFound int    `json:"duplicatesFound"`
}

// SummaryPublisher forwards a successful run summary to downstream
// consumers. Publish failures are logged by the pipeline, never fatal.
type SummaryPublisher interface {
	PublishSummary(ctx context.Context, summary Summary) error
}
