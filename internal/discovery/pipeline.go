package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lgfc/discovery/internal/metrics"
)

// contentTypeArticle is the only content type this pipeline produces today.
const contentTypeArticle = "article"

// PipelineConfig carries the run-invariant knobs for a Pipeline.
type PipelineConfig struct {
	// Provider is the mode label recorded on search sessions, e.g.
	// "free-aggregator" or "brave".
	Provider string

	// QueryContext is prepended to the raw query before it reaches the
	// connectors. The raw query is what gets persisted on items, the
	// session, and the cursor.
	QueryContext string
}

// Pipeline orchestrates one discovery run: cursor read, fan-out aggregation,
// dedup/scoring gate, persistence with media extraction, and bookkeeping.
type Pipeline struct {
	store      Store
	aggregator *Aggregator
	scorer     *Scorer
	hasher     Hasher
	clock      Clock
	publisher  SummaryPublisher
	cfg        PipelineConfig
	logger     *zap.Logger
}

// NewPipeline wires a Pipeline. The publisher may be nil when no downstream
// notification is configured.
func NewPipeline(
	store Store,
	aggregator *Aggregator,
	scorer *Scorer,
	hasher Hasher,
	clock Clock,
	publisher SummaryPublisher,
	cfg PipelineConfig,
	logger *zap.Logger,
) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Provider == "" {
		cfg.Provider = "free-aggregator"
	}
	return &Pipeline{
		store:      store,
		aggregator: aggregator,
		scorer:     scorer,
		hasher:     hasher,
		clock:      clock,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one full pipeline pass for the query. The cursor is read
// before fan-out and advanced only after the session row is written; any
// error returned here leaves the cursor untouched so the next scheduled run
// safely retries from the old one.
func (p *Pipeline) Run(ctx context.Context, query string, limit int) (Summary, error) {
	start := p.clock.Now()

	state, err := p.store.GetSearchState(ctx)
	if err != nil {
		metrics.RecordRun("failure", time.Since(start))
		return Summary{}, fmt.Errorf("read search state: %w", err)
	}
	if state.LastRunAt != nil {
		p.logger.Info("resuming from cursor",
			zap.Time("last_run_at", *state.LastRunAt),
			zap.String("last_query", state.LastQuery))
	}

	merged := p.aggregator.Aggregate(ctx, p.enhanceQuery(query), limit, state.LastRunAt)
	p.logger.Info("aggregation complete", zap.Int("results_found", len(merged)))

	added, duplicates := p.gate(ctx, query, merged, limit)

	session := SearchSession{
		SearchQuery:     query,
		SearchProvider:  p.cfg.Provider,
		ResultsFound:    len(merged),
		NewContentAdded: added,
		DuplicatesFound: duplicates,
	}
	if err := p.store.InsertSearchSession(ctx, session); err != nil {
		metrics.RecordRun("failure", time.Since(start))
		return Summary{}, fmt.Errorf("record search session: %w", err)
	}

	now := p.clock.Now()
	newState := SearchState{LastRunAt: &now, LastQuery: query}
	if err := p.store.UpsertSearchState(ctx, newState); err != nil {
		metrics.RecordRun("failure", time.Since(start))
		return Summary{}, fmt.Errorf("advance search state: %w", err)
	}

	summary := Summary{
		Success:         true,
		Query:           query,
		ResultsFound:    len(merged),
		NewContentAdded: added,
		DuplicatesFound: duplicates,
	}
	p.publish(ctx, summary)

	metrics.RecordRun("success", time.Since(start))
	metrics.RecordItemsAdded(added)
	metrics.RecordDuplicates(duplicates)
	return summary, nil
}

// enhanceQuery wraps the raw query with the configured context terms so
// broad providers stay on topic.
func (p *Pipeline) enhanceQuery(query string) string {
	terms := strings.TrimSpace(p.cfg.QueryContext)
	if terms == "" {
		return query
	}
	return terms + " " + query
}

// gate walks the merged candidates in aggregator order, rejecting anything
// already stored by hash or URL and persisting the survivors together with
// their embedded media references. Acceptance order is insertion order.
func (p *Pipeline) gate(ctx context.Context, query string, merged []RawResult, limit int) (added, duplicates int) {
	for _, candidate := range merged {
		if added >= limit {
			break
		}

		// Snippet first, no delimiter. The concatenation order is what
		// keeps hashes stable across runs.
		hash, err := p.hasher.Hash([]byte(candidate.Snippet + candidate.Title))
		if err != nil {
			p.logger.Error("hash candidate", zap.String("url", candidate.URL), zap.Error(err))
			continue
		}

		seen, err := p.store.HasContentHash(ctx, hash)
		if err != nil {
			p.logger.Error("hash lookup", zap.String("url", candidate.URL), zap.Error(err))
			continue
		}
		if seen {
			duplicates++
			continue
		}

		seen, err = p.store.HasSourceURL(ctx, candidate.URL)
		if err != nil {
			p.logger.Error("url lookup", zap.String("url", candidate.URL), zap.Error(err))
			continue
		}
		if seen {
			duplicates++
			continue
		}

		dateFound := p.clock.Now()
		if candidate.PublishedAt != nil {
			dateFound = *candidate.PublishedAt
		}
		item := ContentItem{
			Title:          candidate.Title,
			ContentText:    candidate.Snippet,
			SourceURL:      candidate.URL,
			ContentHash:    hash,
			ContentType:    contentTypeArticle,
			SearchQuery:    query,
			WordCount:      WordCount(candidate.Snippet),
			RelevanceScore: p.scorer.Score(candidate.Title, candidate.Snippet),
			DateFound:      dateFound,
		}

		id, err := p.store.InsertContentItem(ctx, item)
		if errors.Is(err, ErrDuplicate) {
			// Lost a unique-constraint race to a concurrent writer.
			duplicates++
			continue
		}
		if err != nil {
			p.logger.Error("insert content item", zap.String("url", candidate.URL), zap.Error(err))
			continue
		}
		added++

		p.extractMedia(ctx, id, candidate.Snippet)
	}
	return added, duplicates
}

// extractMedia stores one media reference per embedded image URL. Failures
// are per-URL and never block the remaining matches.
func (p *Pipeline) extractMedia(ctx context.Context, itemID int64, snippet string) {
	for _, mediaURL := range ExtractMediaURLs(snippet) {
		media := MediaFile{
			ContentItemID: itemID,
			MediaURL:      mediaURL,
			MediaType:     "image",
			FileName:      MediaFileName(mediaURL),
		}
		if err := p.store.InsertMediaFile(ctx, media); err != nil {
			p.logger.Warn("insert media file",
				zap.Int64("content_item_id", itemID),
				zap.String("media_url", mediaURL),
				zap.Error(err))
		}
	}
}

func (p *Pipeline) publish(ctx context.Context, summary Summary) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishSummary(ctx, summary); err != nil {
		p.logger.Warn("publish run summary", zap.Error(err))
	}
}
