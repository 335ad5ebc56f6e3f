package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lgfc/discovery/internal/metrics"
)

// Aggregator fans a query out to every enabled connector concurrently and
// merges the results into one deduplicated, capped candidate list.
type Aggregator struct {
	connectors []Connector
	logger     *zap.Logger
}

// NewAggregator builds an Aggregator over a fixed connector list. The list
// order is the merge order, so a fixed list yields deterministic output for
// deterministic connector responses.
func NewAggregator(connectors []Connector, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		connectors: append([]Connector(nil), connectors...),
		logger:     logger,
	}
}

// Aggregate invokes all connectors concurrently and waits for every one to
// finish. A connector failure is absorbed into an empty result so it can
// never cancel or block its siblings. Merging preserves connector list order
// and each connector's internal order, deduplicates by URL (first occurrence
// wins), and stops once limit unique URLs are collected.
func (a *Aggregator) Aggregate(ctx context.Context, query string, limit int, notBefore *time.Time) []RawResult {
	batches := make([][]RawResult, len(a.connectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, conn := range a.connectors {
		g.Go(func() error {
			start := time.Now()
			out, err := conn.Fetch(gctx, query, limit, notBefore)
			if err != nil {
				a.logger.Warn("connector failed",
					zap.String("source", conn.Name()),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err))
				metrics.RecordConnectorFailure(conn.Name())
				return nil
			}
			a.logger.Debug("connector finished",
				zap.String("source", conn.Name()),
				zap.Int("results", len(out)),
				zap.Duration("elapsed", time.Since(start)))
			metrics.RecordConnectorResults(conn.Name(), len(out))
			batches[i] = out
			return nil
		})
	}
	// Connector errors never propagate; Wait only orders the merge after
	// the last fetch completes.
	_ = g.Wait()

	merged := make([]RawResult, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, batch := range batches {
		for _, r := range batch {
			if r.URL == "" {
				continue
			}
			if _, dup := seen[r.URL]; dup {
				continue
			}
			seen[r.URL] = struct{}{}
			merged = append(merged, r)
			if len(merged) >= limit {
				return merged
			}
		}
	}
	return merged
}
