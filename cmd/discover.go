package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lgfc/discovery/internal/clock/system"
	"github.com/lgfc/discovery/internal/config"
	"github.com/lgfc/discovery/internal/connector/archive"
	"github.com/lgfc/discovery/internal/connector/brave"
	"github.com/lgfc/discovery/internal/connector/gdelt"
	"github.com/lgfc/discovery/internal/connector/mediawiki"
	"github.com/lgfc/discovery/internal/connector/nytimes"
	"github.com/lgfc/discovery/internal/connector/rss"
	"github.com/lgfc/discovery/internal/discovery"
	"github.com/lgfc/discovery/internal/hash/sha256"
	"github.com/lgfc/discovery/internal/id/uuid"
	"github.com/lgfc/discovery/internal/logging"
	"github.com/lgfc/discovery/internal/metrics"
	"github.com/lgfc/discovery/internal/publisher/pubsub"
	"github.com/lgfc/discovery/internal/storage/postgres"
)

// newDiscoverCmd creates and configures the 'discover' subcommand, which
// executes one full pipeline run and prints the summary as JSON.
func newDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Runs one content discovery pass",
		Long: `Executes a single discovery run: reads the incremental cursor, queries the
enabled content sources concurrently, persists new content and media
references, records the search session, and advances the cursor.`,

		RunE: runDiscoverCommand,
	}
	cmd.Flags().String("query", "", "topic query (defaults to search.default_query)")
	cmd.Flags().Int("max-results", 0, "result cap for this run (defaults to search.max_results)")
	return cmd
}

func runDiscoverCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush

	runID, err := uuid.New().NewID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID))

	metrics.Init()
	stopMetrics := startMetricsListener(cfg.Metrics.Addr, logger)
	defer stopMetrics()

	query, limit, err := resolveRunArgs(cmd, cfg)
	if err != nil {
		return err
	}

	store, err := postgres.NewContentStore(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.MaxConnLifetime(),
	})
	if err != nil {
		return fmt.Errorf("init content store: %w", err)
	}
	defer store.Close()

	connectors, provider := buildConnectors(cfg, logger)
	logger.Info("starting discovery run",
		zap.String("query", query),
		zap.Int("max_results", limit),
		zap.String("provider", provider))

	summaryPublisher, closePublisher, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	pipeline := discovery.NewPipeline(
		store,
		discovery.NewAggregator(connectors, logger),
		discovery.NewScorer(discovery.ScoreConfig{
			Keywords:  cfg.Search.Keywords,
			Increment: cfg.Search.KeywordIncrement,
			Min:       cfg.Search.ScoreMin,
			Max:       cfg.Search.ScoreMax,
		}),
		sha256.New(),
		system.New(),
		summaryPublisher,
		discovery.PipelineConfig{
			Provider:     provider,
			QueryContext: cfg.Search.QueryContext,
		},
		logger,
	)

	summary, err := pipeline.Run(ctx, query, limit)
	if err != nil {
		logger.Error("discovery run failed", zap.Error(err))
		return fmt.Errorf("run discovery: %w", err)
	}

	out, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	cmd.Println(string(out))
	return nil
}

func resolveRunArgs(cmd *cobra.Command, cfg config.Config) (string, int, error) {
	query, err := cmd.Flags().GetString("query")
	if err != nil {
		return "", 0, fmt.Errorf("read query flag: %w", err)
	}
	if query == "" {
		query = cfg.Search.DefaultQuery
	}
	if query == "" {
		return "", 0, fmt.Errorf("query is required")
	}

	limit, err := cmd.Flags().GetInt("max-results")
	if err != nil {
		return "", 0, fmt.Errorf("read max-results flag: %w", err)
	}
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}
	if limit > config.MaxResultsCeiling {
		limit = config.MaxResultsCeiling
	}
	return query, limit, nil
}

// buildConnectors assembles the connector list for the run. A configured
// premium credential fully replaces the free set rather than joining it.
func buildConnectors(cfg config.Config, logger *zap.Logger) ([]discovery.Connector, string) {
	timeout := cfg.ConnectorTimeout()

	if cfg.Connectors.BraveAPIKey != "" {
		return []discovery.Connector{brave.New(cfg.Connectors.BraveAPIKey, timeout)}, "brave"
	}

	connectors := []discovery.Connector{
		gdelt.New(timeout),
		mediawiki.NewWikipedia(timeout),
		archive.New(timeout),
		mediawiki.NewCommons(timeout),
		rss.New(cfg.Connectors.RSSFeeds, timeout, logger),
	}
	if cfg.Connectors.NYTAPIKey != "" {
		connectors = append(connectors, nytimes.New(cfg.Connectors.NYTAPIKey, timeout))
	}
	return connectors, "free-aggregator"
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (discovery.SummaryPublisher, func(), error) {
	switch cfg.Publisher.Provider {
	case "", "noop":
		return nil, func() {}, nil
	case "pubsub":
		pub, err := pubsub.New(ctx, cfg.Publisher.ProjectID, cfg.Publisher.TopicID, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init publisher: %w", err)
		}
		closeFn := func() {
			if cerr := pub.Close(); cerr != nil {
				logger.Warn("close publisher", zap.Error(cerr))
			}
		}
		return pub, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown publisher provider: %s", cfg.Publisher.Provider)
	}
}

// startMetricsListener serves the exposition handler while the run is in
// flight. Scrapes are best-effort for a batch job; failures only log.
func startMetricsListener(addr string, logger *zap.Logger) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics listener shutdown", zap.Error(err))
		}
	}
}
