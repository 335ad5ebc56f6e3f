// Package postgres provides the Postgres-backed content store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lgfc/discovery/internal/discovery"
)

// uniqueViolation is the Postgres error code for unique-constraint conflicts.
const uniqueViolation = "23505"

// searchStateID is the fixed key of the singleton cursor row.
const searchStateID = 1

// Config controls the Postgres connection pool behind the content store.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ContentStore implements discovery.Store on top of pgxpool.
type ContentStore struct {
	pool pgxPool
}

// NewContentStore creates a Postgres-backed ContentStore using the provided config.
func NewContentStore(ctx context.Context, cfg Config) (*ContentStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ContentStore{pool: pool}, nil
}

// NewContentStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewContentStoreWithPool(pool pgxPool) (*ContentStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ContentStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *ContentStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// HasContentHash reports whether a content item with the hash already exists.
func (s *ContentStore) HasContentHash(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM content_items WHERE content_hash = $1)`,
		hash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup content hash: %w", err)
	}
	return exists, nil
}

// HasSourceURL reports whether a content item with the exact URL already exists.
func (s *ContentStore) HasSourceURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM content_items WHERE source_url = $1)`,
		url,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup source url: %w", err)
	}
	return exists, nil
}

// InsertContentItem stores a new content item and returns its assigned ID.
// A unique-constraint conflict on hash or URL maps to discovery.ErrDuplicate.
func (s *ContentStore) InsertContentItem(ctx context.Context, item discovery.ContentItem) (int64, error) {
	query := `
INSERT INTO content_items (
	title,
	content_text,
	source_url,
	content_hash,
	content_type,
	search_query,
	word_count,
	relevance_score,
	date_found
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)
RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		item.Title,
		item.ContentText,
		item.SourceURL,
		item.ContentHash,
		item.ContentType,
		item.SearchQuery,
		item.WordCount,
		item.RelevanceScore,
		item.DateFound,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, discovery.ErrDuplicate
		}
		return 0, fmt.Errorf("insert content item: %w", err)
	}
	return id, nil
}

// InsertMediaFile stores one media reference linked to a content item.
func (s *ContentStore) InsertMediaFile(ctx context.Context, media discovery.MediaFile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO media_files (content_item_id, media_url, media_type, file_name) VALUES ($1,$2,$3,$4)`,
		media.ContentItemID,
		media.MediaURL,
		media.MediaType,
		media.FileName,
	)
	if err != nil {
		return fmt.Errorf("insert media file: %w", err)
	}
	return nil
}

// InsertSearchSession appends the audit row for one run. created_at is
// assigned by the database.
func (s *ContentStore) InsertSearchSession(ctx context.Context, session discovery.SearchSession) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_sessions (search_query, search_provider, results_found, new_content_added, duplicates_found) VALUES ($1,$2,$3,$4,$5)`,
		session.SearchQuery,
		session.SearchProvider,
		session.ResultsFound,
		session.NewContentAdded,
		session.DuplicatesFound,
	)
	if err != nil {
		return fmt.Errorf("insert search session: %w", err)
	}
	return nil
}

// GetSearchState reads the singleton cursor row. A missing row is not an
// error; it yields the zero state for the first ever run.
func (s *ContentStore) GetSearchState(ctx context.Context) (discovery.SearchState, error) {
	var (
		lastRunAt *time.Time
		lastQuery *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT last_run_at, last_query FROM search_state WHERE id = $1`,
		searchStateID,
	).Scan(&lastRunAt, &lastQuery)
	if errors.Is(err, pgx.ErrNoRows) {
		return discovery.SearchState{}, nil
	}
	if err != nil {
		return discovery.SearchState{}, fmt.Errorf("read search state: %w", err)
	}
	state := discovery.SearchState{LastRunAt: lastRunAt}
	if lastQuery != nil {
		state.LastQuery = *lastQuery
	}
	return state, nil
}

// UpsertSearchState writes the cursor, keyed on the fixed singleton ID.
func (s *ContentStore) UpsertSearchState(ctx context.Context, state discovery.SearchState) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO search_state (id, last_run_at, last_query) VALUES ($1,$2,$3)
ON CONFLICT (id) DO UPDATE SET last_run_at = EXCLUDED.last_run_at, last_query = EXCLUDED.last_query`,
		searchStateID,
		state.LastRunAt,
		state.LastQuery,
	)
	if err != nil {
		return fmt.Errorf("upsert search state: %w", err)
	}
	return nil
}
