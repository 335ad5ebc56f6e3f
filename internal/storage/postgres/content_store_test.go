package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgfc/discovery/internal/discovery"
)

func newMockStore(t *testing.T) (*ContentStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewContentStoreWithPool(mock)
	require.NoError(t, err)
	return store, mock
}

func TestInsertContentItemReturnsID(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	item := discovery.ContentItem{
		Title:          "Farewell Speech",
		ContentText:    "the luckiest man on the face of the earth",
		SourceURL:      "https://example.com/speech",
		ContentHash:    "abc123",
		ContentType:    "article",
		SearchQuery:    "Lou Gehrig",
		WordCount:      9,
		RelevanceScore: 3,
		DateFound:      time.Unix(1700000000, 0).UTC(),
	}

	mock.ExpectQuery("INSERT INTO content_items").
		WithArgs(
			item.Title,
			item.ContentText,
			item.SourceURL,
			item.ContentHash,
			item.ContentType,
			item.SearchQuery,
			item.WordCount,
			item.RelevanceScore,
			item.DateFound,
		).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := store.InsertContentItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertContentItemMapsUniqueViolation(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO content_items").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "content_items_source_url_key"})

	_, err := store.InsertContentItem(context.Background(), discovery.ContentItem{SourceURL: "https://dup"})
	require.ErrorIs(t, err, discovery.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasContentHash(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("abc123").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	seen, err := store.HasContentHash(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, seen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasSourceURLPropagatesError(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("https://example.com").
		WillReturnError(errors.New("connection refused"))

	_, err := store.HasSourceURL(context.Background(), "https://example.com")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMediaFile(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	media := discovery.MediaFile{
		ContentItemID: 42,
		MediaURL:      "https://example.com/photo.jpg",
		MediaType:     "image",
		FileName:      "photo.jpg",
	}

	mock.ExpectExec("INSERT INTO media_files").
		WithArgs(media.ContentItemID, media.MediaURL, media.MediaType, media.FileName).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.InsertMediaFile(context.Background(), media))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSearchSession(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	session := discovery.SearchSession{
		SearchQuery:     "Lou Gehrig",
		SearchProvider:  "free-aggregator",
		ResultsFound:    12,
		NewContentAdded: 4,
		DuplicatesFound: 8,
	}

	mock.ExpectExec("INSERT INTO search_sessions").
		WithArgs(session.SearchQuery, session.SearchProvider, session.ResultsFound, session.NewContentAdded, session.DuplicatesFound).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.InsertSearchSession(context.Background(), session))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSearchStateMissingRowYieldsZeroState(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT last_run_at, last_query FROM search_state").
		WithArgs(searchStateID).
		WillReturnError(pgx.ErrNoRows)

	state, err := store.GetSearchState(context.Background())
	require.NoError(t, err)
	assert.Nil(t, state.LastRunAt)
	assert.Empty(t, state.LastQuery)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSearchStateReadsCursor(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	lastRun := time.Unix(1700000000, 0).UTC()
	lastQuery := "Lou Gehrig"
	mock.ExpectQuery("SELECT last_run_at, last_query FROM search_state").
		WithArgs(searchStateID).
		WillReturnRows(pgxmock.NewRows([]string{"last_run_at", "last_query"}).AddRow(&lastRun, &lastQuery))

	state, err := store.GetSearchState(context.Background())
	require.NoError(t, err)
	require.NotNil(t, state.LastRunAt)
	assert.True(t, state.LastRunAt.Equal(lastRun))
	assert.Equal(t, "Lou Gehrig", state.LastQuery)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSearchState(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	now := time.Unix(1700000000, 0).UTC()
	state := discovery.SearchState{LastRunAt: &now, LastQuery: "Lou Gehrig"}

	mock.ExpectExec("INSERT INTO search_state").
		WithArgs(searchStateID, state.LastRunAt, state.LastQuery).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.UpsertSearchState(context.Background(), state))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewContentStoreWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewContentStoreWithPool(nil)
	require.Error(t, err)
}
