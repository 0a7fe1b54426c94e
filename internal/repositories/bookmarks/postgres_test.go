package bookmarks

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/avollmer/weavebox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// arrayConverter lets string slices through to the mock so the text[] binds
// of the parent batch update can be asserted.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if s, ok := v.([]string); ok {
		return s, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newSessionWithMock(t *testing.T) (Session, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(arrayConverter{}),
	)
	require.NoError(t, err)
	return NewPostgresRepository(db).NewSession(), mock, db
}

func TestSession_UpsertWritesAllPresentFields(t *testing.T) {
	s, mock, db := newSessionWithMock(t)
	defer db.Close()

	added := time.UnixMilli(1600000000000).UTC()
	modified := time.Unix(1700000000, 0).UTC()

	mock.ExpectExec(`INSERT INTO bookmark_entry .* ON CONFLICT \(bookmark_entry_id\)`).
		WithArgs("A", "bookmark", "docs", "https://x.com/?a=1", "https://x.com/?a=1",
			added, modified, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Upsert(context.Background(), &models.Bookmark{
		ID:        "A",
		Type:      "bookmark",
		Title:     "docs",
		URL:       "https://x.com/?a=1",
		CleanURL:  "https://x.com/?a=1",
		DateAdded: &added,
		Modified:  &modified,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_AbsentFieldsStoredAsNull(t *testing.T) {
	s, mock, db := newSessionWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO bookmark_entry`).
		WithArgs("A", nil, nil, nil, nil, nil, nil, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Upsert(context.Background(), &models.Bookmark{ID: "A", Deleted: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_ParentLinksDeferredAndBatched(t *testing.T) {
	s, mock, db := newSessionWithMock(t)
	defer db.Close()

	// Child B arrives before its parent A; C points at a root sentinel.
	for range 3 {
		mock.ExpectExec(`INSERT INTO bookmark_entry`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`UPDATE bookmark_entry\s+SET parent_id = v\.parent_id\s+FROM \(SELECT unnest`).
		WithArgs([]string{"B"}, []string{"A"}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, &models.Bookmark{ID: "B", ParentID: "A"}))
	require.NoError(t, s.Upsert(ctx, &models.Bookmark{ID: "A"}))
	require.NoError(t, s.Upsert(ctx, &models.Bookmark{ID: "C", ParentID: "unfiled"}))

	require.NoError(t, s.Close(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_CloseWithoutLinksSkipsUpdate(t *testing.T) {
	s, mock, db := newSessionWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO bookmark_entry`).WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, &models.Bookmark{ID: "A", ParentID: "places"}))
	require.NoError(t, s.Close(ctx))

	// No UPDATE was expected; any would fail ExpectationsWereMet.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s, mock, db := newSessionWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO bookmark_entry`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookmark_entry`).WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, &models.Bookmark{ID: "B", ParentID: "A"}))
	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}
