package bookmarks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avollmer/weavebox/internal/common"
	"github.com/avollmer/weavebox/internal/dbx"
	"github.com/avollmer/weavebox/internal/models"
)

// PostgresRepository implements bookmark storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NewSession opens a scoped ingestion session.
func (r *PostgresRepository) NewSession() Session {
	return &postgresSession{db: r.db}
}

type postgresSession struct {
	db dbx.DBTX

	// Accumulated (child, parent) pairs, applied in one statement at Close.
	// The feed is not topologically sorted, so a child can arrive before
	// its parent row exists; deferring the link sidesteps ordering.
	childIDs  []string
	parentIDs []string

	closed bool
}

const upsertBookmarkQuery = `
	INSERT INTO bookmark_entry
		(bookmark_entry_id, bookmark_type, title, url, clean_url, date_added, modified, deleted)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (bookmark_entry_id)
	DO UPDATE SET
		bookmark_type = EXCLUDED.bookmark_type,
		title = EXCLUDED.title,
		url = EXCLUDED.url,
		clean_url = EXCLUDED.clean_url,
		date_added = EXCLUDED.date_added,
		modified = EXCLUDED.modified,
		deleted = EXCLUDED.deleted;
`

// Upsert inserts or updates the entity by id, unconditionally overwriting the
// fields present in the source record (last write by arrival order wins).
// A parent reference is recorded for the batched link pass unless it names a
// root sentinel.
func (s *postgresSession) Upsert(ctx context.Context, b *models.Bookmark) error {
	_, err := s.db.ExecContext(ctx, upsertBookmarkQuery,
		b.ID, nullStr(b.Type), nullStr(b.Title), nullStr(b.URL), nullStr(b.CleanURL),
		nullTime(b.DateAdded), nullTime(b.Modified), b.Deleted)
	if err != nil {
		return fmt.Errorf("upserting bookmark %q: %w", b.ID, err)
	}

	if b.ParentID == "" {
		return nil
	}
	if _, root := common.RootSentinels[b.ParentID]; root {
		return nil
	}

	s.childIDs = append(s.childIDs, b.ID)
	s.parentIDs = append(s.parentIDs, b.ParentID)
	return nil
}

const applyParentsQuery = `
	UPDATE bookmark_entry
	SET parent_id = v.parent_id
	FROM (SELECT unnest($1::text[]) AS child_id, unnest($2::text[]) AS parent_id) v
	WHERE bookmark_entry_id = v.child_id;
`

// Close applies all accumulated parent links as a single multi-row update.
// Idempotent; further calls are no-ops. Skipped entirely when no pairs were
// accumulated.
func (s *postgresSession) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	if len(s.childIDs) == 0 {
		return nil
	}

	_, err := s.db.ExecContext(ctx, applyParentsQuery, s.childIDs, s.parentIDs)
	if err != nil {
		return fmt.Errorf("applying %d parent links: %w", len(s.childIDs), err)
	}
	return nil
}

func nullStr(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
