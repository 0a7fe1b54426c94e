package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avollmer/weavebox/internal/dbx"
	"github.com/avollmer/weavebox/internal/models"
)

// PostgresRepository implements history storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const upsertHistoryQuery = `
	INSERT INTO history
		(history_id, title, url, clean_url, last_visited, visit_count, modified, deleted)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (history_id)
	DO UPDATE SET
		title = EXCLUDED.title,
		url = EXCLUDED.url,
		clean_url = EXCLUDED.clean_url,
		last_visited = COALESCE(EXCLUDED.last_visited, history.last_visited),
		visit_count = COALESCE(EXCLUDED.visit_count, history.visit_count),
		modified = EXCLUDED.modified,
		deleted = EXCLUDED.deleted;
`

// Upsert inserts or updates the entity by id. Visit counters carried by the
// record overwrite the stored ones; a record without a visits list leaves
// them unchanged.
func (r *PostgresRepository) Upsert(ctx context.Context, h *models.History) error {
	_, err := r.db.ExecContext(ctx, upsertHistoryQuery,
		h.ID, nullStr(h.Title), nullStr(h.URL), nullStr(h.CleanURL),
		nullTime(h.LastVisited), nullInt(h.VisitCount), nullTime(h.Modified), h.Deleted)
	if err != nil {
		return fmt.Errorf("upserting history %q: %w", h.ID, err)
	}
	return nil
}

// LastModified returns the ingestion watermark.
func (r *PostgresRepository) LastModified(ctx context.Context) (float64, error) {
	var v sql.NullFloat64
	row := r.db.QueryRowContext(ctx, `SELECT extract(epoch FROM max(modified)) FROM history;`)
	if err := row.Scan(&v); err != nil {
		return 0, fmt.Errorf("reading history watermark: %w", err)
	}
	if !v.Valid {
		return 0, nil
	}
	return v.Float64, nil
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

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
