package urltext

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/avollmer/weavebox/internal/common"
	"github.com/avollmer/weavebox/internal/dbx"
	"github.com/avollmer/weavebox/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// programLimitExceeded is the SQLSTATE class Postgres reports when an index
// entry built from the text columns exceeds its size limit.
const programLimitExceeded = "54000"

// PostgresRepository implements url-text storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const upsertURLTextQuery = `
	INSERT INTO url_text
		(url, raw_text, processed_text, title, headers, http_status)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (url)
	DO UPDATE SET
		raw_text = EXCLUDED.raw_text,
		processed_text = EXCLUDED.processed_text,
		title = EXCLUDED.title,
		headers = EXCLUDED.headers,
		http_status = EXCLUDED.http_status;
`

func (r *PostgresRepository) Upsert(ctx context.Context, ut *models.URLText) error {
	_, err := r.db.ExecContext(ctx, upsertURLTextQuery,
		ut.URL, nullStr(ut.RawText), nullStr(ut.ProcessedText),
		nullStr(ut.Title), nullStr(ut.Headers), ut.HTTPStatus)
	if err != nil {
		if isOversized(err) {
			return fmt.Errorf("%w: url %q: %v", common.ErrOversizedText, ut.URL, err)
		}
		return fmt.Errorf("upserting url text %q: %w", ut.URL, err)
	}
	return nil
}

const missingURLsQuery = `
	SELECT DISTINCT clean_url FROM (
		SELECT clean_url FROM history WHERE NOT deleted
		UNION
		SELECT clean_url FROM bookmark_entry WHERE NOT deleted
	) u
	WHERE clean_url IS NOT NULL
	  AND clean_url NOT IN (SELECT url FROM url_text);
`

func (r *PostgresRepository) MissingURLs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, missingURLsQuery)
	if err != nil {
		return nil, fmt.Errorf("listing missing urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}

const linkHistoryQuery = `
	INSERT INTO history_url_text (history_id, url)
	SELECT history_id, $1 FROM history WHERE clean_url = $1
	ON CONFLICT DO NOTHING;
`

const linkBookmarksQuery = `
	INSERT INTO bookmark_url_text (bookmark_entry_id, url)
	SELECT bookmark_entry_id, $1 FROM bookmark_entry WHERE clean_url = $1
	ON CONFLICT DO NOTHING;
`

func (r *PostgresRepository) Link(ctx context.Context, url string) error {
	if _, err := r.db.ExecContext(ctx, linkHistoryQuery, url); err != nil {
		return fmt.Errorf("linking history to %q: %w", url, err)
	}
	if _, err := r.db.ExecContext(ctx, linkBookmarksQuery, url); err != nil {
		return fmt.Errorf("linking bookmarks to %q: %w", url, err)
	}
	return nil
}

// isOversized recognizes the store-side size limit on indexed text, either
// from the SQLSTATE or from the message for drivers that do not surface the
// code.
func isOversized(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == programLimitExceeded {
		return true
	}
	return strings.Contains(err.Error(), "index row requires")
}

func nullStr(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
