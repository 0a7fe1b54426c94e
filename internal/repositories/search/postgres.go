package search

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avollmer/weavebox/internal/dbx"
	"github.com/avollmer/weavebox/internal/models"
)

// rankEpsilon is the noise floor: rows scoring at or below it are excluded.
const rankEpsilon = 0.001

// titleWeight and headersWeight scale the sub-ranks into the total score.
const (
	titleWeight   = 10
	headersWeight = 5
)

// PostgresRepository ranks content with ts_rank_cd over the generated
// tsvector columns.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// The inner query computes the three sub-ranks per url_text row and picks a
// representative bookmark and history id per URL (min over the join rows, so
// content linked to both entity kinds yields one result, not a cross
// product). The outer query applies the weighted total and the noise floor.
const searchQuery = `
	SELECT title, url, rank, processed_text_rank, title_rank, headers_rank, bookmark_id, history_id
	FROM (
		SELECT ut.title, ut.url,
			ts_rank_cd(ut.processed_text_tsv, query.query) AS processed_text_rank,
			ts_rank_cd(ut.title_tsv, query.query) AS title_rank,
			ts_rank_cd(ut.headers_tsv, query.query) AS headers_rank,
			ts_rank_cd(ut.processed_text_tsv, query.query)
				+ $2 * ts_rank_cd(ut.title_tsv, query.query)
				+ $3 * ts_rank_cd(ut.headers_tsv, query.query) AS rank,
			min(but.bookmark_entry_id) AS bookmark_id,
			min(hut.history_id) AS history_id
		FROM url_text ut
		CROSS JOIN plainto_tsquery('english', $1) query
		LEFT JOIN bookmark_url_text but ON but.url = ut.url
		LEFT JOIN history_url_text hut ON hut.url = ut.url
		WHERE ut.processed_text_tsv @@ query.query
		   OR ut.title_tsv @@ query.query
		   OR ut.headers_tsv @@ query.query
		GROUP BY ut.url, query.query
	) s
	WHERE rank > $4
	ORDER BY rank DESC;
`

func (r *PostgresRepository) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	rows, err := r.db.QueryContext(ctx, searchQuery, query, titleWeight, headersWeight, rankEpsilon)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", query, err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var (
			res                   models.SearchResult
			title                 sql.NullString
			bookmarkID, historyID sql.NullString
		)
		if err := rows.Scan(&title, &res.URL, &res.Rank,
			&res.ProcessedTextRank, &res.TitleRank, &res.HeadersRank,
			&bookmarkID, &historyID); err != nil {
			return nil, err
		}
		res.Title = title.String
		res.BookmarkID = bookmarkID.String
		res.HistoryID = historyID.String
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
