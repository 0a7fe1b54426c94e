// Package urltext persists extracted page content keyed by clean URL and the
// join rows linking it to bookmark and history entities.
package urltext

import (
	"context"

	"github.com/avollmer/weavebox/internal/models"
)

type Repository interface {
	// Upsert stores the content for a URL. When the store rejects the row
	// because the indexed text exceeds its size limit, the error matches
	// common.ErrOversizedText and the caller may retry with the text fields
	// nulled.
	Upsert(ctx context.Context, ut *models.URLText) error

	// MissingURLs lists clean URLs referenced by live bookmark or history
	// rows that have no url_text row yet.
	MissingURLs(ctx context.Context) ([]string, error)

	// Link creates the join rows tying the url_text row of url to every
	// bookmark and history entity whose clean URL matches it.
	Link(ctx context.Context, url string) error
}
