// Package history persists visited-page entities from the history
// collection.
package history

import (
	"context"

	"github.com/avollmer/weavebox/internal/models"
)

type Repository interface {
	Upsert(ctx context.Context, h *models.History) error

	// LastModified returns the newest stored modified timestamp in seconds,
	// or 0 when the table is empty. Used as the newer-than watermark for
	// incremental ingestion.
	LastModified(ctx context.Context) (float64, error)
}
