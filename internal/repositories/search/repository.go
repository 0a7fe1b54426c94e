// Package search ranks indexed page content against free-text queries.
package search

import (
	"context"

	"github.com/avollmer/weavebox/internal/models"
)

type Repository interface {
	// Search returns matching content ordered by total rank descending.
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}
