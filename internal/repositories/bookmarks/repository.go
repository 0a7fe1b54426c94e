// Package bookmarks persists bookmark entities and resolves their
// parent/child links despite arbitrary record arrival order.
package bookmarks

import (
	"context"

	"github.com/avollmer/weavebox/internal/models"
)

// Session is a scoped ingestion pass over the bookmark collection. Upserts
// apply immediately; parent links accumulate and are applied as one batched
// update when the session closes. Close must run on every exit path, normal
// or error: a partially linked bookmark graph is a correctness bug, not just
// a leak.
type Session interface {
	Upsert(ctx context.Context, b *models.Bookmark) error
	Close(ctx context.Context) error
}

type Repository interface {
	NewSession() Session
}
