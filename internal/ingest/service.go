// Package ingest orchestrates a one-directional server-to-local sync pass:
// bootstrap the key hierarchy from the crypto collection, then stream each
// data collection through a decrypting cursor into its inserter.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avollmer/weavebox/internal/common"
	"github.com/avollmer/weavebox/internal/logging"
	"github.com/avollmer/weavebox/internal/models"
	"github.com/avollmer/weavebox/internal/repositories/bookmarks"
	"github.com/avollmer/weavebox/internal/repositories/history"
	"github.com/avollmer/weavebox/internal/weave"
)

// Ingested collection names.
const (
	bookmarksCollection = "bookmarks"
	historyCollection   = "history"
)

// Cursor is the iteration surface of a collection cursor.
type Cursor interface {
	Next(ctx context.Context) bool
	Item() *weave.Item
	Err() error
}

// Source enumerates collections and opens decrypting cursors over them. The
// production implementation is a weave.Catalog.
type Source interface {
	BootstrapKeys(ctx context.Context) error
	Collections(ctx context.Context) (map[string]float64, error)
	Open(collection string, opts weave.CursorOptions) (Cursor, error)
}

// NewCatalogSource adapts a weave.Catalog to the Source interface.
func NewCatalogSource(cat *weave.Catalog) Source {
	return catalogSource{cat: cat}
}

type catalogSource struct {
	cat *weave.Catalog
}

func (s catalogSource) BootstrapKeys(ctx context.Context) error {
	return s.cat.BootstrapKeys(ctx)
}

func (s catalogSource) Collections(ctx context.Context) (map[string]float64, error) {
	return s.cat.Collections(ctx)
}

func (s catalogSource) Open(collection string, opts weave.CursorOptions) (Cursor, error) {
	return s.cat.Open(collection, opts)
}

// Options tune one ingestion pass.
type Options struct {
	// PageSize is the per-request item limit for collection listings.
	PageSize int
	// NewerThan, in seconds, skips records not modified since the watermark
	// (server-side filtering).
	NewerThan float64
}

// Service runs ingestion passes. Single-threaded; it assumes exclusive,
// sequential access to the target store for the duration of a pass.
type Service struct {
	source    Source
	bookmarks bookmarks.Repository
	history   history.Repository
	logger    logging.Logger
}

// NewService wires an ingestion service.
func NewService(source Source, b bookmarks.Repository, h history.Repository, logger logging.Logger) *Service {
	return &Service{source: source, bookmarks: b, history: h, logger: logger}
}

// Run bootstraps the key hierarchy, then ingests the bookmark and history
// collections if the account has them. Other collections, including the
// reserved crypto and meta ones, are skipped.
func (s *Service) Run(ctx context.Context, opts Options) error {
	if err := s.source.BootstrapKeys(ctx); err != nil {
		return fmt.Errorf("bootstrapping keys: %w", err)
	}

	cols, err := s.source.Collections(ctx)
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	for name, lastModified := range cols {
		switch name {
		case bookmarksCollection, historyCollection:
			s.logger.Debug(ctx, "collection scheduled", "collection", name, "last_modified", lastModified)
		case common.CryptoCollection, common.MetaCollection:
			// reserved
		default:
			s.logger.Debug(ctx, "collection skipped", "collection", name)
		}
	}

	if _, ok := cols[bookmarksCollection]; ok {
		if err := s.ingestBookmarks(ctx, opts); err != nil {
			return err
		}
	}
	if _, ok := cols[historyCollection]; ok {
		if err := s.ingestHistory(ctx, opts); err != nil {
			return err
		}
	}
	return nil
}

// ingestBookmarks streams the bookmark collection into a repository session.
// The session close, which applies the deferred parent links, runs on every
// exit path before this function returns.
func (s *Service) ingestBookmarks(ctx context.Context, opts Options) (err error) {
	cur, err := s.source.Open(bookmarksCollection, weave.CursorOptions{
		PageSize:  opts.PageSize,
		NewerThan: opts.NewerThan,
	})
	if err != nil {
		return err
	}

	sess := s.bookmarks.NewSession()
	defer func() {
		if cerr := sess.Close(ctx); cerr != nil && err == nil {
			err = fmt.Errorf("closing bookmark session: %w", cerr)
		}
	}()

	count := 0
	for cur.Next(ctx) {
		item := cur.Item()

		var rec models.BookmarkRecord
		if err := json.Unmarshal(item.Plaintext, &rec); err != nil {
			return fmt.Errorf("parsing bookmark record %q: %w", item.ID, err)
		}
		if rec.ID == "" {
			rec.ID = item.ID
		}

		if err := sess.Upsert(ctx, rec.Entity(item.Modified)); err != nil {
			return err
		}
		count++
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("reading bookmarks: %w", err)
	}

	s.logger.Info(ctx, "collection ingested", "collection", bookmarksCollection, "items", count)
	return nil
}

func (s *Service) ingestHistory(ctx context.Context, opts Options) error {
	cur, err := s.source.Open(historyCollection, weave.CursorOptions{
		PageSize:  opts.PageSize,
		NewerThan: opts.NewerThan,
	})
	if err != nil {
		return err
	}

	count := 0
	for cur.Next(ctx) {
		item := cur.Item()

		var rec models.HistoryRecord
		if err := json.Unmarshal(item.Plaintext, &rec); err != nil {
			return fmt.Errorf("parsing history record %q: %w", item.ID, err)
		}
		if rec.ID == "" {
			rec.ID = item.ID
		}

		if err := s.history.Upsert(ctx, rec.Entity(item.Modified)); err != nil {
			return err
		}
		count++
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	s.logger.Info(ctx, "collection ingested", "collection", historyCollection, "items", count)
	return nil
}
