package weave

import (
	"context"
	"fmt"
	"time"

	"github.com/avollmer/weavebox/internal/cryptox"
)

// defaultPageSize bounds one collection listing request.
const defaultPageSize = 100

// Item is one decrypted record yielded by a Cursor.
type Item struct {
	ID        string
	Modified  time.Time
	Plaintext []byte
}

// CursorOptions tune a collection cursor. Zero values select the defaults.
type CursorOptions struct {
	// PageSize is the per-request item limit.
	PageSize int
	// NewerThan, in seconds, is passed through to every page request for
	// server-side incremental filtering. Nothing is filtered client-side.
	NewerThan float64
}

// Cursor is a lazy, finite iterator over one collection's decrypted records.
// It follows next-offset tokens until a response carries none, keeps a cache
// of the current page's raw records, and decrypts each record at iteration
// time with the key pair the hierarchy resolves for the collection.
//
// A cursor is not restartable: once exhausted, a new one must be created
// (which re-issues the listing request). Ordering within a page is
// server-defined (oldest-modified first); global monotonicity across pages is
// not guaranteed under concurrent server-side writes and is not compensated
// for here. Not safe for concurrent use.
type Cursor struct {
	client     *Client
	keys       *cryptox.Hierarchy
	collection string
	opts       CursorOptions

	started bool
	offset  string
	page    []BSO
	cache   map[string]BSO
	idx     int

	cur *Item
	err error
}

// NewCursor builds a cursor over the named collection. The hierarchy must
// already be bootstrapped for any collection other than crypto; opening a
// collection earlier resolves a wrong key pair and is a caller error.
func NewCursor(client *Client, keys *cryptox.Hierarchy, collection string, opts CursorOptions) *Cursor {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	return &Cursor{client: client, keys: keys, collection: collection, opts: opts}
}

// Next advances to the next record, fetching the next page when the current
// one is drained. It returns false at the end of the collection or on the
// first error; Err distinguishes the two.
func (cu *Cursor) Next(ctx context.Context) bool {
	if cu.err != nil {
		return false
	}

	for {
		if cu.idx < len(cu.page) {
			bso := cu.page[cu.idx]
			cu.idx++

			item, err := cu.decrypt(bso)
			if err != nil {
				cu.err = err
				cu.cur = nil
				return false
			}
			cu.cur = item
			return true
		}

		if cu.started && cu.offset == "" {
			cu.cur = nil
			return false
		}

		page, next, err := cu.client.Collection(ctx, cu.collection, CollectionQuery{
			Limit:  cu.opts.PageSize,
			Offset: cu.offset,
			Newer:  cu.opts.NewerThan,
		})
		if err != nil {
			cu.err = err
			cu.cur = nil
			return false
		}

		cu.started = true
		cu.offset = next
		cu.page = page
		cu.idx = 0

		// The raw-record cache is replaced wholesale with each page,
		// never merged.
		cu.cache = make(map[string]BSO, len(page))
		for _, b := range page {
			cu.cache[b.ID] = b
		}
	}
}

// Item returns the record Next positioned on. Valid until the next call to
// Next.
func (cu *Cursor) Item() *Item {
	return cu.cur
}

// Raw returns the undecrypted storage object for an id on the current page,
// sparing a per-item round trip for callers that only need the listing.
func (cu *Cursor) Raw(id string) (BSO, bool) {
	b, ok := cu.cache[id]
	return b, ok
}

// Err returns the error that stopped iteration, if any. Integrity and
// padding failures surface here as common.ErrIntegrity / common.ErrPadding
// wrapped with the collection and item id.
func (cu *Cursor) Err() error {
	return cu.err
}

func (cu *Cursor) decrypt(bso BSO) (*Item, error) {
	env, err := bso.Envelope()
	if err != nil {
		return nil, err
	}

	plaintext, err := cryptox.DecryptPayload(env, cu.keys.Resolve(cu.collection))
	if err != nil {
		return nil, fmt.Errorf("decrypting %s/%s: %w", cu.collection, bso.ID, err)
	}

	return &Item{ID: bso.ID, Modified: bso.ModifiedTime(), Plaintext: plaintext}, nil
}
