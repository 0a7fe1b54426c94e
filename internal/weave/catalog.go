package weave

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avollmer/weavebox/internal/common"
	"github.com/avollmer/weavebox/internal/cryptox"
)

// keysRecordID is the id of the single record the crypto collection holds.
const keysRecordID = "keys"

// keyBundle is the decrypted shape of the crypto/keys record: one default
// pair plus zero or more per-collection pairs, each as a two-element base64
// list (encryption key, hmac key).
type keyBundle struct {
	Default     []string            `json:"default"`
	Collections map[string][]string `json:"collections"`
}

// Catalog enumerates an account's collections and bootstraps the key
// hierarchy from the reserved crypto collection. BootstrapKeys must run
// before any other collection is opened.
type Catalog struct {
	client       *Client
	keys         *cryptox.Hierarchy
	bootstrapped bool
}

// NewCatalog builds a catalog over a storage client and a hierarchy seeded
// with the account-root pair.
func NewCatalog(client *Client, keys *cryptox.Hierarchy) *Catalog {
	return &Catalog{client: client, keys: keys}
}

// Collections returns every collection name with its last-modified timestamp
// in seconds, including the reserved crypto and meta collections.
func (c *Catalog) Collections(ctx context.Context) (map[string]float64, error) {
	return c.client.InfoCollections(ctx)
}

// BootstrapKeys reads the crypto collection's keys record, decrypts it with
// the account-root pair and installs its default and per-collection pairs
// into the hierarchy. A crypto collection with any other shape is a
// configuration error and surfaces as a decrypt or parse failure.
func (c *Catalog) BootstrapKeys(ctx context.Context) error {
	bso, err := c.client.Item(ctx, common.CryptoCollection, keysRecordID)
	if err != nil {
		return fmt.Errorf("fetching key bundle: %w", err)
	}

	env, err := bso.Envelope()
	if err != nil {
		return err
	}

	plaintext, err := cryptox.DecryptPayload(env, c.keys.Root())
	if err != nil {
		return fmt.Errorf("decrypting key bundle: %w", err)
	}

	var kb keyBundle
	if err := json.Unmarshal(plaintext, &kb); err != nil {
		return fmt.Errorf("parsing key bundle: %w", err)
	}
	if len(kb.Default) != 2 {
		return fmt.Errorf("key bundle default has %d entries, want 2", len(kb.Default))
	}

	def, err := cryptox.KeyPairFromBase64(kb.Default[0], kb.Default[1])
	if err != nil {
		return fmt.Errorf("key bundle default: %w", err)
	}
	c.keys.SetCollectionDefault(def)

	for name, raw := range kb.Collections {
		if len(raw) != 2 {
			return fmt.Errorf("key bundle entry %q has %d entries, want 2", name, len(raw))
		}
		pair, err := cryptox.KeyPairFromBase64(raw[0], raw[1])
		if err != nil {
			return fmt.Errorf("key bundle entry %q: %w", name, err)
		}
		c.keys.SetOverride(name, pair)
	}

	c.bootstrapped = true
	return nil
}

// Open returns a cursor over the named collection. Opening anything but the
// crypto collection before BootstrapKeys succeeded is refused: it would
// silently decrypt with the wrong key pair.
func (c *Catalog) Open(collection string, opts CursorOptions) (*Cursor, error) {
	if !c.bootstrapped && collection != common.CryptoCollection {
		return nil, fmt.Errorf("opening %q: %w", collection, common.ErrKeysNotBootstrapped)
	}
	return NewCursor(c.client, c.keys, collection, opts), nil
}
