// Package cryptox implements the key handling and record encryption used by
// the sync storage format: per-collection AES/HMAC key pairs resolved through
// a fallback hierarchy, and AES-256-CBC payloads authenticated with
// HMAC-SHA256 over the base64 ciphertext.
package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// keyLen is the length of both the encryption and the HMAC key.
const keyLen = 32

// kdfInfo is the HKDF info string the account uses to derive the root key
// material from its root secret.
const kdfInfo = "identity.mozilla.com/picl/v1/oldsync"

// KeyPair is an AES-256 encryption key together with its HMAC-SHA256 key.
// Immutable once constructed.
type KeyPair struct {
	EncryptionKey []byte
	HMACKey       []byte
}

// NewKeyPair validates key lengths and builds a KeyPair.
func NewKeyPair(encryptionKey, hmacKey []byte) (KeyPair, error) {
	if len(encryptionKey) != keyLen {
		return KeyPair{}, fmt.Errorf("encryption key must be %d bytes, got %d", keyLen, len(encryptionKey))
	}
	if len(hmacKey) != keyLen {
		return KeyPair{}, fmt.Errorf("hmac key must be %d bytes, got %d", keyLen, len(hmacKey))
	}
	return KeyPair{EncryptionKey: encryptionKey, HMACKey: hmacKey}, nil
}

// KeyPairFromBase64 decodes the two-element base64 form used by the crypto
// collection's key bundle.
func KeyPairFromBase64(encryptionB64, hmacB64 string) (KeyPair, error) {
	enc, err := base64.StdEncoding.DecodeString(encryptionB64)
	if err != nil {
		return KeyPair{}, fmt.Errorf("decoding encryption key: %w", err)
	}
	mac, err := base64.StdEncoding.DecodeString(hmacB64)
	if err != nil {
		return KeyPair{}, fmt.Errorf("decoding hmac key: %w", err)
	}
	return NewKeyPair(enc, mac)
}

// DeriveRootKeyPair expands the account root secret into the outermost
// (encryption, hmac) pair via HKDF-SHA256. The same derivation the account
// performs at authentication time; kept here so a credential bundle can carry
// just the root secret.
func DeriveRootKeyPair(rootSecret []byte) (KeyPair, error) {
	r := hkdf.New(sha256.New, rootSecret, nil, []byte(kdfInfo))
	material := make([]byte, 2*keyLen)
	if _, err := io.ReadFull(r, material); err != nil {
		return KeyPair{}, fmt.Errorf("hkdf expand: %w", err)
	}
	return NewKeyPair(material[:keyLen], material[keyLen:])
}

// Hierarchy resolves the key pair for a named collection with three levels of
// fallback: a per-collection override, the account-level collection default,
// and finally the account-root pair. Resolve is total; it never fails.
//
// The hierarchy is populated once, when the catalog bootstraps it from the
// crypto collection, and is read-only afterward.
type Hierarchy struct {
	root      KeyPair
	def       *KeyPair
	overrides map[string]KeyPair
}

// NewHierarchy builds a hierarchy whose only entry is the account-root pair.
func NewHierarchy(root KeyPair) *Hierarchy {
	return &Hierarchy{root: root, overrides: make(map[string]KeyPair)}
}

// Root returns the account-root pair, used to decrypt the crypto collection
// itself.
func (h *Hierarchy) Root() KeyPair {
	return h.root
}

// SetCollectionDefault installs the account-wide fallback pair. Called once
// at bootstrap with the crypto collection's "default" entry.
func (h *Hierarchy) SetCollectionDefault(p KeyPair) {
	h.def = &p
}

// SetOverride installs a collection-specific pair. Subsequent Resolve calls
// for that name return it. There is no removal.
func (h *Hierarchy) SetOverride(collection string, p KeyPair) {
	h.overrides[collection] = p
}

// Resolve returns the key pair for the collection: override if present, else
// the account-level default if set, else the account-root pair.
func (h *Hierarchy) Resolve(collection string) KeyPair {
	if p, ok := h.overrides[collection]; ok {
		return p
	}
	if h.def != nil {
		return *h.def
	}
	return h.root
}
