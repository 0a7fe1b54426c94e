// Package common defines shared constants and sentinel errors used across
// weavebox components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrOversizedText marks an upsert rejected by a store-side size limit
	// on the indexed text columns. Callers may retry the same upsert with
	// the text fields nulled.
	ErrOversizedText = errors.New("oversized text")

	// Record decryption errors. ErrIntegrity means the declared HMAC did not
	// match: either a wrong key was resolved for the collection or the
	// record was tampered with. It is distinct from transport errors so
	// callers can tell a key-hierarchy bug from a flaky network.
	ErrIntegrity = errors.New("record integrity check failed")
	ErrPadding   = errors.New("invalid pkcs7 padding")

	// ErrKeysNotBootstrapped is returned when a collection is opened before
	// the key hierarchy was loaded from the crypto collection.
	ErrKeysNotBootstrapped = errors.New("key hierarchy not bootstrapped")
)
