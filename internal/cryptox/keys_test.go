package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPair(t *testing.T, fill byte) KeyPair {
	t.Helper()
	enc := bytes.Repeat([]byte{fill}, 32)
	mac := bytes.Repeat([]byte{fill + 1}, 32)
	p, err := NewKeyPair(enc, mac)
	require.NoError(t, err)
	return p
}

func TestNewKeyPair_RejectsBadLengths(t *testing.T) {
	_, err := NewKeyPair(make([]byte, 16), make([]byte, 32))
	assert.Error(t, err)

	_, err = NewKeyPair(make([]byte, 32), make([]byte, 31))
	assert.Error(t, err)
}

func TestDeriveRootKeyPair_DeterministicAndDistinctHalves(t *testing.T) {
	secret := bytes.Repeat([]byte{0xab}, 32)

	p1, err := DeriveRootKeyPair(secret)
	require.NoError(t, err)
	p2, err := DeriveRootKeyPair(secret)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Len(t, p1.EncryptionKey, 32)
	assert.Len(t, p1.HMACKey, 32)
	assert.NotEqual(t, p1.EncryptionKey, p1.HMACKey)

	other, err := DeriveRootKeyPair(bytes.Repeat([]byte{0xac}, 32))
	require.NoError(t, err)
	assert.NotEqual(t, p1.EncryptionKey, other.EncryptionKey)
}

func TestHierarchy_ResolveFallbackOrder(t *testing.T) {
	root := testPair(t, 1)
	def := testPair(t, 3)
	override := testPair(t, 5)

	h := NewHierarchy(root)

	// Nothing set: everything falls back to the account root.
	assert.Equal(t, root, h.Resolve("bookmarks"))
	assert.Equal(t, root, h.Resolve("history"))

	// Account-level default takes over for every non-overridden name.
	h.SetCollectionDefault(def)
	assert.Equal(t, def, h.Resolve("bookmarks"))
	assert.Equal(t, def, h.Resolve("tabs"))

	// A collection override wins for that name only.
	h.SetOverride("bookmarks", override)
	assert.Equal(t, override, h.Resolve("bookmarks"))
	assert.Equal(t, def, h.Resolve("tabs"))

	assert.Equal(t, root, h.Root())
}

func TestKeyPairFromBase64_RoundTrip(t *testing.T) {
	p := testPair(t, 9)

	got, err := KeyPairFromBase64(
		b64(p.EncryptionKey),
		b64(p.HMACKey),
	)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = KeyPairFromBase64("not base64!!", b64(p.HMACKey))
	assert.Error(t, err)
}
