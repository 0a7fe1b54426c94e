package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Contains(t, cfg.IgnoreDomains, "localhost")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weavebox.yaml")
	body := `
database_dsn: postgres://u:p@db:5432/weavebox
endpoint: https://storage.example.com/1.5/12345
signing_id: kid
signing_key: secret
page_size: 250
log_level: debug
ignore_domains:
  - example.net
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/weavebox", cfg.DatabaseDSN)
	assert.Equal(t, "https://storage.example.com/1.5/12345", cfg.Endpoint)
	assert.Equal(t, "kid", cfg.SigningID)
	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, []string{"example.net"}, cfg.IgnoreDomains)
}

func TestLoadEnvCredentials(t *testing.T) {
	// Credential keys have no defaults; an env-only deployment must still
	// see them.
	t.Setenv("WEAVEBOX_ENDPOINT", "https://storage.example.com/1.5/7")
	t.Setenv("WEAVEBOX_SIGNING_ID", "env-kid")
	t.Setenv("WEAVEBOX_SIGNING_KEY", "env-secret")
	t.Setenv("WEAVEBOX_ROOT_SECRET", "00ff")
	t.Setenv("WEAVEBOX_DATABASE_DSN", "postgres://env:env@db:5432/weavebox")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://storage.example.com/1.5/7", cfg.Endpoint)
	assert.Equal(t, "env-kid", cfg.SigningID)
	assert.Equal(t, "env-secret", cfg.SigningKey)
	assert.Equal(t, "00ff", cfg.RootSecretHex)
	assert.Equal(t, "postgres://env:env@db:5432/weavebox", cfg.DatabaseDSN)
}

func TestLoadLayeringPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weavebox.yaml")
	body := `
endpoint: https://file.example.com/1.5/1
signing_id: file-kid
page_size: 250
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	// Env beats file; file beats default; untouched keys keep defaults.
	t.Setenv("WEAVEBOX_ENDPOINT", "https://env.example.com/1.5/1")
	t.Setenv("WEAVEBOX_SIGNING_KEY", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/1.5/1", cfg.Endpoint)
	assert.Equal(t, "env-secret", cfg.SigningKey)
	assert.Equal(t, "file-kid", cfg.SigningID)
	assert.Equal(t, 250, cfg.PageSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRootKeyPairFromSecret(t *testing.T) {
	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)

	cfg := &Config{RootSecretHex: hex.EncodeToString(secret)}
	pair, err := cfg.RootKeyPair()
	require.NoError(t, err)
	assert.Len(t, pair.EncryptionKey, 32)
	assert.Len(t, pair.HMACKey, 32)
}

func TestRootKeyPairDirect(t *testing.T) {
	enc := make([]byte, 32)
	mac := make([]byte, 32)
	_, _ = rand.Read(enc)
	_, _ = rand.Read(mac)

	cfg := &Config{
		EncryptionKeyHex: hex.EncodeToString(enc),
		HMACKeyHex:       hex.EncodeToString(mac),
	}
	pair, err := cfg.RootKeyPair()
	require.NoError(t, err)
	assert.Equal(t, enc, pair.EncryptionKey)
	assert.Equal(t, mac, pair.HMACKey)
}

func TestRootKeyPairUnconfigured(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.RootKeyPair()
	assert.Error(t, err)
}
