package hawkx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSigner(key []byte) *Signer {
	s := NewSigner("kid", key)
	s.now = func() time.Time { return time.Unix(1353832234, 0) }
	s.nonce = func() (string, error) { return "j4h3g2", nil }
	return s
}

func expectedMAC(t *testing.T, key []byte, normalized string) string {
	t.Helper()
	h := hmac.New(sha256.New, key)
	h.Write([]byte(normalized))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func TestSignHeader(t *testing.T) {
	key := []byte("werxhqb98rpaxn39848xrunpaw3489ruxnpa98w4rxn")
	s := fixedSigner(key)

	req, err := http.NewRequest(http.MethodGet,
		"https://example.com:8000/resource/1?b=1&a=2", nil)
	require.NoError(t, err)
	require.NoError(t, s.Sign(req))

	normalized := "hawk.1.header\n1353832234\nj4h3g2\nGET\n/resource/1?b=1&a=2\nexample.com\n8000\n\n\n"
	want := `Hawk id="kid", ts="1353832234", nonce="j4h3g2", mac="` +
		expectedMAC(t, key, normalized) + `"`
	assert.Equal(t, want, req.Header.Get("Authorization"))
}

func TestSignDefaultPorts(t *testing.T) {
	for scheme, port := range map[string]string{"http": "80", "https": "443"} {
		s := fixedSigner([]byte("k"))
		req, err := http.NewRequest(http.MethodGet, scheme+"://example.com/x", nil)
		require.NoError(t, err)
		require.NoError(t, s.Sign(req))

		normalized := "hawk.1.header\n1353832234\nj4h3g2\nGET\n/x\nexample.com\n" + port + "\n\n\n"
		assert.Contains(t, req.Header.Get("Authorization"),
			`mac="`+expectedMAC(t, []byte("k"), normalized)+`"`)
	}
}

func TestSignFreshNoncePerRequest(t *testing.T) {
	s := NewSigner("kid", []byte("k"))
	req1, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	req2, _ := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	require.NoError(t, s.Sign(req1))
	require.NoError(t, s.Sign(req2))
	assert.NotEqual(t, req1.Header.Get("Authorization"), req2.Header.Get("Authorization"))
}
