// Package hawkx signs outbound HTTP requests with the Hawk scheme, which the
// storage service requires on every call. Only the header variant without a
// payload hash is implemented; reads never carry a body.
package hawkx

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Signer holds Hawk credentials and signs requests with them. It implements
// the request-signing contract of the storage client.
type Signer struct {
	id  string
	key []byte

	// now and nonce are swappable for tests.
	now   func() time.Time
	nonce func() (string, error)
}

// NewSigner returns a Signer for the given credential id and key.
func NewSigner(id string, key []byte) *Signer {
	return &Signer{
		id:    id,
		key:   key,
		now:   time.Now,
		nonce: randomNonce,
	}
}

// Sign adds an Authorization header authenticating req.
func (s *Signer) Sign(req *http.Request) error {
	ts := s.now().Unix()
	nonce, err := s.nonce()
	if err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}

	mac := s.mac(ts, nonce, req)
	req.Header.Set("Authorization",
		fmt.Sprintf(`Hawk id="%s", ts="%d", nonce="%s", mac="%s"`, s.id, ts, nonce, mac))
	return nil
}

func (s *Signer) mac(ts int64, nonce string, req *http.Request) string {
	host, port := hostPort(req)

	resource := req.URL.EscapedPath()
	if resource == "" {
		resource = "/"
	}
	if req.URL.RawQuery != "" {
		resource += "?" + req.URL.RawQuery
	}

	// hawk.1.header normalized string; hash and ext stay empty.
	normalized := fmt.Sprintf("hawk.1.header\n%d\n%s\n%s\n%s\n%s\n%s\n\n\n",
		ts, nonce, req.Method, resource, host, port)

	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(normalized))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func hostPort(req *http.Request) (string, string) {
	host := req.URL.Hostname()
	port := req.URL.Port()
	if port == "" {
		if strings.EqualFold(req.URL.Scheme, "https") {
			port = "443"
		} else {
			port = "80"
		}
	}
	return strings.ToLower(host), port
}

func randomNonce() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
