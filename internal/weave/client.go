// Package weave is the client side of the encrypted collection storage
// protocol: a signed HTTP/JSON API exposing info/collections and per-
// collection listings of encrypted storage objects, paginated through the
// X-Weave-Next-Offset response header.
package weave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avollmer/weavebox/internal/cryptox"
)

// NextOffsetHeader carries the next-page offset token. It is present on a
// response iff another page exists.
const NextOffsetHeader = "X-Weave-Next-Offset"

// Signer turns an outbound request into an authenticated one using the
// account's signing credentials. Credential management and the signature
// scheme are external collaborators; the client only supplies path and query.
type Signer interface {
	Sign(req *http.Request) error
}

// BSO is the storage envelope wrapping an encrypted JSON string.
type BSO struct {
	ID       string  `json:"id"`
	Modified float64 `json:"modified"` // seconds
	Payload  string  `json:"payload"`
}

// ModifiedTime converts the envelope's float-seconds timestamp.
func (b BSO) ModifiedTime() time.Time {
	sec, frac := math.Modf(b.Modified)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// Envelope decodes the JSON-encoded payload string into its encrypted parts.
func (b BSO) Envelope() (cryptox.Envelope, error) {
	var env cryptox.Envelope
	if err := json.Unmarshal([]byte(b.Payload), &env); err != nil {
		return cryptox.Envelope{}, fmt.Errorf("decoding payload of %q: %w", b.ID, err)
	}
	return env, nil
}

// Client issues signed requests against one account's storage endpoint.
type Client struct {
	base   *url.URL
	http   *http.Client
	signer Signer
}

// NewClient builds a client for the given endpoint URL. httpClient may be nil
// to use http.DefaultClient; timeouts and retries are the caller's transport
// concern.
func NewClient(endpoint string, signer Signer, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(endpoint, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, http: httpClient, signer: signer}, nil
}

// CollectionQuery narrows a collection listing. Zero values mean "not set".
type CollectionQuery struct {
	Limit  int
	Offset string
	Newer  float64 // seconds; server-side incremental filter
}

// InfoCollections returns the mapping from collection name to last-modified
// timestamp in seconds.
func (c *Client) InfoCollections(ctx context.Context) (map[string]float64, error) {
	var out map[string]float64
	if _, err := c.get(ctx, "info/collections", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Collection fetches one page of a collection listing, oldest-modified first
// with full records, and returns the next-page offset token ("" when this was
// the last page).
func (c *Client) Collection(ctx context.Context, name string, q CollectionQuery) ([]BSO, string, error) {
	params := url.Values{}
	params.Set("sort", "oldest")
	params.Set("full", "true")
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset != "" {
		params.Set("offset", q.Offset)
	}
	if q.Newer > 0 {
		params.Set("newer", strconv.FormatFloat(q.Newer, 'f', -1, 64))
	}

	var page []BSO
	header, err := c.get(ctx, "storage/"+name, params, &page)
	if err != nil {
		return nil, "", err
	}
	return page, header.Get(NextOffsetHeader), nil
}

// Item fetches a single storage object by id.
func (c *Client) Item(ctx context.Context, collection, id string) (BSO, error) {
	var out BSO
	if _, err := c.get(ctx, "storage/"+collection+"/"+id, nil, &out); err != nil {
		return BSO{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (http.Header, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	if err := c.signer.Sign(req); err != nil {
		return nil, fmt.Errorf("signing request for %s: %w", path, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decoding response of %s: %w", path, err)
	}
	return resp.Header, nil
}
