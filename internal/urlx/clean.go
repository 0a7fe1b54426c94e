// Package urlx canonicalizes URLs for deduplication and text-fetch keys:
// tracking parameters and fragments are stripped so the same page reached
// through different campaign links maps to one clean URL.
package urlx

import (
	"net/url"
	"strings"
)

// trackingParams are click-id and campaign-attribution parameters dropped
// unconditionally. utm_* is handled by prefix.
var trackingParams = map[string]struct{}{
	"gclid":       {},
	"dclid":       {},
	"fbclid":      {},
	"msclkid":     {},
	"yclid":       {},
	"twclid":      {},
	"igshid":      {},
	"mc_cid":      {},
	"mc_eid":      {},
	"_hsenc":      {},
	"_hsmi":       {},
	"vero_id":     {},
	"oly_anon_id": {},
	"oly_enc_id":  {},
}

// Clean returns the canonical form of rawURL: the html_redirect+q combination
// is reduced, tracking parameters are dropped, and the fragment is removed.
// Clean is idempotent. An empty input yields an empty output, and an
// unparseable URL is returned unchanged.
func Clean(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		// Same policy as an unparseable URL: mangled query strings
		// (semicolon separators) pass through untouched rather than
		// losing their parameters.
		return rawURL
	}

	// A q parameter riding along with html_redirect is the redirector's
	// duplicate of the destination; drop it.
	if q.Has("html_redirect") && q.Has("q") {
		q.Del("q")
	}

	for name := range q {
		if _, ok := trackingParams[name]; ok || strings.HasPrefix(name, "utm_") {
			q.Del(name)
		}
	}

	u.RawQuery = q.Encode()
	u.Fragment = ""
	u.RawFragment = ""

	return u.String()
}
