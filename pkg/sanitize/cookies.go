// Package sanitize removes tracking vectors from fetched responses: cookie
// policy, script/content policy, and the fixed-order pipeline composing
// them. Either everything is sanitized or nothing is returned.
package sanitize

import (
	"net/http"

	"github.com/jcadam/veil/pkg/mode"
)

// ApplyCookiePolicy filters raw Set-Cookie values per the mode's cookie
// policy. Block keeps nothing. SessionOnly keeps cookies that carry no
// persistence attribute (Expires or Max-Age); anything meant to outlive
// the session is stripped. Cookie values are never logged anywhere.
func ApplyCookiePolicy(policy mode.CookiePolicy, rawSetCookies []string) (kept []*http.Cookie, stripped int) {
	if len(rawSetCookies) == 0 {
		return nil, 0
	}
	if policy == mode.CookieBlock {
		return nil, len(rawSetCookies)
	}

	for _, c := range parseSetCookies(rawSetCookies) {
		if c.MaxAge != 0 || !c.Expires.IsZero() {
			continue
		}
		kept = append(kept, c)
	}
	return kept, len(rawSetCookies) - len(kept)
}

// parseSetCookies parses raw Set-Cookie header values. Unparseable values
// are dropped, which counts as stripping — fail-closed.
func parseSetCookies(values []string) []*http.Cookie {
	h := http.Header{}
	for _, v := range values {
		h.Add("Set-Cookie", v)
	}
	return (&http.Response{Header: h}).Cookies()
}
