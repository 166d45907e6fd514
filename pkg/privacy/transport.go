package privacy

import (
	"net/http"

	"github.com/jcadam/veil/pkg/mode"
)

// Transport is an http.RoundTripper that replaces the outgoing header set
// with the policy's profile on every round trip. Because redirects pass
// through RoundTrip again, each hop gets the same treatment — nothing added
// by earlier hops or by the standard library survives.
type Transport struct {
	base   http.RoundTripper
	policy mode.Policy
}

// NewTransport wraps a base transport with outbound header enforcement.
// If base is nil, a fresh http.Transport is created to avoid sharing
// http.DefaultTransport across requests.
func NewTransport(base http.RoundTripper, p mode.Policy) *Transport {
	if base == nil {
		base = &http.Transport{}
	}
	return &Transport{base: base, policy: p}
}

// RoundTrip applies the header profile and delegates to the base transport.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid mutating the caller's request.
	r := req.Clone(req.Context())

	cookie := r.Header.Get("Cookie")
	r.Header = OutboundHeaders(t.policy.Headers)

	// Session cookies are the cookie policy's business, not the header
	// policy's: re-attach them only when the mode permits them at all.
	if cookie != "" && t.policy.Cookies == mode.CookieSessionOnly {
		r.Header.Set("Cookie", cookie)
	}

	return t.base.RoundTrip(r)
}
