package privacy

import (
	"net/http"
	"net/textproto"

	"github.com/jcadam/veil/pkg/mode"
)

// NeutralUserAgent is the fixed identity sent for every request. The host
// client's real identity string never appears on the wire.
const NeutralUserAgent = "Veil/1.0"

// OutboundHeaders returns the exact header set for a profile. The returned
// map is freshly allocated; callers may mutate it.
func OutboundHeaders(profile mode.HeaderProfile) http.Header {
	h := http.Header{}
	h.Set("User-Agent", NeutralUserAgent)
	switch profile {
	case mode.HeaderStandard:
		h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
		h.Set("Accept-Language", "en-US,en;q=0.9")
		h.Set("Upgrade-Insecure-Requests", "1")
	case mode.HeaderAggressive:
		h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	default: // HeaderMinimal
		h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		h.Set("Accept-Language", "en-US")
	}
	return h
}

// inboundAllow is the total inbound policy: any header not listed here is
// dropped. Set-Cookie is extracted separately for the cookie policy, never
// passed through. ETag and all caching validators are tracking vectors and
// stay blocked.
var inboundAllow = map[string]struct{}{
	"Content-Type":     {},
	"Content-Length":   {},
	"Content-Language": {},
	"Date":             {},
	"Location":         {},
}

// FilterInbound applies the inbound allow-list to response headers. It
// returns the kept headers, the raw Set-Cookie values extracted for the
// cookie policy, and the number of header fields dropped. Extracted cookies
// are not counted here — the cookie policy owns that count. Header names
// compare case-insensitively.
func FilterInbound(headers http.Header) (kept http.Header, setCookies []string, stripped int) {
	kept = http.Header{}
	for name, values := range headers {
		canon := textproto.CanonicalMIMEHeaderKey(name)
		if canon == "Set-Cookie" || canon == "Set-Cookie2" {
			setCookies = append(setCookies, values...)
			continue
		}
		if _, ok := inboundAllow[canon]; ok {
			for _, v := range values {
				kept.Add(canon, v)
			}
			continue
		}
		stripped += len(values)
	}
	return kept, setCookies, stripped
}
