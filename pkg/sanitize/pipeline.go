package sanitize

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jcadam/veil/pkg/fetch"
	"github.com/jcadam/veil/pkg/mode"
	"github.com/jcadam/veil/pkg/privacy"
)

// ErrSanitizationFailed means a sub-policy failed. No partially sanitized
// content is ever returned alongside it.
var ErrSanitizationFailed = errors.New("sanitization failed")

// Result is the only artifact that leaves the pipeline. It contains no raw
// cookies and no script payloads.
type Result struct {
	ContentType         string
	SafeBody            []byte
	StatusCode          int
	FinalURL            string
	Headers             http.Header
	StrippedHeaderCount int
	StrippedCookieCount int
	ScriptsRemoved      bool
	RequiresScripts     bool
}

// Sanitize applies the inbound header filter, then the cookie policy, then
// the script/content policy — in that fixed order: cookies must be gone
// before any content parsing so malformed markup can never reintroduce
// them. The second return value holds session cookies the caller may store
// in its in-memory jar (only ever non-empty under a session-only policy);
// they are deliberately kept out of the Result.
//
// On any sub-policy failure the raw response yields nothing: the error
// wraps ErrSanitizationFailed and the Result is nil.
func Sanitize(p mode.Policy, raw *fetch.RawResponse) (*Result, []*http.Cookie, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("%w: no response to sanitize", ErrSanitizationFailed)
	}

	kept, rawCookies, strippedHeaders := privacy.FilterInbound(raw.Headers)
	sessionCookies, strippedCookies := ApplyCookiePolicy(p.Cookies, rawCookies)

	content, err := ApplyContentPolicy(p, kept.Get("Content-Type"), raw.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: content policy: %v", ErrSanitizationFailed, err)
	}

	return &Result{
		ContentType:         kept.Get("Content-Type"),
		SafeBody:            content.Body,
		StatusCode:          raw.StatusCode,
		FinalURL:            raw.FinalURL,
		Headers:             kept,
		StrippedHeaderCount: strippedHeaders,
		StrippedCookieCount: strippedCookies,
		ScriptsRemoved:      content.ScriptsRemoved,
		RequiresScripts:     content.RequiresScripts,
	}, sessionCookies, nil
}
