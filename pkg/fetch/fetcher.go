// Package fetch turns a policy-checked request into a raw HTTP response.
// It composes the proxy router and header policy; it makes no sanitization
// decisions of its own.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jcadam/veil/pkg/debug"
	"github.com/jcadam/veil/pkg/mode"
	"github.com/jcadam/veil/pkg/privacy"
)

// MaxRedirects is the redirect hop bound. A chain of exactly MaxRedirects
// succeeds; one more fails with ErrTooManyRedirects.
const MaxRedirects = 5

// maxBodyBytes caps response bodies to prevent OOM from misbehaving origins.
const maxBodyBytes = 10 << 20 // 10MB

// DefaultTimeout bounds a fetch when the request does not carry its own.
const DefaultTimeout = 30 * time.Second

var (
	// ErrFetchFailed wraps any network-level failure.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrTooManyRedirects means the redirect chain exceeded MaxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrInvalidURL means the URL failed validation before any network I/O.
	ErrInvalidURL = errors.New("invalid URL")
)

// Request describes one fetch. Owned by a single request for its lifetime;
// never shared or reused.
type Request struct {
	URL     string
	Policy  mode.Policy
	Timeout time.Duration

	// CookieHeader carries session cookies for the origin, supplied by the
	// caller under a session-only cookie policy. Empty otherwise.
	CookieHeader string
}

// RawResponse is the unsanitized fetch product. It is consumed exactly once
// by the sanitization pipeline and then discarded — never persisted.
type RawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	FinalURL   string
}

// Fetcher issues policy-compliant HTTP requests.
type Fetcher struct {
	router *privacy.Router
	trace  *debug.Logger
}

// New creates a fetcher routing through the given router.
func New(router *privacy.Router) *Fetcher {
	return &Fetcher{router: router}
}

// SetTrace enables redacted wire tracing. A nil logger disables it.
func (f *Fetcher) SetTrace(l *debug.Logger) { f.trace = l }

// ValidateURL accepts only absolute http/https URLs with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// Fetch resolves the transport, applies the outbound header policy, and
// issues the request bounded by the request timeout. Non-2xx statuses still
// return a RawResponse; what to do with error pages is the caller's policy
// decision. Each redirect hop re-applies the outbound header policy.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*RawResponse, error) {
	if err := ValidateURL(req.URL); err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	base, err := f.router.Route(ctx, req.Policy)
	if err != nil {
		return nil, err
	}
	defer base.CloseIdleConnections()

	var rt http.RoundTripper = privacy.NewTransport(base, req.Policy)
	if f.trace != nil {
		rt = debug.NewTransport(rt, f.trace)
	}

	// Each fetch gets its own client: no connection pool, cookie jar, or
	// redirect state is ever shared across requests.
	client := &http.Client{
		Transport: rt,
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			if len(via) > MaxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if req.CookieHeader != "" {
		httpReq.Header.Set("Cookie", req.CookieHeader)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if errors.Is(err, ErrTooManyRedirects) {
			return nil, fmt.Errorf("%w: chain exceeded %d hops", ErrTooManyRedirects, MaxRedirects)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetchFailed, err)
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}
