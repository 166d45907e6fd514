// Package debug provides redacted wire tracing for troubleshooting the
// fetch pipeline. All types are nil-safe: a nil *Logger is a no-op, and a
// Transport with a nil logger passes through without overhead.
//
// Traces never contain URL paths, query strings, header values, or body
// bytes — only method, scheme, host, status, and timing.
package debug

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger writes trace output to a writer. A nil *Logger is safe to use;
// all methods are no-ops.
type Logger struct {
	w io.Writer
}

// NewLogger creates a Logger that writes to w.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w}
}

// Printf writes a formatted trace line. No-op on nil receiver.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.w, "[trace] "+format+"\n", args...)
}

// Transport is an http.RoundTripper that logs redacted request metadata
// before delegating to a base transport.
type Transport struct {
	Base http.RoundTripper
	Log  *Logger
}

// NewTransport wraps base with redacted tracing. If l is nil, RoundTrip
// delegates directly to base with no additional work.
func NewTransport(base http.RoundTripper, l *Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Log: l}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Log == nil {
		return t.Base.RoundTrip(req)
	}

	// Host and scheme only. The path and query are request content and
	// must not reach any log.
	t.Log.Printf("→ %s %s://%s", req.Method, req.URL.Scheme, req.URL.Host)

	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		t.Log.Printf("← network error (%s)", elapsed)
		return resp, err
	}

	t.Log.Printf("← %d (%s)", resp.StatusCode, elapsed)
	return resp, nil
}
