package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jcadam/veil/pkg/fetch"
	"github.com/jcadam/veil/pkg/mode"
	"github.com/jcadam/veil/pkg/privacy"
	"github.com/jcadam/veil/pkg/sanitize"
	"github.com/jcadam/veil/pkg/search"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"unknown mode", mode.ErrUnknownMode, CodeUnknownMode},
		{"transport unavailable", privacy.ErrTransportUnavailable, CodeTransportUnavailable},
		{"transport timeout", privacy.ErrTransportTimeout, CodeTransportTimeout},
		{"fetch failed", fetch.ErrFetchFailed, CodeFetchFailed},
		{"invalid url", fetch.ErrInvalidURL, CodeFetchFailed},
		{"too many redirects", fetch.ErrTooManyRedirects, CodeTooManyRedirects},
		{"sanitization failed", sanitize.ErrSanitizationFailed, CodeSanitizationFailed},
		{"backend unavailable", &search.UnavailableError{Backend: search.BackendSearxNG, Err: errors.New("down")}, CodeSearchBackendUnavailable},
		{"wrapped sentinel", fmt.Errorf("route: %w", privacy.ErrTransportUnavailable), CodeTransportUnavailable},
		{"unrecognized", errors.New("something else"), CodeFetchFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := Classify(tc.err)
			if f.Code != tc.want {
				t.Errorf("Classify(%v) = %s, want %s", tc.err, f.Code, tc.want)
			}
		})
	}
}

func TestClassifyKeepsBackend(t *testing.T) {
	f := Classify(&search.UnavailableError{Backend: search.BackendDuckDuckGo, Err: errors.New("503")})
	if f.Backend != search.BackendDuckDuckGo {
		t.Errorf("Backend = %q", f.Backend)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	orig := Classify(privacy.ErrTransportTimeout)
	again := Classify(orig)
	if again.Code != orig.Code {
		t.Errorf("re-classifying a Failure changed the code: %s -> %s", orig.Code, again.Code)
	}
}
