package service

import (
	"errors"

	"github.com/jcadam/veil/pkg/fetch"
	"github.com/jcadam/veil/pkg/mode"
	"github.com/jcadam/veil/pkg/privacy"
	"github.com/jcadam/veil/pkg/sanitize"
	"github.com/jcadam/veil/pkg/search"
)

// Code is the stable external error taxonomy. Every internal failure is
// translated into exactly one of these at the service boundary; no raw
// internal error text (which could contain URLs or header values) crosses
// the external interface.
type Code string

const (
	CodeUnknownMode              Code = "unknown_mode"
	CodeTransportUnavailable     Code = "transport_unavailable"
	CodeTransportTimeout         Code = "transport_timeout"
	CodeFetchFailed              Code = "fetch_failed"
	CodeTooManyRedirects         Code = "too_many_redirects"
	CodeSanitizationFailed       Code = "sanitization_failed"
	CodeSearchBackendUnavailable Code = "search_backend_unavailable"
)

// Failure is the only error type the service returns. It carries the
// taxonomy code and, for search failures, the backend tag — nothing else.
type Failure struct {
	Code    Code
	Backend search.Backend // set only for CodeSearchBackendUnavailable
}

func (f *Failure) Error() string {
	if f.Backend != "" {
		return string(f.Code) + ": " + string(f.Backend)
	}
	return string(f.Code)
}

// Classify maps an internal error onto the taxonomy. Ambiguity is treated
// as failure of the most conservative kind for the operation: anything
// unrecognized classifies as a fetch failure, never as success.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	var unavailable *search.UnavailableError
	if errors.As(err, &unavailable) {
		return &Failure{Code: CodeSearchBackendUnavailable, Backend: unavailable.Backend}
	}

	switch {
	case errors.Is(err, mode.ErrUnknownMode):
		return &Failure{Code: CodeUnknownMode}
	case errors.Is(err, privacy.ErrTransportUnavailable):
		return &Failure{Code: CodeTransportUnavailable}
	case errors.Is(err, privacy.ErrTransportTimeout):
		return &Failure{Code: CodeTransportTimeout}
	case errors.Is(err, fetch.ErrTooManyRedirects):
		return &Failure{Code: CodeTooManyRedirects}
	case errors.Is(err, sanitize.ErrSanitizationFailed):
		return &Failure{Code: CodeSanitizationFailed}
	default:
		return &Failure{Code: CodeFetchFailed}
	}
}
