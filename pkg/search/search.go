// Package search normalizes two search backends — the public DuckDuckGo
// HTML frontend and a self-hosted SearxNG instance — into one result shape.
// Both backends fetch through the privacy fetcher, so search traffic obeys
// the same transport, header, and cookie policy as page traffic.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/jcadam/veil/pkg/mode"
)

// Backend tags a result set with its origin.
type Backend string

const (
	BackendDuckDuckGo Backend = "duckduckgo"
	BackendSearxNG    Backend = "searxng"
)

// DefaultTimeout bounds one search round trip.
const DefaultTimeout = 10 * time.Second

// Result is one normalized search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ResultSet is an ordered page of results. NextPage is an opaque token for
// the following page, empty when the backend has no more results. The
// adapter guarantees NextPage never repeats the token that produced this
// page, so a defective backend cannot induce an identical-page loop.
type ResultSet struct {
	Backend   Backend  `json:"backend"`
	Results   []Result `json:"results"`
	NextPage  string   `json:"next_page,omitempty"`
	TotalHint int      `json:"total_hint,omitempty"`
}

// UnavailableError reports that a backend could not serve a search. The
// caller may offer the alternate backend, but never switches automatically.
type UnavailableError struct {
	Backend Backend
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("search backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Searcher is the uniform backend interface.
type Searcher interface {
	Backend() Backend
	Search(ctx context.Context, query, pageToken string, p mode.Policy) (*ResultSet, error)
}

// guardToken enforces the no-repeated-page contract: a next token equal to
// the one that requested this page is discarded.
func guardToken(requested, next string) string {
	if next == requested {
		return ""
	}
	return next
}
