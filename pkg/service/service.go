// Package service is the orchestration boundary of the core: it accepts
// (action, mode) pairs, drives the fetcher, search adapter, and
// sanitization pipeline, and translates every internal failure into the
// stable external taxonomy. It holds no per-request state beyond the
// in-memory session cookie jar.
package service

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jcadam/veil/pkg/fetch"
	"github.com/jcadam/veil/pkg/mode"
	"github.com/jcadam/veil/pkg/sanitize"
	"github.com/jcadam/veil/pkg/search"
)

// PreferenceReader supplies the externally stored user preferences. It is
// consulted on every call that does not pin a mode or engine explicitly,
// so a preference change takes effect mid-session.
type PreferenceReader interface {
	ActiveMode() (string, error)
	ActiveEngine() (string, error)
}

// Service is the single entry point for the client.
type Service struct {
	fetcher  *fetch.Fetcher
	backends map[search.Backend]search.Searcher
	prefs    PreferenceReader
	jar      *sanitize.SessionJar
	log      zerolog.Logger
}

// New creates the service. The backends map must contain every engine the
// preferences can name.
func New(fetcher *fetch.Fetcher, backends map[search.Backend]search.Searcher, prefs PreferenceReader, log zerolog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		backends: backends,
		prefs:    prefs,
		jar:      sanitize.NewSessionJar(),
		log:      log,
	}
}

// SearchInput describes one search action. Empty Mode or Engine falls back
// to the stored preference at call time.
type SearchInput struct {
	Query     string
	Mode      string
	Engine    string
	PageToken string
}

// FetchInput describes one page visit. Empty Mode falls back to the stored
// preference; zero TimeoutMs uses the fetcher default.
type FetchInput struct {
	URL       string
	Mode      string
	TimeoutMs int
}

// Search resolves the mode exactly once, then runs the query through the
// selected backend. There is no automatic fallback to the other backend:
// on failure the error names the backend and the caller decides.
func (s *Service) Search(ctx context.Context, in SearchInput) (*search.ResultSet, error) {
	started := time.Now()
	reqID := uuid.NewString()

	p, err := s.resolveMode(in.Mode)
	if err != nil {
		return nil, s.fail(reqID, "search", "", err)
	}

	engine := in.Engine
	if engine == "" {
		engine, err = s.prefs.ActiveEngine()
		if err != nil {
			engine = string(search.BackendDuckDuckGo)
		}
	}
	backend, ok := s.backends[search.Backend(engine)]
	if !ok {
		return nil, s.fail(reqID, "search", p.Name, &search.UnavailableError{
			Backend: search.Backend(engine),
			Err:     errUnknownBackend,
		})
	}

	set, err := backend.Search(ctx, in.Query, in.PageToken, p)
	if err != nil {
		return nil, s.fail(reqID, "search", p.Name, err)
	}

	s.log.Info().
		Str("request_id", reqID).
		Str("action", "search").
		Str("mode", string(p.Name)).
		Str("backend", string(set.Backend)).
		Int("results", len(set.Results)).
		Dur("elapsed", time.Since(started)).
		Msg("request complete")
	return set, nil
}

// Fetch resolves the mode exactly once, fetches the page through the
// policy-enforcing transport, and sanitizes the response. Session cookies
// kept by the cookie policy go into the in-memory jar, never into the
// returned result.
func (s *Service) Fetch(ctx context.Context, in FetchInput) (*sanitize.Result, error) {
	started := time.Now()
	reqID := uuid.NewString()

	p, err := s.resolveMode(in.Mode)
	if err != nil {
		return nil, s.fail(reqID, "fetch", "", err)
	}

	req := fetch.Request{
		URL:     in.URL,
		Policy:  p,
		Timeout: time.Duration(in.TimeoutMs) * time.Millisecond,
	}
	host := hostOf(in.URL)
	if p.Cookies == mode.CookieSessionOnly && host != "" {
		req.CookieHeader = s.jar.Header(host)
	}

	raw, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, s.fail(reqID, "fetch", p.Name, err)
	}

	result, sessionCookies, err := sanitize.Sanitize(p, raw)
	if err != nil {
		return nil, s.fail(reqID, "fetch", p.Name, err)
	}
	if p.Cookies == mode.CookieSessionOnly && host != "" {
		s.jar.Store(host, sessionCookies)
	}

	s.log.Info().
		Str("request_id", reqID).
		Str("action", "fetch").
		Str("mode", string(p.Name)).
		Int("status", result.StatusCode).
		Bool("scripts_removed", result.ScriptsRemoved).
		Int("headers_stripped", result.StrippedHeaderCount).
		Int("cookies_stripped", result.StrippedCookieCount).
		Dur("elapsed", time.Since(started)).
		Msg("request complete")
	return result, nil
}

// Mode validates a mode name and returns its policy. The session jar is
// cleared whenever the confirmed mode differs from what the jar was
// accumulated under — a mode switch starts a fresh session.
func (s *Service) Mode(name string) (mode.Policy, error) {
	p, err := mode.Resolve(name)
	if err != nil {
		return mode.Policy{}, Classify(err)
	}
	if p.Cookies != mode.CookieSessionOnly {
		s.jar.Clear()
	}
	return p, nil
}

// ClearSession drops all session cookies. Called when the browsing session
// ends.
func (s *Service) ClearSession() {
	s.jar.Clear()
}

func (s *Service) resolveMode(name string) (mode.Policy, error) {
	if name == "" {
		stored, err := s.prefs.ActiveMode()
		if err != nil {
			return mode.Policy{}, err
		}
		name = stored
	}
	return mode.Resolve(name)
}

// fail classifies the error and logs only the taxonomy outcome. The
// original error text never leaves this method.
func (s *Service) fail(reqID, action string, m mode.Name, err error) *Failure {
	f := Classify(err)
	event := s.log.Warn().
		Str("request_id", reqID).
		Str("action", action).
		Str("outcome", string(f.Code))
	if m != "" {
		event = event.Str("mode", string(m))
	}
	event.Msg("request failed")
	return f
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

var errUnknownBackend = &unknownBackendError{}

type unknownBackendError struct{}

func (*unknownBackendError) Error() string { return "engine not configured" }
