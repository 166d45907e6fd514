package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jcadam/veil/pkg/fetch"
	"github.com/jcadam/veil/pkg/mode"
)

// DefaultSearxNGURL is the conventional local instance.
const DefaultSearxNGURL = "http://127.0.0.1:8888"

// defaultEngines is the engine list passed to the instance when the
// configuration names none.
var defaultEngines = []string{"duckduckgo", "bing", "wikipedia"}

// SearxNG queries a self-hosted SearxNG metasearch instance over its JSON
// API.
type SearxNG struct {
	fetcher *fetch.Fetcher
	baseURL string
	engines []string
}

// NewSearxNG creates the backend. Empty baseURL uses the conventional local
// instance; empty engines uses the default list.
func NewSearxNG(f *fetch.Fetcher, baseURL string, engines []string) *SearxNG {
	if baseURL == "" {
		baseURL = DefaultSearxNGURL
	}
	if len(engines) == 0 {
		engines = defaultEngines
	}
	return &SearxNG{fetcher: f, baseURL: strings.TrimRight(baseURL, "/"), engines: engines}
}

func (s *SearxNG) Backend() Backend { return BackendSearxNG }

// searxResponse is the instance's JSON response shape.
type searxResponse struct {
	Query           string `json:"query"`
	NumberOfResults int    `json:"number_of_results"`
	Results         []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search fetches one page of results. The page token is a decimal page
// number (1-based); empty means the first page.
func (s *SearxNG) Search(ctx context.Context, query, pageToken string, p mode.Policy) (*ResultSet, error) {
	page := parsePage(pageToken)

	u, err := url.Parse(s.baseURL + "/search")
	if err != nil {
		return nil, &UnavailableError{Backend: BackendSearxNG, Err: err}
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("engines", strings.Join(s.engines, ","))
	if page > 1 {
		q.Set("pageno", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()

	raw, err := s.fetcher.Fetch(ctx, fetch.Request{
		URL:     u.String(),
		Policy:  p,
		Timeout: DefaultTimeout,
	})
	if err != nil {
		return nil, &UnavailableError{Backend: BackendSearxNG, Err: err}
	}
	if raw.StatusCode < 200 || raw.StatusCode >= 300 {
		return nil, &UnavailableError{Backend: BackendSearxNG, Err: fmt.Errorf("HTTP %d", raw.StatusCode)}
	}

	var parsed searxResponse
	if err := json.Unmarshal(raw.Body, &parsed); err != nil {
		return nil, &UnavailableError{Backend: BackendSearxNG, Err: fmt.Errorf("decoding response: %w", err)}
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}

	var next string
	if len(results) > 0 {
		next = strconv.Itoa(page + 1)
	}

	return &ResultSet{
		Backend:   BackendSearxNG,
		Results:   results,
		NextPage:  guardToken(pageToken, next),
		TotalHint: parsed.NumberOfResults,
	}, nil
}

// HealthCheck confirms the instance is responding.
func (s *SearxNG) HealthCheck(ctx context.Context, p mode.Policy) error {
	raw, err := s.fetcher.Fetch(ctx, fetch.Request{
		URL:     s.baseURL + "/",
		Policy:  p,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return &UnavailableError{Backend: BackendSearxNG, Err: err}
	}
	if raw.StatusCode != 200 {
		return &UnavailableError{Backend: BackendSearxNG, Err: fmt.Errorf("HTTP %d", raw.StatusCode)}
	}
	return nil
}

func parsePage(token string) int {
	if token == "" {
		return 1
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
