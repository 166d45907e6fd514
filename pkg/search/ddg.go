package search

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jcadam/veil/pkg/fetch"
	"github.com/jcadam/veil/pkg/mode"
)

// DefaultDuckDuckGoURL is the script-free HTML frontend.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// ddgPageSize is how many results one page carries. The page token is the
// result offset into the full listing.
const ddgPageSize = 10

// DuckDuckGo scrapes the DuckDuckGo HTML frontend.
type DuckDuckGo struct {
	fetcher *fetch.Fetcher
	baseURL string
}

// NewDuckDuckGo creates the backend. An empty baseURL uses the public
// frontend.
func NewDuckDuckGo(f *fetch.Fetcher, baseURL string) *DuckDuckGo {
	if baseURL == "" {
		baseURL = DefaultDuckDuckGoURL
	}
	return &DuckDuckGo{fetcher: f, baseURL: baseURL}
}

func (d *DuckDuckGo) Backend() Backend { return BackendDuckDuckGo }

// Search fetches one page of results. The page token is a decimal offset;
// empty means the first page.
func (d *DuckDuckGo) Search(ctx context.Context, query, pageToken string, p mode.Policy) (*ResultSet, error) {
	offset := parseOffset(pageToken)

	u, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, &UnavailableError{Backend: BackendDuckDuckGo, Err: err}
	}
	q := u.Query()
	q.Set("q", query)
	if offset > 0 {
		q.Set("s", strconv.Itoa(offset))
	}
	u.RawQuery = q.Encode()

	raw, err := d.fetcher.Fetch(ctx, fetch.Request{
		URL:     u.String(),
		Policy:  p,
		Timeout: DefaultTimeout,
	})
	if err != nil {
		return nil, &UnavailableError{Backend: BackendDuckDuckGo, Err: err}
	}
	if raw.StatusCode < 200 || raw.StatusCode >= 300 {
		return nil, &UnavailableError{Backend: BackendDuckDuckGo, Err: fmt.Errorf("HTTP %d", raw.StatusCode)}
	}

	results, err := parseDDGResults(raw.Body)
	if err != nil {
		return nil, &UnavailableError{Backend: BackendDuckDuckGo, Err: err}
	}
	if len(results) > ddgPageSize {
		results = results[:ddgPageSize]
	}

	var next string
	if len(results) == ddgPageSize {
		next = strconv.Itoa(offset + len(results))
	}

	return &ResultSet{
		Backend:  BackendDuckDuckGo,
		Results:  results,
		NextPage: guardToken(pageToken, next),
	}, nil
}

func parseOffset(token string) int {
	if token == "" {
		return 0
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseDDGResults(body []byte) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var results []Result
	doc.Find("div.result").Each(func(_ int, s *goquery.Selection) {
		title := s.Find("a.result__a").First()
		if title.Length() == 0 {
			return
		}
		href, _ := title.Attr("href")
		href = unwrapRedirect(href)
		if href == "" {
			return
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(title.Text()),
			URL:     href,
			Snippet: strings.TrimSpace(s.Find("a.result__snippet").First().Text()),
		})
	})
	return results, nil
}

// unwrapRedirect resolves DuckDuckGo's /l/?uddg= redirect URLs to the real
// destination and normalizes scheme-relative URLs.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//duckduckgo.com/l/") {
		if u, err := url.Parse("https:" + href); err == nil {
			if real := u.Query().Get("uddg"); real != "" {
				href = real
			}
		}
	}
	switch {
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case href == "":
		return ""
	default:
		return "https://" + href
	}
}
