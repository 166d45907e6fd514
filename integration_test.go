package veil_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jcadam/veil/pkg/api"
	"github.com/jcadam/veil/pkg/fetch"
	"github.com/jcadam/veil/pkg/prefs"
	"github.com/jcadam/veil/pkg/privacy"
	"github.com/jcadam/veil/pkg/search"
	"github.com/jcadam/veil/pkg/service"
)

// TestEndToEnd exercises the full stack: preferences → service → fetcher →
// sanitization → API, plus search against a fake SearxNG instance.
// Zero network access — uses httptest.NewServer.
func TestEndToEnd(t *testing.T) {
	// Origin with trackers, cookies, and fingerprintable inbound headers.
	var sawUA, sawCookieHdr string
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawUA = r.Header.Get("User-Agent")
		sawCookieHdr = r.Header.Get("Cookie")
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Server", "hidden/3.1")
		w.Header().Set("X-Powered-By", "secrets")
		w.Header().Add("Set-Cookie", "session=keep-me")
		w.Header().Add("Set-Cookie", "track=persist; Max-Age=31536000")
		fmt.Fprint(w, `<html><body>
			<script src="/spy.js"></script>
			<img src="/pixel.gif" width="1" height="1">
			<p onclick="evil()">Readable content</p>
		</body></html>`)
	}))
	defer origin.Close()

	// Fake SearxNG with two disjoint pages.
	searxSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("pageno")
		if page == "" {
			page = "1"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"query": "test", "number_of_results": 20, "results": [
			{"title": "Result page %[1]s", "url": "https://example.org/p%[1]s", "content": "snippet %[1]s"}
		]}`, page)
	}))
	defer searxSrv.Close()

	veilDir := t.TempDir()
	store := prefs.NewStore(veilDir)

	router := privacy.NewRouter("")
	fetcher := fetch.New(router)
	backends := map[search.Backend]search.Searcher{
		search.BackendSearxNG: search.NewSearxNG(fetcher, searxSrv.URL, nil),
	}
	svc := service.New(fetcher, backends, store, zerolog.Nop())
	srv := api.NewServer("127.0.0.1:0", svc, store, zerolog.Nop())
	h := srv.Handler()

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// Fetch under standard: scripts allowed, session cookie kept in the
	// jar, persistent cookie stripped, identity replaced on the wire.
	rec := post("/fetch", fmt.Sprintf(`{"url": %q, "mode": "standard"}`, origin.URL))
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch status = %d, body %s", rec.Code, rec.Body)
	}
	var fres struct {
		Body                string            `json:"body"`
		Headers             map[string]string `json:"headers"`
		StrippedCookieCount int               `json:"stripped_cookie_count"`
		ScriptsRemoved      bool              `json:"scripts_removed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fres); err != nil {
		t.Fatal(err)
	}
	if sawUA != privacy.NeutralUserAgent {
		t.Errorf("origin saw User-Agent %q", sawUA)
	}
	if fres.ScriptsRemoved {
		t.Error("standard mode removed scripts")
	}
	if fres.StrippedCookieCount != 1 {
		t.Errorf("StrippedCookieCount = %d, want 1 (the persistent cookie)", fres.StrippedCookieCount)
	}
	for _, banned := range []string{"Server", "X-Powered-By", "Set-Cookie"} {
		if _, ok := fres.Headers[banned]; ok {
			t.Errorf("%s header crossed the boundary", banned)
		}
	}

	// Second fetch replays the session cookie.
	post("/fetch", fmt.Sprintf(`{"url": %q, "mode": "standard"}`, origin.URL))
	if sawCookieHdr != "session=keep-me" {
		t.Errorf("session cookie not replayed: %q", sawCookieHdr)
	}

	// Switching mode clears the session and persists the preference.
	rec = post("/mode", `{"mode": "lite"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("mode status = %d", rec.Code)
	}
	if m, _ := store.ActiveMode(); m != "lite" {
		t.Errorf("stored mode = %q", m)
	}

	sawCookieHdr = "probe-not-reset"
	post("/fetch", fmt.Sprintf(`{"url": %q}`, origin.URL)) // mode from prefs: lite
	if sawCookieHdr != "" {
		t.Errorf("cookie observable after mode switch: %q", sawCookieHdr)
	}

	// Lite fetch strips scripts and the tracking pixel.
	rec = post("/fetch", fmt.Sprintf(`{"url": %q}`, origin.URL))
	if err := json.Unmarshal(rec.Body.Bytes(), &fres); err != nil {
		t.Fatal(err)
	}
	if !fres.ScriptsRemoved {
		t.Error("lite fetch kept scripts")
	}
	for _, banned := range []string{"spy.js", "onclick", "pixel.gif"} {
		if strings.Contains(fres.Body, banned) {
			t.Errorf("sanitized body still contains %q", banned)
		}
	}
	if !strings.Contains(fres.Body, "Readable content") {
		t.Error("sanitization destroyed the readable content")
	}

	// Search pagination: successive pages are disjoint and the token
	// advances.
	rec = post("/search", `{"query": "test", "engine": "searxng"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d, body %s", rec.Code, rec.Body)
	}
	var page1 search.ResultSet
	if err := json.Unmarshal(rec.Body.Bytes(), &page1); err != nil {
		t.Fatal(err)
	}
	if len(page1.Results) == 0 || page1.NextPage == "" {
		t.Fatalf("page1 = %+v", page1)
	}

	rec = post("/search", fmt.Sprintf(`{"query": "test", "engine": "searxng", "page_token": %q}`, page1.NextPage))
	var page2 search.ResultSet
	if err := json.Unmarshal(rec.Body.Bytes(), &page2); err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, r := range page1.Results {
		seen[r.URL] = true
	}
	for _, r := range page2.Results {
		if seen[r.URL] {
			t.Errorf("page 2 repeats %s", r.URL)
		}
	}
	if page2.NextPage == page1.NextPage {
		t.Error("page token did not advance")
	}
}

// TestTorModeFailsClosed confirms that with no Tor endpoint listening, a
// tor-mode request errors out without ever touching the origin.
func TestTorModeFailsClosed(t *testing.T) {
	touched := false
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		touched = true
	}))
	defer origin.Close()

	store := prefs.NewStore(t.TempDir())
	fetcher := fetch.New(privacy.NewRouter("127.0.0.1:1")) // nothing listens here
	svc := service.New(fetcher, nil, store, zerolog.Nop())
	srv := api.NewServer("127.0.0.1:0", svc, store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/fetch",
		strings.NewReader(fmt.Sprintf(`{"url": %q, "mode": "tor"}`, origin.URL)))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "transport_unavailable") {
		t.Errorf("body = %s", rec.Body)
	}
	if touched {
		t.Error("request reached the origin despite Tor being unavailable")
	}
}

// TestRedirectBoundAcrossStack confirms the redirect limit holds at the
// API boundary with per-hop header enforcement.
func TestRedirectBoundAcrossStack(t *testing.T) {
	mux := http.NewServeMux()
	origin := httptest.NewServer(mux)
	defer origin.Close()

	uaPerHop := make([]string, 0, 8)
	for i := 0; i < 7; i++ {
		hop := i
		mux.HandleFunc(fmt.Sprintf("/hop/%d", hop), func(w http.ResponseWriter, r *http.Request) {
			uaPerHop = append(uaPerHop, r.Header.Get("User-Agent"))
			http.Redirect(w, r, fmt.Sprintf("/hop/%d", hop+1), http.StatusFound)
		})
	}

	store := prefs.NewStore(t.TempDir())
	svc := service.New(fetch.New(privacy.NewRouter("")), nil, store, zerolog.Nop())
	srv := api.NewServer("127.0.0.1:0", svc, store, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/fetch",
		strings.NewReader(fmt.Sprintf(`{"url": %q, "mode": "lite"}`, origin.URL+"/hop/0")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "too_many_redirects") {
		t.Errorf("body = %s", rec.Body)
	}
	for i, ua := range uaPerHop {
		if ua != privacy.NeutralUserAgent {
			t.Errorf("hop %d saw User-Agent %q", i, ua)
		}
	}
}
