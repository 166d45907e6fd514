package privacy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcadam/veil/pkg/mode"
)

func TestTransportReplacesIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != NeutralUserAgent {
			t.Errorf("User-Agent on the wire = %q", got)
		}
		if r.Header.Get("X-Client-Version") != "" {
			t.Error("client-set header leaked to the server")
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	p, _ := mode.Resolve("lite")
	client := &http.Client{Transport: NewTransport(http.DefaultTransport, p)}

	req, _ := http.NewRequest("GET", srv.URL, nil)
	req.Header.Set("User-Agent", "RealBrowser/99.0 (user@host)")
	req.Header.Set("X-Client-Version", "1.2.3")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
}

func TestTransportDropsCookieWhenBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "" {
			t.Error("cookie sent under a block-cookies mode")
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	p, _ := mode.Resolve("tor")
	client := &http.Client{Transport: NewTransport(http.DefaultTransport, p)}

	req, _ := http.NewRequest("GET", srv.URL, nil)
	req.Header.Set("Cookie", "sid=abc")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
}

func TestTransportKeepsSessionCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Cookie"); got != "sid=abc" {
			t.Errorf("Cookie = %q, want sid=abc", got)
		}
		w.WriteHeader(200)
	}))
	defer srv.Close()

	p, _ := mode.Resolve("standard")
	client := &http.Client{Transport: NewTransport(http.DefaultTransport, p)}

	req, _ := http.NewRequest("GET", srv.URL, nil)
	req.Header.Set("Cookie", "sid=abc")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
}

func TestTransportDoesNotMutateCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	p, _ := mode.Resolve("lite")
	client := &http.Client{Transport: NewTransport(http.DefaultTransport, p)}

	req, _ := http.NewRequest("GET", srv.URL, nil)
	req.Header.Set("X-Original", "yes")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if req.Header.Get("X-Original") != "yes" {
		t.Error("caller's request was mutated")
	}
}
