package debug

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNilLoggerIsNoOp(t *testing.T) {
	var l *Logger
	l.Printf("should not panic: %d", 42)
}

func TestTransportRedaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("secret-body"))
	}))
	defer srv.Close()

	var buf strings.Builder
	client := &http.Client{Transport: NewTransport(http.DefaultTransport, NewLogger(&buf))}

	resp, err := client.Get(srv.URL + "/secret/path?token=abc123")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	out := buf.String()
	if !strings.Contains(out, "→ GET") || !strings.Contains(out, "← 200") {
		t.Errorf("expected request and response lines, got:\n%s", out)
	}
	for _, leak := range []string{"secret/path", "token", "abc123", "secret-body"} {
		if strings.Contains(out, leak) {
			t.Errorf("trace leaked %q:\n%s", leak, out)
		}
	}
}

func TestTransportNilLoggerPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(204)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(http.DefaultTransport, nil)}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 204 {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
