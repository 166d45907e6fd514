package sanitize

import (
	"net/http"
	"testing"
)

func TestJarStoreAndHeader(t *testing.T) {
	j := NewSessionJar()
	j.Store("example.com", []*http.Cookie{
		{Name: "b", Value: "2"},
		{Name: "a", Value: "1"},
	})

	if got := j.Header("example.com"); got != "a=1; b=2" {
		t.Errorf("Header = %q", got)
	}
	if got := j.Header("other.com"); got != "" {
		t.Errorf("unrelated host got cookies: %q", got)
	}
}

func TestJarOverwritesByName(t *testing.T) {
	j := NewSessionJar()
	j.Store("example.com", []*http.Cookie{{Name: "sid", Value: "old"}})
	j.Store("example.com", []*http.Cookie{{Name: "sid", Value: "new"}})
	if got := j.Header("example.com"); got != "sid=new" {
		t.Errorf("Header = %q", got)
	}
}

func TestJarClear(t *testing.T) {
	j := NewSessionJar()
	j.Store("example.com", []*http.Cookie{{Name: "sid", Value: "x"}})
	j.Clear()
	if j.Len() != 0 {
		t.Errorf("Len after Clear = %d", j.Len())
	}
	if j.Header("example.com") != "" {
		t.Error("cookies survived Clear")
	}
}
