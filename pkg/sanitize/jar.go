package sanitize

import (
	"net/http"
	"sort"
	"strings"
	"sync"
)

// SessionJar holds session-only cookies in memory, keyed by origin host.
// It is never written to durable storage and is cleared whenever the
// browsing session ends or the active mode changes.
type SessionJar struct {
	mu      sync.Mutex
	cookies map[string]map[string]string // host → name → value
}

// NewSessionJar creates an empty jar.
func NewSessionJar() *SessionJar {
	return &SessionJar{cookies: make(map[string]map[string]string)}
}

// Store records session cookies for a host.
func (j *SessionJar) Store(host string, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	m := j.cookies[host]
	if m == nil {
		m = make(map[string]string)
		j.cookies[host] = m
	}
	for _, c := range cookies {
		m[c.Name] = c.Value
	}
}

// Header returns the Cookie header value for a host, or "" when the jar
// holds nothing for it. Names are emitted in sorted order so the header is
// deterministic.
func (j *SessionJar) Header(host string) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	m := j.cookies[host]
	if len(m) == 0 {
		return ""
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+m[name])
	}
	return strings.Join(pairs, "; ")
}

// Clear drops every stored cookie.
func (j *SessionJar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies = make(map[string]map[string]string)
}

// Len reports the number of hosts with stored cookies.
func (j *SessionJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}
