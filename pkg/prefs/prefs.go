// Package prefs stores the user's runtime choices — active privacy mode,
// search engine, renderer — in preferences.json under the Veil directory.
// Preferences are the only thing Veil persists; request data never touches
// disk.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jcadam/veil/pkg/mode"
	"github.com/jcadam/veil/pkg/search"
)

const fileName = "preferences.json"

// Preferences is the on-disk shape. All fields have working defaults so a
// missing or partial file never blocks startup.
type Preferences struct {
	PrivacyMode  string `json:"privacy_mode"`
	SearchEngine string `json:"search_engine"`
	Renderer     string `json:"renderer"`
}

// Defaults returns the preferences used on first run: the most private
// non-Tor mode, the public search backend, plain text rendering.
func Defaults() Preferences {
	return Preferences{
		PrivacyMode:  string(mode.Lite),
		SearchEngine: string(search.BackendDuckDuckGo),
		Renderer:     "text",
	}
}

// Store reads and writes preferences.json. Reads hit the disk every time
// so an edit from another process (or the user, by hand) takes effect on
// the next request; writes are serialized.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a store rooted at the given Veil directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Load returns the stored preferences, filling defaults for anything
// missing. A corrupt file is an error, not silently replaced.
func (s *Store) Load() (Preferences, error) {
	p := Defaults()
	data, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("reading preferences: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("parsing preferences: %w", err)
	}
	fillDefaults(&p)
	if err := Validate(p); err != nil {
		return Defaults(), err
	}
	return p, nil
}

// Save validates and writes the full preference set.
func (s *Store) Save(p Preferences) error {
	fillDefaults(&p)
	if err := Validate(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating veil directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, fileName), append(data, '\n'), 0o644)
}

// SetMode validates and stores a new active mode.
func (s *Store) SetMode(name string) error {
	p, err := s.Load()
	if err != nil {
		return err
	}
	p.PrivacyMode = name
	return s.Save(p)
}

// SetEngine validates and stores a new active search engine.
func (s *Store) SetEngine(name string) error {
	p, err := s.Load()
	if err != nil {
		return err
	}
	p.SearchEngine = name
	return s.Save(p)
}

// ActiveMode implements service.PreferenceReader.
func (s *Store) ActiveMode() (string, error) {
	p, err := s.Load()
	if err != nil {
		return "", err
	}
	return p.PrivacyMode, nil
}

// ActiveEngine implements service.PreferenceReader.
func (s *Store) ActiveEngine() (string, error) {
	p, err := s.Load()
	if err != nil {
		return "", err
	}
	return p.SearchEngine, nil
}

func fillDefaults(p *Preferences) {
	def := Defaults()
	if p.PrivacyMode == "" {
		p.PrivacyMode = def.PrivacyMode
	}
	if p.SearchEngine == "" {
		p.SearchEngine = def.SearchEngine
	}
	if p.Renderer == "" {
		p.Renderer = def.Renderer
	}
}

// Validate rejects values outside the known enums so a typo in a
// hand-edited file surfaces immediately instead of at request time.
func Validate(p Preferences) error {
	if _, err := mode.Resolve(p.PrivacyMode); err != nil {
		return fmt.Errorf("privacy_mode: %w", err)
	}
	switch search.Backend(p.SearchEngine) {
	case search.BackendDuckDuckGo, search.BackendSearxNG:
	default:
		return fmt.Errorf("search_engine %q is not a known backend", p.SearchEngine)
	}
	switch p.Renderer {
	case "text", "html":
	default:
		return fmt.Errorf("renderer %q is not known", p.Renderer)
	}
	return nil
}
