package api

import (
	"net/http"

	"github.com/jcadam/veil/pkg/mode"
	"github.com/jcadam/veil/pkg/service"
)

type searchRequest struct {
	Query     string `json:"query"`
	Mode      string `json:"mode,omitempty"`
	Engine    string `json:"engine,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}

	set, err := s.svc.Search(r.Context(), service.SearchInput{
		Query:     req.Query,
		Mode:      req.Mode,
		Engine:    req.Engine,
		PageToken: req.PageToken,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

type fetchRequest struct {
	URL       string `json:"url"`
	Mode      string `json:"mode,omitempty"`
	TimeoutMs int    `json:"timeout_ms,omitempty"`
}

// fetchResponse is the wire shape of a sanitized page. Raw headers are not
// exposed; only the filtered set already passed by the inbound allow-list,
// and counts describing what was removed.
type fetchResponse struct {
	FinalURL            string            `json:"final_url"`
	StatusCode          int               `json:"status_code"`
	ContentType         string            `json:"content_type"`
	Body                string            `json:"body"`
	Headers             map[string]string `json:"headers,omitempty"`
	StrippedHeaderCount int               `json:"stripped_header_count"`
	StrippedCookieCount int               `json:"stripped_cookie_count"`
	ScriptsRemoved      bool              `json:"scripts_removed"`
	RequiresScripts     bool              `json:"requires_scripts"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}

	res, err := s.svc.Fetch(r.Context(), service.FetchInput{
		URL:       req.URL,
		Mode:      req.Mode,
		TimeoutMs: req.TimeoutMs,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := fetchResponse{
		FinalURL:            res.FinalURL,
		StatusCode:          res.StatusCode,
		ContentType:         res.ContentType,
		Body:                string(res.SafeBody),
		StrippedHeaderCount: res.StrippedHeaderCount,
		StrippedCookieCount: res.StrippedCookieCount,
		ScriptsRemoved:      res.ScriptsRemoved,
		RequiresScripts:     res.RequiresScripts,
	}
	if len(res.Headers) > 0 {
		out.Headers = make(map[string]string, len(res.Headers))
		for k := range res.Headers {
			out.Headers[k] = res.Headers.Get(k)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

// modeResponse echoes the confirmed policy so the client can adjust its
// UI without a second round trip.
type modeResponse struct {
	Mode           string `json:"mode"`
	ScriptsAllowed bool   `json:"scripts_allowed"`
	ImagesAllowed  bool   `json:"images_allowed"`
	CookiePolicy   string `json:"cookie_policy"`
	HeaderProfile  string `json:"header_profile"`
	Transport      string `json:"transport"`
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := s.svc.Mode(req.Mode)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.prefs.SetMode(req.Mode); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, modeResponse{
		Mode:           string(p.Name),
		ScriptsAllowed: p.ScriptsAllowed,
		ImagesAllowed:  p.ImagesAllowed,
		CookiePolicy:   p.Cookies.String(),
		HeaderProfile:  p.Headers.String(),
		Transport:      p.Transport.String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"modes":  mode.Names(),
	})
}
