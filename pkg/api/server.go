// Package api exposes the service over a loopback-only HTTP control
// surface. Error responses carry only the taxonomy code; internal error
// text never reaches the wire.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jcadam/veil/pkg/service"
)

// Server wraps the request service in an HTTP API bound to loopback.
type Server struct {
	svc   *service.Service
	prefs PreferenceWriter
	log   zerolog.Logger
	http  *http.Server
}

// PreferenceWriter persists mode changes confirmed through the API.
type PreferenceWriter interface {
	SetMode(name string) error
}

// NewServer builds the server. listen must be a loopback host:port; Serve
// refuses anything else.
func NewServer(listen string, svc *service.Service, prefs PreferenceWriter, log zerolog.Logger) *Server {
	s := &Server{svc: svc, prefs: prefs, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /fetch", s.handleFetch)
	mux.HandleFunc("POST /mode", s.handleMode)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.http = &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Serve binds and runs until the context is canceled. The bind address is
// re-checked here so a bad config can never expose the API beyond the
// local machine.
func (s *Server) Serve(ctx context.Context) error {
	host, _, err := net.SplitHostPort(s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen address %q: %w", s.http.Addr, err)
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("refusing to bind non-loopback address %q", s.http.Addr)
	}

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.http.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("api listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.svc.ClearSession()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func statusFor(code service.Code) int {
	switch code {
	case service.CodeUnknownMode:
		return http.StatusBadRequest
	case service.CodeSanitizationFailed:
		return http.StatusInternalServerError
	default:
		// Transport, fetch, redirect, and search failures are all upstream
		// conditions from the client's point of view.
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	f := service.Classify(err)
	body := map[string]string{"error": string(f.Code)}
	if f.Backend != "" {
		body["backend"] = string(f.Backend)
	}
	writeJSON(w, statusFor(f.Code), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return false
	}
	return true
}
