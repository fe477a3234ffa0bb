// Package registrytest provides a fake package registry for tests.
//
// Routes are chi patterns, so a fake can answer whole families of paths:
//
//	srv := registrytest.New(t)
//	srv.JSON("/pypi/{name}/{version}/json", map[string]any{...})
//	client := pypi.NewClient(nil, time.Hour)
//	client.SetBaseURL(srv.URL + "/pypi")
package registrytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Server is a fake registry. Unregistered paths answer 404.
type Server struct {
	*httptest.Server
	router chi.Router

	mu   sync.Mutex
	hits map[string]int
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{router: chi.NewRouter(), hits: make(map[string]int)}
	s.router.Use(s.count)
	s.Server = httptest.NewServer(s.router)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// JSON answers GET pattern with v encoded as JSON. A string or []byte v
// is written verbatim.
func (s *Server) JSON(pattern string, v any) {
	s.router.Get(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch b := v.(type) {
		case string:
			w.Write([]byte(b))
		case []byte:
			w.Write(b)
		default:
			json.NewEncoder(w).Encode(v)
		}
	})
}

// Text answers GET pattern with body as plain text.
func (s *Server) Text(pattern, body string) {
	s.router.Get(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(body))
	})
}

// Status answers GET pattern with an empty response of the given status.
func (s *Server) Status(pattern string, code int) {
	s.router.Get(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

// Handle registers an arbitrary handler for GET pattern.
func (s *Server) Handle(pattern string, h http.HandlerFunc) {
	s.router.Get(pattern, h)
}

// Hits returns how often path was requested, including unmatched paths.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}
