// Package web is the host server: it drives calendar adapters over HTTP/JSON
// and queues their outbound calls and notifications for the client.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sxcal/internal/config"
	appLog "sxcal/internal/log"
	"sxcal/internal/metrics"
	"sxcal/internal/provider"
)

var (
	errRangeLoop       = errors.New("too many range requests in one operation")
	errContainerExists = errors.New("container already exists")
	errNoContainer     = errors.New("no such container")
)

// Server hosts calendars keyed by container id.
type Server struct {
	cfg    *config.Config
	store  *provider.Store
	router chi.Router
	now    func() time.Time

	mu         sync.RWMutex
	containers map[string]*container
}

// Option customizes a Server.
type Option func(*Server)

// WithClock sets the clock handed to new calendars.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(cfg *config.Config, store *provider.Store, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		store:      store,
		containers: make(map[string]*container),
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the router, behind basic auth when configured.
func (s *Server) Handler() http.Handler {
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(s.router)
	}
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(metrics.Middleware())

	r.Get("/health", s.handleHealth)
	if s.cfg.Metrics {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api/containers", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/", s.handleCreate)
			r.Get("/", s.handleState)
			r.Delete("/", s.handleDestroy)
			r.Put("/{setting}", s.handleSetting)
			r.Post("/navigate/{direction}", s.handleNavigate)
			r.Get("/events", s.handleEvents)
			r.Post("/events", s.handleAddEvent)
			r.Put("/events", s.handleUpdateEvent)
			r.Delete("/events/{eventId}", s.handleRemoveEvent)
			r.Post("/range", s.handleRange)
			r.Post("/interactions/{kind}", s.handleInteraction)
			r.Get("/notifications", s.handleNotifications)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and destroys every calendar.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close destroys every hosted calendar.
func (s *Server) Close() {
	s.mu.Lock()
	cs := s.containers
	s.containers = make(map[string]*container)
	s.mu.Unlock()
	for _, c := range cs {
		c.destroy()
	}
}

func (s *Server) container(id string) (*container, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[id]
	return c, ok
}

func (s *Server) containerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.containers))
	for id := range s.containers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) basicAuthEnabled() bool {
	return s.cfg != nil && s.cfg.BasicAuth != nil &&
		s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="sxcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
