package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/newswatch/pkg/domain"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/history.go -pkg mocks -skip-ensure -fmt goimports . HistoryReader

// Server represents HTTP server instance, it serves recorded history read-only
type Server struct {
	config  ConfigProvider
	history HistoryReader
	version string
	debug   bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// HistoryReader loads recorded history, oldest first
type HistoryReader interface {
	Load(ctx context.Context) ([]domain.HistoryEntry, error)
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
	GetRSSConfig() (baseURL, title string)
}

// New initializes a new server instance
func New(cfg ConfigProvider, history HistoryReader, version string, debug bool) *Server {
	s := &Server{
		config:  cfg,
		history: history,
		version: version,
		debug:   debug,
		router:  routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("newswatch", "umputun", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /history", s.historyHandler)
	})

	s.router.HandleFunc("GET /rss", s.rssHandler)
	s.router.HandleFunc("GET /rss/{category}", s.rssHandler)
}

// statusHandler returns server status with a short history summary
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.Load(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to load history: %v", err)
		renderError(w, r, errors.New("failed to load history"), http.StatusInternalServerError)
		return
	}

	counts := map[domain.Category]int{}
	for _, e := range entries {
		counts[e.Category]++
	}

	status := map[string]any{
		"status":     "ok",
		"version":    s.version,
		"time":       time.Now().UTC(),
		"entries":    len(entries),
		"categories": counts,
	}
	if len(entries) > 0 {
		status["latest"] = entries[len(entries)-1]
	}
	renderJSON(w, r, http.StatusOK, status)
}

// historyHandler returns recorded entries newest first, optionally filtered by ?category=
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	category, err := categoryParam(r.URL.Query().Get("category"))
	if err != nil {
		renderError(w, r, err, http.StatusBadRequest)
		return
	}

	entries, err := s.history.Load(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to load history: %v", err)
		renderError(w, r, errors.New("failed to load history"), http.StatusInternalServerError)
		return
	}

	res := make([]domain.HistoryEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if category != "" && entries[i].Category != category {
			continue
		}
		res = append(res, entries[i])
	}
	renderJSON(w, r, http.StatusOK, res)
}

// categoryParam parses optional category value, empty means all categories
func categoryParam(v string) (domain.Category, error) {
	if v == "" {
		return "", nil
	}
	return domain.ParseCategory(v)
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, map[string]string{"error": errMsg})
}
