// Package server serves the raw documents behind content-bearing sections
// and the section manifest a viewer is built from. It never renders.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/turumba/docview/internal/section"
)

// ContentPrefix is the URL prefix documents are served under.
const ContentPrefix = "/content/"

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server is the content store.
type Server struct {
	cfg        Config
	content    fs.FS
	registry   *section.Registry
	router     chi.Router
	httpServer *http.Server
}

// New creates a server for the documents in content, described by registry.
func New(cfg Config, content fs.FS, registry *section.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		content:  content,
		registry: registry,
	}

	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/api/sections", s.handleSections)
	r.Get(ContentPrefix+"*", s.handleContent)

	return r
}

// sectionsResponse is the JSON body of /api/sections.
type sectionsResponse struct {
	Default  string               `json:"default"`
	Sections []section.Descriptor `json:"sections"`
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	resp := sectionsResponse{
		Default:  s.registry.Default().ID,
		Sections: s.registry.All(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("server: encoding sections: %v", err)
	}
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	name := path.Clean(strings.TrimPrefix(chi.URLParam(r, "*"), "/"))
	if !fs.ValidPath(name) || name == "." {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	data, err := fs.ReadFile(s.content, name)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			http.NotFound(w, r)
		case errors.Is(err, fs.ErrInvalid):
			http.Error(w, "invalid path", http.StatusBadRequest)
		default:
			log.Printf("server: reading %s: %v", name, err)
			http.Error(w, "read failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", contentType(name))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

// contentType picks the response type for a document name.
func contentType(name string) string {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".md", ".markdown":
		return "text/markdown; charset=utf-8"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "text/plain; charset=utf-8"
	}
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port. After Shutdown it
// returns http.ErrServerClosed.
func (s *Server) Start() error {
	log.Printf("docview content server listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server. It is safe to call from
// another goroutine before or while Start runs.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
