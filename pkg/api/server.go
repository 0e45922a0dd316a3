// Package api exposes navigation sessions over HTTP as JSON.
//
// Every /api request belongs to a session named by the X-Crate-Session
// header. Requests without the header, or naming an expired session, get a
// fresh session whose ID is returned in the same header. Sessions are
// independent: each has its own cache, breadcrumbs and search index.
//
// # Routes
//
//	POST   /api/open               {"locator", "name", "first"} or {"text"}
//	POST   /api/nested             {"reference"}
//	POST   /api/back
//	POST   /api/breadcrumbs/{index}
//	POST   /api/reload
//	POST   /api/reset
//	DELETE /api/session
//	GET    /api/nav
//	GET    /api/tree
//	GET    /api/entities
//	GET    /api/entities/{id...}   id is URL-escaped
//	GET    /api/hints
//	GET    /api/search?q=&limit=
//	GET    /health
//	GET    /metrics                when a metrics handler is configured
package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/crateview/pkg/locator"
	"github.com/matzehuels/crateview/pkg/session"
)

// SessionHeader carries the session ID on requests and responses.
const SessionHeader = "X-Crate-Session"

// TextRegistrar turns pasted documents into locators.
type TextRegistrar interface {
	AddText(data []byte) (locator.Locator, error)
}

// Options configures a Server.
type Options struct {
	Texts        TextRegistrar // nil disables {"text"} uploads
	Metrics      http.Handler  // served at /metrics when set
	SearchLimit  int           // default limit for /api/search; default 20
	MaxBodyBytes int64         // default 16 MiB
}

// Server is the HTTP API server for crateview.
type Server struct {
	router chi.Router
	store  session.Store
	log    *log.Logger
	opts   Options
}

// NewServer creates and configures the HTTP server.
func NewServer(store session.Store, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 20
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 16 << 20
	}
	s := &Server{store: store, log: logger, opts: opts}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(SessionMiddleware(s.store, s.log))

		r.Post("/open", s.handleOpen)
		r.Post("/nested", s.handleNested)
		r.Post("/back", s.handleBack)
		r.Post("/breadcrumbs/{index}", s.handleBreadcrumb)
		r.Post("/reload", s.handleReload)
		r.Post("/reset", s.handleReset)
		r.Delete("/session", s.handleDeleteSession)

		r.Get("/nav", s.handleNav)
		r.Get("/tree", s.handleTree)
		r.Get("/entities", s.handleEntities)
		r.Get("/entities/*", s.handleEntity)
		r.Get("/hints", s.handleHints)
		r.Get("/search", s.handleSearch)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
