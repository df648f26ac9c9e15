package server

import (
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/web"
)

// reserved are path prefixes entity routes may not use.
var reserved = []string{"/dashboard", "/sidebar", "/api", "/console", "/health", "/metrics", "/debug", "/static"}

// routes registers all HTTP handlers on the server's router.
func (s *Server) routes() error {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logging)
	r.Use(s.recovery)
	r.NotFound(s.handleNotFound)

	// Dashboard
	r.Get("/", s.handleIndex)
	r.Get("/dashboard", s.handleDashboard)
	r.Post("/sidebar/toggle", s.handleSidebarToggle)

	// Console (live activity feed)
	r.Get("/console", s.handleConsole)
	r.Get("/console/events", s.handleConsoleEvents)
	r.Get("/console/statuses", s.handleConsoleStatuses)

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", s.apiStats)
		r.Post("/refresh", s.apiRefresh)
		r.Get("/projects", s.apiProjects)
	})

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/debug/routes", s.handleDebugRoutes)

	// One detail page and one export per catalog entity.
	for _, e := range s.catalog.Entities {
		if err := checkRoute(e); err != nil {
			return err
		}
		r.Get(e.Route, s.handleEntity(e))
		r.Get(e.Route+"/export", s.handleEntityExport(e))
	}

	return s.staticFiles()
}

func checkRoute(e catalog.Entity) error {
	if e.Route == "/" {
		return fmt.Errorf("entity %s: route / is the index", e.Key)
	}
	for _, p := range reserved {
		if e.Route == p || strings.HasPrefix(e.Route, p+"/") {
			return fmt.Errorf("entity %s: route %s clashes with %s", e.Key, e.Route, p)
		}
	}
	return nil
}

// staticFiles registers the handler for serving embedded static assets.
func (s *Server) staticFiles() error {
	// Sub into the "static" directory so URLs map as /static/css/style.css etc.
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("static fs: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	return nil
}
