package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/config"
	"github.com/dan/depara/internal/dashboard"
	"github.com/dan/depara/internal/db"
	"github.com/dan/depara/internal/depara"
	"github.com/dan/depara/internal/store"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	cfg         config.Config
	db          *db.DB
	projects    *store.ProjectStore
	scopes      *store.ScopeStore
	tenants     *depara.Tenants
	catalog     *catalog.Catalog
	dispatcher  *dashboard.Dispatcher
	render      *renderer
	router      chi.Router
	http        *http.Server
	snapshots   *snapshotCache
	activity    *activityLog
	log         *zap.Logger
	now         func() time.Time
	stopRefresh chan struct{} // signals the refresher to stop
	stopOnce    sync.Once
	bgCtx       context.Context
	bgCancel    context.CancelFunc
}

// New creates a new Server. It sets up routes and middleware but does not
// start listening.
func New(cfg config.Config, database *db.DB, cat *catalog.Catalog, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	rn, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	loc := cfg.Location()
	bgCtx, bgCancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:         cfg,
		db:          database,
		projects:    store.NewProjectStore(database.Conn),
		scopes:      store.NewScopeStore(database.Conn),
		tenants:     depara.NewTenants(cfg.TenantDir, cfg.Concurrency, log.Named("depara")),
		catalog:     cat,
		dispatcher:  dashboard.NewDispatcher(cat, log.Named("dashboard")),
		render:      rn,
		router:      chi.NewRouter(),
		snapshots:   newSnapshotCache(),
		activity:    newActivityLog(200),
		log:         log,
		now:         func() time.Time { return time.Now().In(loc) },
		stopRefresh: make(chan struct{}),
		bgCtx:       bgCtx,
		bgCancel:    bgCancel,
	}

	if err := s.routes(); err != nil {
		bgCancel()
		return nil, err
	}

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // exports of large tables
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler is the root HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening. It blocks until the server is shut down.
func (s *Server) Start() error {
	s.log.Info("server listening", zap.String("addr", s.http.Addr))
	return s.http.ListenAndServe()
}

// StartBackgroundJobs launches the snapshot refresher. Call this before Start().
func (s *Server) StartBackgroundJobs() {
	go s.refresher()
	s.activity.Logf("system", "info", "DePara started, refreshing every %s", s.cfg.RefreshInterval)
}

// Shutdown gracefully shuts down the HTTP server and background jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopRefresh)
		s.bgCancel()
	})
	return s.http.Shutdown(ctx)
}

// backgroundContext is cancelled on shutdown.
func (s *Server) backgroundContext() context.Context {
	return s.bgCtx
}
