package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/dashboard"
	"github.com/dan/depara/internal/depara"
	"github.com/dan/depara/internal/progress"
)

var errNoDatabase = errors.New("project has no database")

// sectionView is one category card of the dashboard.
type sectionView struct {
	Name      string
	Container string
	Anchor    string
	Visible   bool
	Totals    progress.Totals
}

// dashboardData is the template data for the dashboard page.
type dashboardData struct {
	pageData
	Sections    []sectionView
	Totals      progress.Totals
	Scopes      []string
	CollectedAt time.Time
}

// handleDashboard renders the page skeleton, then runs the render pass over
// it: category tables, entity links and the sidebar timestamp.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pd := s.basePage(r, "dashboard", "Dashboard")

	var scopes []string
	if pd.Project != nil {
		var err error
		scopes, err = s.scopes.EnabledScopes(pd.Project.ID)
		if err != nil {
			s.log.Error("enabled scopes", zap.String("project", pd.Project.ID), zap.Error(err))
		}
		for _, t := range scopes {
			if !catalog.KnownScope(t) {
				s.log.Warn("unknown scope token", zap.String("project", pd.Project.ID), zap.String("token", t))
			}
		}
	} else {
		pd.Flash, pd.FlashType = "Nenhum projeto cadastrado.", "info"
	}

	src, err := s.source(ctx, pd.Tenant)
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, errNoDatabase):
		outcome = "no_data"
		if pd.Flash == "" {
			pd.Flash, pd.FlashType = "O projeto selecionado não possui banco de dados.", "warning"
		}
	case errors.Is(err, dashboard.ErrSourceNotReady), errors.Is(err, context.DeadlineExceeded):
		outcome = "not_ready"
		pd.Flash, pd.FlashType = "Os dados ainda estão sendo carregados. Tente novamente em instantes.", "warning"
	case errors.Is(err, context.Canceled):
		return
	default:
		outcome = "no_data"
		s.log.Warn("dashboard source", zap.String("tenant", pd.Tenant), zap.Error(err))
		pd.Flash, pd.FlashType = "Não foi possível carregar os dados do banco "+pd.Tenant+".", "error"
	}
	metricRenders.WithLabelValues(outcome).Inc()

	plan := s.dispatcher.Plan(src, scopes)
	data := dashboardData{pageData: pd, Totals: plan.Totals, Scopes: scopes}
	if snap, ok := src.(*depara.Snapshot); ok {
		data.CollectedAt = snap.CollectedAt.In(pd.Now.Location())
	}
	for _, sec := range plan.Sections {
		data.Sections = append(data.Sections, sectionView{
			Name:      sec.Category.Name,
			Container: sec.Category.Container,
			Anchor:    "cat-" + sec.Category.Container,
			Visible:   sec.Visible,
			Totals:    sec.Totals,
		})
	}

	var buf bytes.Buffer
	if err := s.render.execute(&buf, "dashboard.html", "base", data); err != nil {
		s.log.Error("render dashboard", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	page, err := dashboard.ParsePage(&buf)
	if err != nil {
		s.log.Error("parse dashboard", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	res, err := s.dispatcher.Render(ctx, page, plan, dashboard.RenderRequest{
		Tenant: pd.Tenant,
		Scopes: scopes,
		Now:    pd.Now,
	})
	if err != nil {
		// Only cancellation stops the render pass.
		return
	}
	if len(res.Missing) > 0 {
		metricMissingContainers.Add(float64(len(res.Missing)))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := page.WriteTo(w); err != nil {
		s.log.Warn("write dashboard", zap.Error(err))
	}
}

// source returns the statistics of a tenant. A tenant with no snapshot yet
// is loaded on the spot; when another request is already loading it, the
// call waits for the cache under the readiness policy.
func (s *Server) source(ctx context.Context, tenant string) (dashboard.Source, error) {
	if tenant == "" {
		return nil, errNoDatabase
	}
	if snap, ok := s.snapshots.Get(tenant); ok {
		return snap, nil
	}

	err := s.refreshTenant(ctx, tenant)
	if err != nil && !errors.Is(err, errRefreshInFlight) {
		return nil, err
	}
	return dashboard.Await(ctx, s.snapshots.Lookup(tenant), s.primaryIndicator(), s.cfg.RetryPolicy())
}

// primaryIndicator is the entity whose presence marks a snapshot as loaded,
// or "" when the catalog does not track it.
func (s *Server) primaryIndicator() string {
	if _, ok := s.catalog.Entity(dashboard.PrimaryIndicator); ok {
		return dashboard.PrimaryIndicator
	}
	return ""
}
