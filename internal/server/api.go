package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dan/depara/internal/dashboard"
	"github.com/dan/depara/internal/depara"
	"github.com/dan/depara/internal/export"
	"github.com/dan/depara/internal/progress"
)

// ── JSON helpers ────────────────────────────────────────────────────────

// apiResponse is the standard envelope for all API responses.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func jsonStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{OK: true, Data: data})
}

func jsonOK(w http.ResponseWriter, data any) {
	jsonStatus(w, http.StatusOK, data)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiResponse{OK: false, Error: msg})
}

// ── Stats ───────────────────────────────────────────────────────────────

// statsPayload mirrors the statistics object the dashboard renders from:
// one entry per entity key plus the overall progress.
type statsPayload struct {
	Banco       string                          `json:"banco"`
	CollectedAt time.Time                       `json:"collected_at"`
	Stats       map[string]progress.EntityStat `json:"stats"`
	Total       progress.Totals                 `json:"progresso_total"`
	Categories  map[string]progress.Totals      `json:"progresso_categorias"`
}

// GET /api/v1/stats?banco=   (format=xlsx for a summary workbook)
func (s *Server) apiStats(w http.ResponseWriter, r *http.Request) {
	banco := r.URL.Query().Get("banco")
	if banco == "" {
		jsonError(w, http.StatusBadRequest, "banco is required")
		return
	}

	src, err := s.source(r.Context(), banco)
	switch {
	case errors.Is(err, depara.ErrTenantNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, dashboard.ErrSourceNotReady):
		jsonError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.log.Error("api stats", zap.String("tenant", banco), zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	snap, _ := src.(*depara.Snapshot)
	if snap == nil {
		jsonError(w, http.StatusInternalServerError, "unexpected source")
		return
	}

	plan := s.dispatcher.Plan(snap, nil)

	if r.URL.Query().Get("format") == "xlsx" {
		sections := make([]export.Section, 0, len(plan.Sections))
		for _, sec := range plan.Sections {
			sections = append(sections, export.Section{Category: sec.Group.Category, Members: sec.Group.Members})
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="Resumo_`+banco+`.xlsx"`)
		if err := export.WriteSummary(w, sections); err != nil {
			s.log.Error("summary workbook", zap.String("tenant", banco), zap.Error(err))
		}
		metricExports.Inc()
		return
	}

	payload := statsPayload{
		Banco:       snap.Tenant,
		CollectedAt: snap.CollectedAt,
		Stats:       snap.Stats,
		Total:       plan.Totals,
		Categories:  make(map[string]progress.Totals, len(plan.Sections)),
	}
	for _, sec := range plan.Sections {
		payload.Categories[sec.Category.Name] = sec.Totals
	}
	jsonOK(w, payload)
}

// POST /api/v1/refresh?banco=   (all project databases when banco is empty)
func (s *Server) apiRefresh(w http.ResponseWriter, r *http.Request) {
	banco := r.URL.Query().Get("banco")
	if banco == "" {
		go s.refreshAll(s.backgroundContext())
		jsonStatus(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
		return
	}

	err := s.refreshTenant(r.Context(), banco)
	switch {
	case err == nil:
		jsonOK(w, s.snapshots.Status(banco))
	case errors.Is(err, errRefreshInFlight):
		jsonStatus(w, http.StatusAccepted, s.snapshots.Status(banco))
	case errors.Is(err, depara.ErrTenantNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	default:
		jsonError(w, http.StatusBadGateway, err.Error())
	}
}

// GET /api/v1/projects
func (s *Server) apiProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.ListAll()
	if err != nil {
		s.log.Error("api projects", zap.Error(err))
		jsonError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	type projectView struct {
		ID       string   `json:"id"`
		Name     string   `json:"name"`
		Database string   `json:"database"`
		Scopes   []string `json:"scopes"`
	}
	out := make([]projectView, 0, len(projects))
	for _, p := range projects {
		scopes, err := s.scopes.EnabledScopes(p.ID)
		if err != nil {
			s.log.Warn("project scopes", zap.String("project", p.ID), zap.Error(err))
		}
		out = append(out, projectView{ID: p.ID, Name: p.Name, Database: p.Database, Scopes: scopes})
	}
	jsonOK(w, out)
}

// ── Debug ───────────────────────────────────────────────────────────────

type routeInfo struct {
	Method string `json:"method"`
	Route  string `json:"route"`
}

// GET /debug/routes lists every registered route.
func (s *Server) handleDebugRoutes(w http.ResponseWriter, r *http.Request) {
	var routes []routeInfo
	err := chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeInfo{Method: method, Route: strings.TrimSuffix(route, "/*")})
		return nil
	})
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Route != routes[j].Route {
			return routes[i].Route < routes[j].Route
		}
		return routes[i].Method < routes[j].Method
	})
	jsonOK(w, routes)
}
