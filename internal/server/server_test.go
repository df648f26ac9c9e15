package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/config"
	"github.com/dan/depara/internal/db"
	"github.com/dan/depara/internal/depara"
	"github.com/dan/depara/internal/export"
	"github.com/dan/depara/internal/models"
)

// newTestServer builds a server over a temp directory with tenant DB1
// (marca 10/2, estado 4/0) and one project using it with scopes.
func newTestServer(t *testing.T, scopes string) *Server {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "depara.db")
	cfg.TenantDir = filepath.Join(dir, "tenants")
	cfg.ReadyAttempts = 3
	cfg.ReadyInterval = 5 * time.Millisecond

	database, err := db.New(cfg.DBPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate())

	cat := catalog.MustDefault()
	seedTenant(t, cfg.TenantDir, cat, "DB1", map[string][2]int{"marca": {10, 2}, "estado": {4, 0}})

	srv, err := New(cfg, database, cat, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(srv.bgCancel)

	p := &models.Project{Name: "Loja", Database: "DB1"}
	require.NoError(t, srv.projects.Create(p))
	require.NoError(t, srv.scopes.Create(&models.Scope{ProjectID: p.ID, Name: "Padrão", ScopeTypes: scopes}))
	return srv
}

func seedTenant(t *testing.T, dir string, cat *catalog.Catalog, banco string, counts map[string][2]int) {
	t.Helper()
	tenants := depara.NewTenants(dir, 2, zap.NewNop())
	d, err := tenants.Create(banco)
	require.NoError(t, err)
	defer d.Close()
	for key, c := range counts {
		e, ok := cat.Entity(key)
		require.True(t, ok, key)
		require.NoError(t, depara.Seed(context.Background(), d.Conn, e, c[0], c[1]))
	}
}

func do(t *testing.T, srv *Server, method, target string, body url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func parse(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t, "PESSOA, VEICULOS")

	rec := do(t, srv, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	doc := parse(t, rec)

	assert.Equal(t, 9, doc.Find("#tbody-pessoa tr").Length())
	estado := doc.Find(`#tbody-pessoa a.table-link[href="/estado?banco=DB1"]`)
	require.Equal(t, 1, estado.Length())
	assert.Equal(t, "Estado", estado.Text())

	marca := doc.Find("#tbody-veiculos tr").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("td").First().Text() == "Marca"
	})
	require.Equal(t, 1, marca.Length())
	assert.Contains(t, marca.Text(), "Em Andamento")
	assert.Contains(t, marca.Text(), "80%")

	// GERAL is not enabled: the section stays hidden with its placeholder.
	geral := doc.Find("#tbody-geral")
	assert.Contains(t, geral.Text(), "Carregando")
	assert.Equal(t, 0, geral.Find("a").Length())
	_, hidden := doc.Find("#cat-tbody-geral").Attr("hidden")
	assert.True(t, hidden)

	stamp := doc.Find("#sidebar-update-date").Text()
	assert.NotEqual(t, "--", stamp)
	_, err := time.Parse("02/01/2006, 15:04:05", stamp)
	assert.NoError(t, err)

	assert.Equal(t, 1, srv.snapshots.Len())
}

func TestDashboardAllScopesWhenProjectHasNone(t *testing.T) {
	srv := newTestServer(t, "")

	doc := parse(t, do(t, srv, http.MethodGet, "/dashboard", nil))
	assert.Equal(t, 4, doc.Find("#tbody-geral tr").Length())
	assert.Equal(t, 0, doc.Find("section[hidden]").Length())
}

func TestDashboardUnknownScopesHideEverything(t *testing.T) {
	srv := newTestServer(t, "BOGUS")

	rec := do(t, srv, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	assert.Equal(t, len(srv.catalog.Categories), doc.Find("section.category-card[hidden]").Length())
	assert.Equal(t, 0, doc.Find("a.table-link").Length())
	assert.Contains(t, doc.Find("#tbody-pessoa").Text(), "Carregando")
}

func TestDashboardMissingTenant(t *testing.T) {
	srv := newTestServer(t, "PESSOA")
	p := &models.Project{Name: "Sem banco", Database: "DB9"}
	require.NoError(t, srv.projects.Create(p))

	rec := do(t, srv, http.MethodGet, "/dashboard?projeto="+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	assert.Contains(t, doc.Find(".flash").Text(), "DB9")
	// Rows still render with zero counts and links to the selected tenant.
	assert.Equal(t, 1, doc.Find(`a[href="/estado?banco=DB9"]`).Length())
	assert.Equal(t, "error", srv.snapshots.Status("DB9").Status)
}

func TestSidebarToggle(t *testing.T) {
	srv := newTestServer(t, "PESSOA")

	rec := do(t, srv, http.MethodPost, "/sidebar/toggle", url.Values{
		"collapsed":       {"false"},
		"label_collapsed": {"false"},
		"trigger":         {"main"},
		"nav":             {"dashboard"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<aside id="sidebar"`))

	doc := parse(t, rec)
	aside := doc.Find("#sidebar")
	assert.True(t, aside.HasClass("collapsed"))
	assert.Equal(t, "Expandir Menu", doc.Find("#sidebar-toggle-label").Text())
	assert.NotEqual(t, "--", doc.Find("#sidebar-update-date").Text())
	assert.Equal(t, 0, doc.Find("main").Length())

	// The mobile trigger flips the sidebar but not the main label.
	rec = do(t, srv, http.MethodPost, "/sidebar/toggle", url.Values{
		"collapsed":       {"true"},
		"label_collapsed": {"true"},
		"trigger":         {"mobile"},
	})
	doc = parse(t, rec)
	assert.False(t, doc.Find("#sidebar").HasClass("collapsed"))
	assert.Equal(t, "Expandir Menu", doc.Find("#sidebar-toggle-label").Text())
}

func TestEntityPage(t *testing.T) {
	srv := newTestServer(t, "VEICULOS")

	rec := do(t, srv, http.MethodGet, "/marca?banco=DB1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	assert.Equal(t, 10, doc.Find(".data-table tbody tr").Length())
	assert.Equal(t, 2, doc.Find(".data-table tbody tr.row-pending").Length())
	assert.Equal(t, "Em Andamento", doc.Find(".summary-head .status").Text())
	href, _ := doc.Find(`a[href^="/marca/export"]`).Attr("href")
	assert.Equal(t, "/marca/export?banco=DB1", href)

	rec = do(t, srv, http.MethodGet, "/tmo?banco=DB1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, parse(t, rec).Find(".flash").Text(), "TMO_DePara")
}

func TestEntityExport(t *testing.T) {
	srv := newTestServer(t, "VEICULOS")

	rec := do(t, srv, http.MethodGet, "/marca/export?banco=DB1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Marca_DePara.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.DataSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 11)
	assert.Equal(t, depara.Unmapped, rows[10][3])

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/marca/export?banco=NOPE", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/tmo/export?banco=DB1", nil).Code)
}

type statsEnvelope struct {
	OK    bool         `json:"ok"`
	Error string       `json:"error"`
	Data  statsPayload `json:"data"`
}

func TestAPIStats(t *testing.T) {
	srv := newTestServer(t, "PESSOA")

	rec := do(t, srv, http.MethodGet, "/api/v1/stats?banco=DB1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env statsEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.OK)
	assert.Equal(t, "DB1", env.Data.Banco)
	assert.Equal(t, 10, env.Data.Stats["marca"].Total)
	assert.Equal(t, 2, env.Data.Stats["marca"].Pending)
	assert.Equal(t, 14, env.Data.Total.Total)
	assert.Equal(t, 2, env.Data.Total.Pending)
	assert.Equal(t, 4, env.Data.Categories["Pessoa"].Total)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/v1/stats", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/v1/stats?banco=NOPE", nil).Code)

	rec = do(t, srv, http.MethodGet, "/api/v1/stats?banco=DB1&format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Veículos")
}

func TestAPIRefresh(t *testing.T) {
	srv := newTestServer(t, "PESSOA")

	rec := do(t, srv, http.MethodPost, "/api/v1/refresh?banco=DB1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		OK   bool         `json:"ok"`
		Data TenantStatus `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "ready", env.Data.Status)
	assert.Equal(t, "DB1", env.Data.Tenant)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/api/v1/refresh?banco=NOPE", nil).Code)

	// A tenant already loading is reported as accepted.
	require.True(t, srv.snapshots.MarkLoading("DB1"))
	assert.Equal(t, http.StatusAccepted, do(t, srv, http.MethodPost, "/api/v1/refresh?banco=DB1", nil).Code)
}

func TestAPIProjects(t *testing.T) {
	srv := newTestServer(t, "pessoa,GERAL,bogus")

	rec := do(t, srv, http.MethodGet, "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data []struct {
			Name     string   `json:"name"`
			Database string   `json:"database"`
			Scopes   []string `json:"scopes"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "DB1", env.Data[0].Database)
	assert.Equal(t, []string{"pessoa", "GERAL", "bogus"}, env.Data[0].Scopes)
}

func TestConsole(t *testing.T) {
	srv := newTestServer(t, "PESSOA")
	require.NoError(t, srv.refreshTenant(context.Background(), "DB1"))

	rec := do(t, srv, http.MethodGet, "/console", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parse(t, rec)
	assert.Contains(t, doc.Find("#status-cards").Text(), "DB1")
	assert.Contains(t, doc.Find("#event-rows").Text(), "Snapshot refreshed")

	seq := strconv.FormatInt(srv.activity.Seq(), 10)
	assert.Equal(t, http.StatusNoContent, do(t, srv, http.MethodGet, "/console/events?seq="+seq, nil).Code)

	rec = do(t, srv, http.MethodGet, "/console/events?seq=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/console/events?seq="+seq)

	rec = do(t, srv, http.MethodGet, "/console/statuses", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pill-ready")
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, "PESSOA")

	rec := do(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var h healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 1, h.Migrations)
	assert.Equal(t, len(srv.catalog.Entities), h.Entities)
	assert.Equal(t, srv.cfg.TenantDir, h.TenantDir)
	assert.Equal(t, 1, h.Tenants)

	require.NoError(t, srv.refreshTenant(context.Background(), "DB1"))
	rec = do(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "depara_snapshot_refresh_duration_seconds")
	assert.Contains(t, rec.Body.String(), `depara_snapshot_refresh_total{result="ok"}`)
}

func TestShutdownTwice(t *testing.T) {
	srv := newTestServer(t, "PESSOA")
	ctx := context.Background()

	require.NoError(t, srv.Shutdown(ctx))
	assert.NotPanics(t, func() { _ = srv.Shutdown(ctx) })
	assert.Error(t, srv.backgroundContext().Err())
}

func TestRouting(t *testing.T) {
	srv := newTestServer(t, "PESSOA")

	rec := do(t, srv, http.MethodGet, "/?projeto=abc", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard?projeto=abc", rec.Header().Get("Location"))

	rec = do(t, srv, http.MethodGet, "/nao-existe", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "404")

	rec = do(t, srv, http.MethodGet, "/debug/routes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/marca/export"`)

	rec = do(t, srv, http.MethodGet, "/static/css/style.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckRoute(t *testing.T) {
	assert.NoError(t, checkRoute(catalog.Entity{Key: "marca", Route: "/marca"}))
	assert.Error(t, checkRoute(catalog.Entity{Key: "x", Route: "/"}))
	assert.Error(t, checkRoute(catalog.Entity{Key: "x", Route: "/api/x"}))
	assert.Error(t, checkRoute(catalog.Entity{Key: "x", Route: "/dashboard"}))
	assert.NoError(t, checkRoute(catalog.Entity{Key: "x", Route: "/dashboards"}))
}

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "nunca", timeAgoString(time.Time{}))
	assert.Equal(t, "agora", timeAgoString(time.Now()))
	assert.Equal(t, "há 5 minutos", timeAgoString(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "há 1 hora", timeAgoString(time.Now().Add(-61*time.Minute)))
	assert.Equal(t, "há 3 dias", timeAgoString(time.Now().Add(-73*time.Hour)))
}
