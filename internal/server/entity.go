package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/dashboard"
	"github.com/dan/depara/internal/depara"
	"github.com/dan/depara/internal/export"
	"github.com/dan/depara/internal/progress"
)

// entityData is the template data for an entity detail page.
type entityData struct {
	pageData
	Entity     catalog.Entity
	Banco      string
	Table      *depara.Table
	Stat       progress.EntityStat
	ExportURL  string
	RowLimit   int
	StatStatus string
	StatClass  string
}

// tenantParam resolves the banco query parameter, falling back to the
// selected project's database and then the default tenant.
func tenantParam(r *http.Request, pd pageData) string {
	return dashboard.ResolveTenant(r.URL.Query().Get("banco"), pd.Tenant)
}

// handleEntity renders the rows of one DePara table with unmapped records
// highlighted. GET {route}?banco=
func (s *Server) handleEntity(e catalog.Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pd := s.basePage(r, "entity", e.Name)
		banco := tenantParam(r, pd)
		data := entityData{
			pageData:  pd,
			Entity:    e,
			Banco:     banco,
			ExportURL: dashboard.LinkFor(e.Route+"/export", banco),
			RowLimit:  s.cfg.RowLimit,
		}

		tbl, err := s.tenants.Rows(r.Context(), banco, e, s.cfg.RowLimit)
		switch {
		case err == nil:
			data.Table = tbl
		case errors.Is(err, depara.ErrTenantNotFound):
			data.Flash, data.FlashType = "Banco "+banco+" não encontrado.", "error"
		case errors.Is(err, depara.ErrTableNotFound):
			data.Flash, data.FlashType = "A tabela "+e.Table+" não existe no banco "+banco+".", "warning"
		default:
			s.log.Error("entity rows", zap.String("tenant", banco), zap.String("table", e.Table), zap.Error(err))
			data.Flash, data.FlashType = "Erro ao carregar detalhes da tabela.", "error"
		}

		if snap, ok := s.snapshots.Get(banco); ok {
			data.Stat, _ = snap.Stat(e.Key)
		} else if tbl != nil && !tbl.Truncated {
			total, pending := len(tbl.Rows), tbl.PendingCount()
			data.Stat = progress.EntityStat{Total: total, Pending: pending, Percent: depara.Percent(total, pending)}
		}
		data.Stat.Name = e.Name
		c := data.Stat.Classification()
		data.StatStatus, data.StatClass = c.Label.Text(), c.Label.Class()

		s.render.render(w, "entity.html", data)
	}
}

// handleEntityExport streams an entity's table as an xlsx workbook.
// GET {route}/export?banco=
func (s *Server) handleEntityExport(e catalog.Entity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		banco := dashboard.ResolveTenant(r.URL.Query().Get("banco"), "")

		tbl, err := s.tenants.Rows(r.Context(), banco, e, 0)
		switch {
		case errors.Is(err, depara.ErrTenantNotFound), errors.Is(err, depara.ErrTableNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		case err != nil:
			s.log.Error("export rows", zap.String("tenant", banco), zap.String("table", e.Table), zap.Error(err))
			http.Error(w, "Erro ao exportar para Excel", http.StatusInternalServerError)
			return
		}

		var buf bytes.Buffer
		if err := export.WriteEntity(&buf, tbl.Columns, tbl.Rows); err != nil {
			s.log.Error("export workbook", zap.String("table", e.Table), zap.Error(err))
			http.Error(w, "Erro ao exportar para Excel", http.StatusInternalServerError)
			return
		}

		metricExports.Inc()
		s.activity.Logf(banco, "info", "Exported %s (%d rows)", e.Table, len(tbl.Rows))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, e.Table))
		buf.WriteTo(w)
	}
}
