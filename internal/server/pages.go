package server

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dan/depara/internal/dashboard"
	"github.com/dan/depara/internal/models"
	"github.com/dan/depara/internal/store"
)

// pageData is what every page hands to the layout.
type pageData struct {
	Nav       string
	Title     string
	Sidebar   dashboard.Sidebar
	Projects  []models.Project
	Project   *models.Project
	Tenant    string
	Flash     string
	FlashType string // "info", "warning", "error"
	Now       time.Time
}

// basePage loads the project list and the selected project. An unknown or
// empty id selects the first project; a database without projects leaves
// Project nil.
func (s *Server) basePage(r *http.Request, nav, title string) pageData {
	pd := pageData{Nav: nav, Title: title, Now: s.now()}

	projects, err := s.projects.ListAll()
	if err != nil {
		s.log.Error("list projects", zap.Error(err))
	}
	pd.Projects = projects

	id := r.URL.Query().Get("projeto")
	if id != "" {
		p, err := s.projects.GetByID(id)
		switch {
		case err == nil:
			pd.Project = p
		case errors.Is(err, store.ErrProjectNotFound):
			pd.Flash, pd.FlashType = "Projeto não encontrado; exibindo o primeiro projeto.", "warning"
		default:
			s.log.Error("get project", zap.String("id", id), zap.Error(err))
		}
	}
	if pd.Project == nil {
		p, err := s.projects.First()
		if err != nil && !errors.Is(err, store.ErrProjectNotFound) {
			s.log.Error("first project", zap.Error(err))
		}
		pd.Project = p
	}
	if pd.Project != nil {
		pd.Tenant = pd.Project.Database
	}
	return pd
}

// handleIndex sends the root URL to the dashboard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	target := "/dashboard"
	if q := r.URL.RawQuery; q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// handleNotFound renders a styled 404 page for unmatched routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	pd := pageData{Nav: "", Title: "Página não encontrada", Now: s.now()}
	s.render.write(w, http.StatusNotFound, "not_found.html", "base", pd)
}
