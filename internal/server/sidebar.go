package server

import (
	"bytes"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/dan/depara/internal/dashboard"
)

// sidebarID is the element the toggle swaps.
const sidebarID = "sidebar"

// handleSidebarToggle returns the sidebar in its new state. The current
// state comes from the form and is not stored anywhere.
//
// POST /sidebar/toggle  collapsed=&label_collapsed=&trigger=main|mobile
// plus the projeto query parameter, kept so the nav links stay on the
// selected project.
func (s *Server) handleSidebarToggle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	cur := dashboard.Sidebar{
		Collapsed:      formBool(r, "collapsed"),
		LabelCollapsed: formBool(r, "label_collapsed"),
	}

	pd := s.basePage(r, r.PostFormValue("nav"), "")
	pd.Sidebar = cur.Toggle(dashboard.ParseTrigger(r.PostFormValue("trigger")))

	var buf bytes.Buffer
	if err := s.render.execute(&buf, "dashboard.html", "sidebar", pd); err != nil {
		s.log.Error("render sidebar", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	page, err := dashboard.ParsePage(&buf)
	if err != nil {
		s.log.Error("parse sidebar", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	dashboard.StampTimestamp(page, pd.Now)

	out, err := page.OuterHTML(sidebarID)
	if err != nil {
		s.log.Error("sidebar fragment", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(out))
}

func formBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.FormValue(key))
	return b
}
