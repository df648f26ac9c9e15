package server

import (
	"net/http"
	"strconv"
)

// ── Template data ───────────────────────────────────────────────────────

type consoleData struct {
	pageData
	Statuses map[string]*TenantStatus
	Events   []ActivityEvent
	Seq      int64
}

// handleConsole renders the full console page.
func (s *Server) handleConsole(w http.ResponseWriter, r *http.Request) {
	s.render.render(w, "console.html", consoleData{
		pageData: s.basePage(r, "console", "Console"),
		Statuses: s.snapshots.Statuses(),
		Events:   s.activity.Recent(100),
		Seq:      s.activity.Seq(),
	})
}

// handleConsoleEvents returns just the activity log rows as an HTML fragment,
// for htmx polling. It returns 204 No Content if nothing has changed (htmx
// will skip swapping).
func (s *Server) handleConsoleEvents(w http.ResponseWriter, r *http.Request) {
	currentSeq := s.activity.Seq()
	if r.URL.Query().Get("seq") == strconv.FormatInt(currentSeq, 10) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.render.renderBlock(w, "console.html", "event-rows", struct {
		Events []ActivityEvent
		Seq    int64
	}{
		Events: s.activity.Recent(100),
		Seq:    currentSeq,
	})
}

// handleConsoleStatuses returns just the tenant status cards as an HTML
// fragment for htmx polling.
func (s *Server) handleConsoleStatuses(w http.ResponseWriter, r *http.Request) {
	s.render.renderBlock(w, "console.html", "status-cards-inner", struct {
		Statuses map[string]*TenantStatus
	}{
		Statuses: s.snapshots.Statuses(),
	})
}
