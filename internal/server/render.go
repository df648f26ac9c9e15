package server

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/dan/depara/internal/progress"
	"github.com/dan/depara/web"
)

// renderer holds pre-compiled page templates. Each page template is the layout
// combined with that page's specific template, so "title" and "content" blocks
// are resolved per-page without collision.
type renderer struct {
	pages map[string]*template.Template
}

// newRenderer parses the layout template once, then clones it for each page
// template, producing a separate compiled template per page.
func newRenderer() (*renderer, error) {
	funcMap := template.FuncMap{
		"percent": progress.FormatPercent,
		"bar":     progress.Bar,
		"statusText": func(t progress.Totals) string {
			return t.Classification().Label.Text()
		},
		"statusClass": func(t progress.Totals) string {
			return t.Classification().Label.Class()
		},
		"timeAgo": func(v any) string {
			t, ok := v.(time.Time)
			if !ok {
				return "nunca"
			}
			return timeAgoString(t)
		},
		"clock": func(t time.Time) string {
			if t.IsZero() {
				return "--"
			}
			return t.Format("02/01/2006 15:04:05")
		},
	}

	layout, err := template.New("layout.html").Funcs(funcMap).ParseFS(web.TemplateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	// Discover page templates (everything except layout.html).
	entries, err := fs.ReadDir(web.TemplateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "layout.html" {
			continue
		}

		clone, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(web.TemplateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = clone
	}

	return &renderer{pages: pages}, nil
}

// execute runs a block of a page template into w.
func (rn *renderer) execute(w io.Writer, page, block string, data any) error {
	tmpl, ok := rn.pages[page]
	if !ok {
		return fmt.Errorf("template not found: %s", page)
	}
	return tmpl.ExecuteTemplate(w, block, data)
}

// render executes the named page template with the given data. The page
// parameter is the template filename (e.g. "dashboard.html"). Output is
// buffered so a failing template never sends a partial page.
func (rn *renderer) render(w http.ResponseWriter, page string, data any) {
	rn.write(w, http.StatusOK, page, "base", data)
}

// renderBlock executes a specific named block from a page template, without
// the surrounding layout. Used for htmx partial/fragment responses.
func (rn *renderer) renderBlock(w http.ResponseWriter, page, block string, data any) {
	rn.write(w, http.StatusOK, page, block, data)
}

func (rn *renderer) write(w http.ResponseWriter, status int, page, block string, data any) {
	var buf bytes.Buffer
	if err := rn.execute(&buf, page, block, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// timeAgoString formats a time as "há X" in Portuguese.
func timeAgoString(t time.Time) string {
	if t.IsZero() {
		return "nunca"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "agora"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "há 1 minuto"
		}
		return fmt.Sprintf("há %d minutos", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "há 1 hora"
		}
		return fmt.Sprintf("há %d horas", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "há 1 dia"
		}
		return fmt.Sprintf("há %d dias", days)
	}
}
