package dashboard

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/dan/depara/internal/progress"
)

// ErrContainerNotFound is returned by Fill when the target element is missing.
var ErrContainerNotFound = errors.New("dashboard: container not found")

// Columns is the number of cells in every status row.
const Columns = 5

// EmptyText is shown when a table has no entities.
const EmptyText = "Nenhum dado disponível"

var placeholderRow = fmt.Sprintf(
	`<tr class="empty-row"><td colspan="%d" style="text-align: center; color: #6b7280;">%s</td></tr>`,
	Columns, EmptyText,
)

var rowTmpl = template.Must(template.New("row").Parse(`<tr data-status="{{.Label}}">` +
	`<td style="font-weight: 500; padding: 12px 8px;">{{.Name}}</td>` +
	`<td class="{{.Class}}" style="padding: 12px 8px; font-weight: 600;">{{.Status}}</td>` +
	`<td style="text-align: center; padding: 12px 8px;">{{.Total}}</td>` +
	`<td style="text-align: center; padding: 12px 8px;">{{.Pending}}</td>` +
	`<td style="padding: 12px 8px;">{{.Bar}}</td>` +
	`</tr>`))

type row struct {
	Label   string
	Name    string
	Class   string
	Status  string
	Total   int
	Pending int
	Bar     template.HTML
}

func newRow(s progress.EntityStat) row {
	c := s.Classification()
	name := s.Name
	if name == "" {
		name = "N/A"
	}
	return row{
		Label:   c.Label.String(),
		Name:    name,
		Class:   c.Label.Class(),
		Status:  c.Label.Text(),
		Total:   s.Total,
		Pending: s.Pending,
		Bar:     progress.Bar(s.Percent, s.Total),
	}
}

// Populator renders entity stats into table bodies.
type Populator struct {
	log *zap.Logger
}

// NewPopulator creates a Populator that logs through log.
func NewPopulator(log *zap.Logger) *Populator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Populator{log: log}
}

// Fill replaces every row of the container with one row per stat, or with a
// single placeholder row when stats is empty. A missing container is logged
// and reported as ErrContainerNotFound; the page is left untouched.
func (p *Populator) Fill(page *Page, containerID string, stats []progress.EntityStat) error {
	target := page.Container(containerID)
	if target.Length() == 0 {
		p.log.Warn("table container not found", zap.String("container", containerID))
		return fmt.Errorf("%w: #%s", ErrContainerNotFound, containerID)
	}

	var b strings.Builder
	if len(stats) == 0 {
		b.WriteString(placeholderRow)
	}
	for _, s := range stats {
		if err := rowTmpl.Execute(&b, newRow(s)); err != nil {
			return fmt.Errorf("render row %q: %w", s.Name, err)
		}
	}

	target.Empty()
	target.AppendHtml(b.String())
	p.log.Debug("table filled", zap.String("container", containerID), zap.Int("rows", len(stats)))
	return nil
}
