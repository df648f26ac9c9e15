package dashboard

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/progress"
)

// Source supplies entity statistics keyed by entity key.
type Source interface {
	Stat(key string) (progress.EntityStat, bool)
}

// DatabaseSource is implemented by sources that know which tenant database
// their statistics came from.
type DatabaseSource interface {
	Database() string
}

// StatMap is a Source backed by a plain map.
type StatMap map[string]progress.EntityStat

func (m StatMap) Stat(key string) (progress.EntityStat, bool) {
	s, ok := m[key]
	return s, ok
}

// CategoryGroup is a category with its members' stats in declared order.
type CategoryGroup struct {
	Category string
	Members  []progress.EntityStat
}

// Section is one category of the dashboard as it will be rendered.
type Section struct {
	Category catalog.Category
	Visible  bool
	Group    CategoryGroup
	Totals   progress.Totals
}

// Plan is the result of category dispatch before anything is rendered.
type Plan struct {
	Sections []Section
	Totals   progress.Totals // over visible sections only
	Database string          // database reported by the source, if any
}

// Visible returns the visible sections in declared order.
func (p Plan) Visible() []Section {
	var out []Section
	for _, s := range p.Sections {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}

// Visible reports whether a category is shown for the enabled scopes. An
// empty scope list shows everything; a category without a scope token is
// never shown when scopes are restricted.
func Visible(cat catalog.Category, scopes []string) bool {
	if len(scopes) == 0 {
		return true
	}
	if cat.Scope == "" {
		return false
	}
	return slices.Contains(scopes, cat.Scope)
}

// RenderRequest carries the per-request inputs of the render pass.
type RenderRequest struct {
	Tenant string    // database of the selected project; may be empty
	Scopes []string  // enabled scope tokens; empty shows every category
	Now    time.Time // sidebar timestamp
}

// Result describes what a render pass did.
type Result struct {
	Filled  []string // containers that were populated
	Missing []string // containers absent from the page
	Links   int
	Tenant  string
	Totals  progress.Totals
}

// Dispatcher groups stats into categories and drives the render pass.
type Dispatcher struct {
	catalog   *catalog.Catalog
	populator *Populator
	links     *LinkInjector
	log       *zap.Logger
}

// NewDispatcher wires a dispatcher for the given catalog.
func NewDispatcher(c *catalog.Catalog, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		catalog:   c,
		populator: NewPopulator(log),
		links:     NewLinkInjector(c.RouteMap(), log),
		log:       log,
	}
}

// Group builds the category group for cat. Entities missing from the source
// appear with zero counts. The catalog name is used unless the source
// supplies its own.
func (d *Dispatcher) Group(cat catalog.Category, src Source) CategoryGroup {
	g := CategoryGroup{Category: cat.Name}
	for _, e := range d.catalog.CategoryEntities(cat) {
		var s progress.EntityStat
		if src != nil {
			s, _ = src.Stat(e.Key)
		}
		if s.Name == "" {
			s.Name = e.Name
		}
		g.Members = append(g.Members, s)
	}
	return g
}

// Plan decides visibility of every category and gathers its stats.
func (d *Dispatcher) Plan(src Source, scopes []string) Plan {
	var (
		plan    Plan
		visible []progress.EntityStat
	)
	if ds, ok := src.(DatabaseSource); ok {
		plan.Database = ds.Database()
	}
	for _, cat := range d.catalog.Categories {
		sec := Section{Category: cat, Visible: Visible(cat, scopes)}
		if sec.Visible {
			sec.Group = d.Group(cat, src)
			sec.Totals = progress.Summarize(sec.Group.Members)
			visible = append(visible, sec.Group.Members...)
		}
		plan.Sections = append(plan.Sections, sec)
	}
	plan.Totals = progress.Summarize(visible)
	return plan
}

// Render fills the table of every visible section, then injects entity
// links, then stamps the sidebar timestamp. Hidden sections are never
// touched. Missing containers are logged and skipped; only cancellation of
// ctx stops the pass early.
func (d *Dispatcher) Render(ctx context.Context, page *Page, plan Plan, req RenderRequest) (Result, error) {
	res := Result{Tenant: ResolveTenant(req.Tenant, plan.Database), Totals: plan.Totals}

	for _, sec := range plan.Sections {
		if !sec.Visible {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := d.populator.Fill(page, sec.Category.Container, sec.Group.Members)
		switch {
		case err == nil:
			res.Filled = append(res.Filled, sec.Category.Container)
		case errors.Is(err, ErrContainerNotFound):
			res.Missing = append(res.Missing, sec.Category.Container)
		default:
			d.log.Error("fill table", zap.String("category", sec.Category.Name), zap.Error(err))
		}
	}

	res.Links = d.links.Inject(page, res.Tenant)

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	StampTimestamp(page, now)

	d.log.Debug("dashboard rendered",
		zap.Strings("filled", res.Filled),
		zap.Strings("missing", res.Missing),
		zap.Int("links", res.Links),
		zap.String("tenant", res.Tenant),
	)
	return res, nil
}

// Dispatch plans the categories for req.Scopes and renders them into page.
func (d *Dispatcher) Dispatch(ctx context.Context, page *Page, src Source, req RenderRequest) (Result, error) {
	return d.Render(ctx, page, d.Plan(src, req.Scopes), req)
}
