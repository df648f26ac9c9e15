package dashboard

import (
	"fmt"
	"html"
	"maps"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// DefaultTenant is used when neither the selected project nor the aggregate
// progress names a database.
const DefaultTenant = "DB_PADRAO"

// ResolveTenant picks the database links point at: the selected project's
// database, else the aggregate progress database, else DefaultTenant.
func ResolveTenant(primary, secondary string) string {
	switch {
	case primary != "":
		return primary
	case secondary != "":
		return secondary
	default:
		return DefaultTenant
	}
}

// LinkFor builds the management URL of an entity for a tenant.
func LinkFor(route, tenant string) string {
	return route + "?banco=" + encodeURIComponent(tenant)
}

// componentSafe are the bytes the browser's encodeURIComponent leaves as is.
const componentSafe = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.!~*'()"

// encodeURIComponent escapes like the browser function of the same name:
// every UTF-8 byte outside componentSafe becomes %XX.
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(componentSafe, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

// LinkInjector turns the label cell of each status row into a link to the
// entity's management page.
type LinkInjector struct {
	routes map[string]string
	log    *zap.Logger
}

// NewLinkInjector copies routes (display name → path).
func NewLinkInjector(routes map[string]string, log *zap.Logger) *LinkInjector {
	if log == nil {
		log = zap.NewNop()
	}
	return &LinkInjector{routes: maps.Clone(routes), log: log}
}

// Inject wraps the first cell of every status row that has no link yet and
// whose trimmed text is in the route map. Unmatched rows stay plain text.
// It returns the number of links added.
func (li *LinkInjector) Inject(page *Page, tenant string) int {
	added := 0
	page.Find(".status-table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cell := tr.ChildrenFiltered("td").First()
		if cell.Length() == 0 || cell.Find("a").Length() > 0 {
			return
		}
		name := strings.TrimSpace(cell.Text())
		route, ok := li.routes[name]
		if !ok {
			return
		}
		href := LinkFor(route, tenant)
		cell.SetHtml(fmt.Sprintf(`<a href="%s" class="table-link">%s</a>`, html.EscapeString(href), html.EscapeString(name)))
		added++
	})
	li.log.Debug("table links injected", zap.String("tenant", tenant), zap.Int("links", added))
	return added
}
