package depara

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/db"
	"github.com/dan/depara/internal/progress"
)

// Unmapped is the placeholder code of a record that has no mapping yet.
const Unmapped = "S/DePara"

// ErrTableNotFound is returned by Stat when the entity's table is missing.
var ErrTableNotFound = errors.New("depara table not found")

// Stat counts an entity's records and the ones still pending, i.e. whose code
// is Unmapped, NULL or empty. Any failure returns a zero stat alongside the
// error; a failing pending count keeps the total and reports zero pending.
func Stat(ctx context.Context, conn *sql.DB, e catalog.Entity) (progress.EntityStat, error) {
	table, col := db.QuoteIdent(e.Table), db.QuoteIdent(e.CodeColumn)

	var total int
	if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&total); err != nil {
		if db.IsNoSuchTable(err) {
			return progress.EntityStat{}, fmt.Errorf("%w: %s", ErrTableNotFound, e.Table)
		}
		return progress.EntityStat{}, fmt.Errorf("count %s: %w", e.Table, err)
	}

	var pending int
	err := conn.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ? OR %s IS NULL OR %s = ''", table, col, col, col),
		Unmapped,
	).Scan(&pending)
	if err != nil {
		return progress.EntityStat{Total: total, Percent: Percent(total, 0)}, fmt.Errorf("count pending %s.%s: %w", e.Table, e.CodeColumn, err)
	}

	return progress.EntityStat{Total: total, Pending: pending, Percent: Percent(total, pending)}, nil
}

// Percent is the share of mapped records, rounded to one decimal; 0 when
// there are no records.
func Percent(total, pending int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(total-pending)/float64(total)*1000) / 10
}

// Snapshot is the set of entity stats collected from one tenant.
type Snapshot struct {
	Tenant      string                          `json:"banco"`
	Stats       map[string]progress.EntityStat `json:"stats"`
	CollectedAt time.Time                       `json:"collected_at"`
	Duration    time.Duration                   `json:"-"`
}

// Stat returns the stat of an entity key.
func (s *Snapshot) Stat(key string) (progress.EntityStat, bool) {
	st, ok := s.Stats[key]
	return st, ok
}

// Database names the tenant the stats came from.
func (s *Snapshot) Database() string {
	return s.Tenant
}

// Ordered returns the stats of entities in the given order.
func (s *Snapshot) Ordered(entities []catalog.Entity) []progress.EntityStat {
	out := make([]progress.EntityStat, 0, len(entities))
	for _, e := range entities {
		st := s.Stats[e.Key]
		if st.Name == "" {
			st.Name = e.Name
		}
		out = append(out, st)
	}
	return out
}
