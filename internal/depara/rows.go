package depara

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/db"
)

// Table is the content of an entity's DePara table as strings.
type Table struct {
	Entity  catalog.Entity
	Columns []string
	Rows    [][]string
	// Pending marks the rows whose code column is unmapped.
	Pending []bool
	// Truncated reports that more rows exist than were read.
	Truncated bool
}

// PendingCount is the number of pending rows read.
func (t *Table) PendingCount() int {
	n := 0
	for _, p := range t.Pending {
		if p {
			n++
		}
	}
	return n
}

// Rows reads up to limit rows (all when limit <= 0) of an entity's table from
// a tenant database.
func (t *Tenants) Rows(ctx context.Context, banco string, e catalog.Entity, limit int) (*Table, error) {
	d, err := t.Open(banco)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return ReadTable(ctx, d.Conn, e, limit)
}

// ReadTable reads up to limit rows of an entity's table.
func ReadTable(ctx context.Context, conn *sql.DB, e catalog.Entity, limit int) (*Table, error) {
	query := "SELECT * FROM " + db.QuoteIdent(e.Table) + " ORDER BY rowid"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit+1)
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		if db.IsNoSuchTable(err) {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, e.Table)
		}
		return nil, fmt.Errorf("query %s: %w", e.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", e.Table, err)
	}
	codeIdx := -1
	for i, c := range cols {
		if strings.EqualFold(c, e.CodeColumn) {
			codeIdx = i
		}
	}

	tbl := &Table{Entity: e, Columns: cols}
	for rows.Next() {
		if limit > 0 && len(tbl.Rows) == limit {
			tbl.Truncated = true
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", e.Table, err)
		}

		row := make([]string, len(cols))
		pending := false
		for i, v := range vals {
			row[i] = formatValue(v)
			if i == codeIdx {
				pending = v == nil || row[i] == "" || row[i] == Unmapped
			}
		}
		tbl.Rows = append(tbl.Rows, row)
		tbl.Pending = append(tbl.Pending, pending)
	}
	return tbl, rows.Err()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.DateTime)
	default:
		return fmt.Sprint(x)
	}
}
