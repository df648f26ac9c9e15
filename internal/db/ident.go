package db

import (
	"context"
	"strings"
)

// QuoteIdent reduces s to ASCII letters, digits and underscores and wraps
// the result in double quotes. Table and column names from the catalog are
// passed through it before being spliced into SQL.
func QuoteIdent(s string) string {
	return `"` + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, s) + `"`
}

// RowCount counts the rows of a table. The seeder uses it to leave tables
// that already hold data alone.
func (d *DB) RowCount(ctx context.Context, table string) (int, error) {
	var n int
	err := d.Conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdent(table)).Scan(&n)
	return n, err
}
