package depara

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/db"
)

// DescriptionColumn derives the description column of an entity table from
// its code column: Estado_Codigo → Estado_Descricao.
func DescriptionColumn(e catalog.Entity) string {
	base, _ := strings.CutSuffix(e.CodeColumn, "_Codigo")
	return base + "_Descricao"
}

// CreateTable creates an entity's DePara table with an id, the legacy code
// and description, and the mapped code column.
func CreateTable(ctx context.Context, conn *sql.DB, e catalog.Entity) error {
	_, err := conn.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			Id            INTEGER PRIMARY KEY AUTOINCREMENT,
			CodigoOrigem  TEXT NOT NULL,
			%s TEXT NOT NULL DEFAULT '',
			%s TEXT
		)`,
		db.QuoteIdent(e.Table), db.QuoteIdent(DescriptionColumn(e)), db.QuoteIdent(e.CodeColumn),
	))
	if err != nil {
		return fmt.Errorf("create %s: %w", e.Table, err)
	}
	return nil
}

// Seed inserts total demo records into an entity's table, the last pending
// of them unmapped. The table is created when missing.
func Seed(ctx context.Context, conn *sql.DB, e catalog.Entity, total, pending int) error {
	if pending > total {
		pending = total
	}
	if err := CreateTable(ctx, conn, e); err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed %s: %w", e.Table, err)
	}
	defer tx.Rollback() //nolint: errcheck

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (CodigoOrigem, %s, %s) VALUES (?, ?, ?)",
		db.QuoteIdent(e.Table), db.QuoteIdent(DescriptionColumn(e)), db.QuoteIdent(e.CodeColumn),
	))
	if err != nil {
		return fmt.Errorf("prepare seed %s: %w", e.Table, err)
	}
	defer stmt.Close()

	for i := range total {
		code := any(fmt.Sprintf("%03d", i+1))
		if i >= total-pending {
			code = Unmapped
		}
		if _, err := stmt.ExecContext(ctx, fmt.Sprintf("L%03d", i+1), fmt.Sprintf("%s %d", e.Name, i+1), code); err != nil {
			return fmt.Errorf("seed %s: %w", e.Table, err)
		}
	}
	return tx.Commit()
}
