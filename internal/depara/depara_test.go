package depara

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dan/depara/internal/catalog"
)

func entity(t *testing.T, key string) catalog.Entity {
	t.Helper()
	e, ok := catalog.MustDefault().Entity(key)
	require.True(t, ok, key)
	return e
}

func seededTenant(t *testing.T) *Tenants {
	t.Helper()
	ctx := context.Background()
	tn := NewTenants(t.TempDir(), 4, zap.NewNop())
	d, err := tn.Create("DB1")
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, Seed(ctx, d.Conn, entity(t, "marca"), 10, 2))
	require.NoError(t, Seed(ctx, d.Conn, entity(t, "estado"), 4, 0))
	require.NoError(t, CreateTable(ctx, d.Conn, entity(t, "tmo")))

	// One NULL and one empty code count as pending too.
	_, err = d.Conn.Exec(`INSERT INTO "Estado_DePara" (CodigoOrigem, "Estado_Codigo") VALUES ('X1', NULL), ('X2', '')`)
	require.NoError(t, err)
	return tn
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 80.0, Percent(10, 2))
	assert.Equal(t, 66.7, Percent(3, 1))
	assert.Equal(t, 100.0, Percent(5, 0))
}

func TestDescriptionColumn(t *testing.T) {
	assert.Equal(t, "Estado_Descricao", DescriptionColumn(entity(t, "estado")))
}

func TestStat(t *testing.T) {
	tn := seededTenant(t)
	d, err := tn.Open("DB1")
	require.NoError(t, err)
	defer d.Close()
	ctx := context.Background()

	s, err := Stat(ctx, d.Conn, entity(t, "marca"))
	require.NoError(t, err)
	assert.Equal(t, 10, s.Total)
	assert.Equal(t, 2, s.Pending)
	assert.Equal(t, 80.0, s.Percent)

	s, err = Stat(ctx, d.Conn, entity(t, "estado"))
	require.NoError(t, err)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 2, s.Pending)
	assert.Equal(t, 66.7, s.Percent)

	s, err = Stat(ctx, d.Conn, entity(t, "tmo"))
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Percent)

	s, err = Stat(ctx, d.Conn, entity(t, "banco"))
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.Zero(t, s)
}

func TestCollect(t *testing.T) {
	tn := seededTenant(t)
	all := catalog.MustDefault().Entities

	snap, err := tn.Collect(context.Background(), "DB1", all)
	require.NoError(t, err)

	assert.Equal(t, "DB1", snap.Database())
	assert.Len(t, snap.Stats, len(all))

	marca, ok := snap.Stat("marca")
	require.True(t, ok)
	assert.Equal(t, "Marca", marca.Name)
	assert.Equal(t, 80.0, marca.Percent)

	banco, ok := snap.Stat("banco")
	require.True(t, ok, "missing tables still yield a stat")
	assert.Zero(t, banco.Total)

	ordered := snap.Ordered(all[:3])
	require.Len(t, ordered, 3)
	assert.Equal(t, "Condição de Pagamento", ordered[0].Name)
}

func TestCollect_UnknownTenant(t *testing.T) {
	tn := NewTenants(t.TempDir(), 1, nil)

	_, err := tn.Collect(context.Background(), "NOPE", nil)
	assert.ErrorIs(t, err, ErrTenantNotFound)

	_, err = tn.Collect(context.Background(), "../etc/passwd", nil)
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestCollect_Cancelled(t *testing.T) {
	tn := seededTenant(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tn.Collect(ctx, "DB1", catalog.MustDefault().Entities)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRows(t *testing.T) {
	tn := seededTenant(t)

	tbl, err := tn.Rows(context.Background(), "DB1", entity(t, "marca"), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "CodigoOrigem", "Marca_Descricao", "Marca_Codigo"}, tbl.Columns)
	require.Len(t, tbl.Rows, 10)
	assert.Equal(t, []string{"1", "L001", "Marca 1", "001"}, tbl.Rows[0])
	assert.Equal(t, 2, tbl.PendingCount())
	assert.True(t, tbl.Pending[9])
	assert.False(t, tbl.Truncated)

	tbl, err = tn.Rows(context.Background(), "DB1", entity(t, "marca"), 3)
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 3)
	assert.True(t, tbl.Truncated)

	tbl, err = tn.Rows(context.Background(), "DB1", entity(t, "estado"), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.PendingCount(), "NULL and empty codes")

	_, err = tn.Rows(context.Background(), "DB1", entity(t, "banco"), 0)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestList(t *testing.T) {
	tn := seededTenant(t)
	names, err := tn.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"DB1"}, names)

	names, err = NewTenants("/nonexistent/dir", 1, nil).List()
	require.NoError(t, err)
	assert.Empty(t, names)
}
