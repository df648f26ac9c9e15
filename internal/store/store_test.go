package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/dashboard"
	"github.com/dan/depara/internal/db"
	"github.com/dan/depara/internal/models"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.New(filepath.Join(t.TempDir(), "depara.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	require.NoError(t, d.Migrate())
	return d.Conn
}

func TestProjectStore(t *testing.T) {
	conn := testDB(t)
	ps := NewProjectStore(conn)

	_, err := ps.First()
	require.ErrorIs(t, err, ErrProjectNotFound)

	a := &models.Project{Name: "Loja A", Database: "DB_A"}
	require.NoError(t, ps.Create(a))
	assert.NotEmpty(t, a.ID)
	b := &models.Project{Name: "Aguardando"}
	require.NoError(t, ps.Create(b))

	got, err := ps.GetByID(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "DB_A", got.Database)

	_, err = ps.GetByID("missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	first, err := ps.First()
	require.NoError(t, err)
	assert.Equal(t, a.ID, first.ID)

	all, err := ps.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Aguardando", all[0].Name)

	withDB, err := ps.ListWithDatabase()
	require.NoError(t, err)
	require.Len(t, withDB, 1)
	assert.Equal(t, "Loja A", withDB[0].Name)

	n, err := ps.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Error(t, ps.Create(&models.Project{Name: "Loja A"}), "names are unique")
}

func TestScopeStore(t *testing.T) {
	conn := testDB(t)
	p := &models.Project{Name: "P"}
	require.NoError(t, NewProjectStore(conn).Create(p))
	ss := NewScopeStore(conn)

	scopes, err := ss.EnabledScopes(p.ID)
	require.NoError(t, err)
	assert.Nil(t, scopes)

	require.NoError(t, ss.Create(&models.Scope{ProjectID: p.ID, Name: "Principal", ScopeTypes: " pessoa, GERAL ,BOGUS,,"}))
	require.NoError(t, ss.Create(&models.Scope{ProjectID: p.ID, Name: "Extra", ScopeTypes: "FISCAL"}))

	scopes, err = ss.EnabledScopes(p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"pessoa", "GERAL", "BOGUS"}, scopes)

	list, err := ss.ListByProject(p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Principal", list[0].Name)
}

func TestEnabledScopesRestrictWithUnknownTokens(t *testing.T) {
	conn := testDB(t)
	cat := catalog.MustDefault()
	ss := NewScopeStore(conn)

	visible := func(scopes []string) int {
		n := 0
		for _, c := range cat.Categories {
			if dashboard.Visible(c, scopes) {
				n++
			}
		}
		return n
	}

	for _, tc := range []struct {
		stored  string
		want    []string
		visible int
	}{
		{"BOGUS", []string{"BOGUS"}, 0},
		{"pessoa", []string{"pessoa"}, 0},
		{"PESSOA,BOGUS", []string{"PESSOA", "BOGUS"}, 1},
		{" , ", nil, len(cat.Categories)},
	} {
		p := &models.Project{Name: "P " + tc.stored}
		require.NoError(t, NewProjectStore(conn).Create(p))
		require.NoError(t, ss.Create(&models.Scope{ProjectID: p.ID, Name: "Principal", ScopeTypes: tc.stored}))

		scopes, err := ss.EnabledScopes(p.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, scopes, tc.stored)
		assert.Equal(t, tc.visible, visible(scopes), tc.stored)
	}
}

func TestFormatTokens(t *testing.T) {
	assert.Equal(t, "PESSOA,GERAL", FormatTokens([]string{"PESSOA", "GERAL"}))
}
