package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	c := Default()
	c.Addr = ""
	c.RefreshInterval = time.Millisecond
	c.ReadyAttempts = 0
	c.Concurrency = 100
	c.Timezone = "Nowhere/Land"

	err := c.Validate()
	require.Error(t, err)
	for _, want := range []string{"addr", "refresh interval", "ready attempts", "concurrency", "timezone"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLocation(t *testing.T) {
	c := Default()
	c.Timezone = "UTC"
	assert.Equal(t, time.UTC, c.Location())

	c.Timezone = "Nowhere/Land"
	assert.Equal(t, time.UTC, c.Location())
}

func TestRetryPolicy(t *testing.T) {
	p := Default().RetryPolicy()
	assert.Equal(t, 50, p.Attempts)
	assert.Equal(t, 100*time.Millisecond, p.Interval)
}

func TestLoadCatalog(t *testing.T) {
	c := Default()
	cat, err := c.LoadCatalog()
	require.NoError(t, err)
	assert.Len(t, cat.Categories, 7)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entities:
  - key: a
    name: A
    table: A_DePara
    code_column: A_Codigo
    route: /a
categories:
  - name: Geral
    container: tbody-geral
    scope: GERAL
    entities: [a]
`), 0o644))
	c.Catalog = path
	cat, err = c.LoadCatalog()
	require.NoError(t, err)
	assert.Len(t, cat.Entities, 1)
}
