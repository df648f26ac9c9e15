// Package depara reads completion statistics out of tenant databases. Each
// tenant is a SQLite file holding one *_DePara mapping table per entity.
package depara

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/db"
	"github.com/dan/depara/internal/progress"
)

// ErrTenantNotFound is returned when a tenant database does not exist or its
// name is not acceptable.
var ErrTenantNotFound = errors.New("tenant database not found")

var tenantName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// Tenants resolves tenant names to database files under a directory.
type Tenants struct {
	dir   string
	limit int
	log   *zap.Logger
}

// NewTenants serves tenant databases from dir. limit bounds the number of
// concurrent stat queries per tenant (minimum 1).
func NewTenants(dir string, limit int, log *zap.Logger) *Tenants {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tenants{dir: dir, limit: max(limit, 1), log: log}
}

// Dir is the directory tenant files live in.
func (t *Tenants) Dir() string {
	return t.dir
}

// Path returns the file of a tenant database.
func (t *Tenants) Path(banco string) (string, error) {
	if !tenantName.MatchString(banco) {
		return "", fmt.Errorf("%w: invalid name %q", ErrTenantNotFound, banco)
	}
	return filepath.Join(t.dir, banco+".db"), nil
}

// Open opens an existing tenant database.
func (t *Tenants) Open(banco string) (*db.DB, error) {
	path, err := t.Path(banco)
	if err != nil {
		return nil, err
	}
	d, err := db.OpenExisting(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, banco)
	}
	if err != nil {
		return nil, fmt.Errorf("open tenant %s: %w", banco, err)
	}
	return d, nil
}

// Create opens a tenant database, creating the file when missing.
func (t *Tenants) Create(banco string) (*db.DB, error) {
	path, err := t.Path(banco)
	if err != nil {
		return nil, err
	}
	return db.New(path, t.log)
}

// List returns the names of the tenant databases present in the directory.
func (t *Tenants) List() ([]string, error) {
	entries, err := os.ReadDir(t.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	var out []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".db")
		if e.IsDir() || !ok || !tenantName.MatchString(name) {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// Collect gathers the stat of every entity from a tenant database. Stat
// failures degrade to zero counts; only an unknown tenant or cancellation
// fails the whole snapshot.
func (t *Tenants) Collect(ctx context.Context, banco string, entities []catalog.Entity) (*Snapshot, error) {
	d, err := t.Open(banco)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	d.Conn.SetMaxOpenConns(t.limit)

	start := time.Now()
	stats := make([]progress.EntityStat, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.limit)
	for i, e := range entities {
		g.Go(func() error {
			s, err := Stat(gctx, d.Conn, e)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				t.log.Warn("entity stat",
					zap.String("tenant", banco),
					zap.String("table", e.Table),
					zap.Error(err),
				)
			}
			s.Name = e.Name
			stats[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect %s: %w", banco, err)
	}

	snap := &Snapshot{
		Tenant:      banco,
		Stats:       make(map[string]progress.EntityStat, len(entities)),
		CollectedAt: time.Now().UTC(),
		Duration:    time.Since(start),
	}
	for i, e := range entities {
		snap.Stats[e.Key] = stats[i]
	}
	t.log.Debug("snapshot collected",
		zap.String("tenant", banco),
		zap.Int("entities", len(entities)),
		zap.Duration("took", snap.Duration),
	)
	return snap, nil
}
