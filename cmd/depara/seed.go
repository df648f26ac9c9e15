package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/db"
	"github.com/dan/depara/internal/depara"
	"github.com/dan/depara/internal/logging"
	"github.com/dan/depara/internal/models"
	"github.com/dan/depara/internal/store"
)

type seedCmd struct {
	DB        string   `name:"db" default:"data/depara.db" type:"path" env:"DEPARA_DB" help:"Path to the projects database."`
	TenantDir string   `default:"data/tenants" type:"path" env:"DEPARA_TENANT_DIR" help:"Directory holding tenant databases."`
	Catalog   string   `type:"existingfile" help:"Entity catalog YAML; the embedded catalog when empty."`
	Tenant    []string `default:"DB_PADRAO,DB_LOJA" help:"Tenant databases to create, one project each."`
	Scopes    string   `default:"PESSOA,PRODUTOS,VEICULOS,FINANCEIRO,CONTABILIDADE,FISCAL,GERAL" help:"Scope tokens enabled on the seeded projects."`
	MaxRows   int      `default:"40" help:"Upper bound of records per entity table."`
	Seed      uint64   `default:"1" help:"Random seed for the record counts."`
}

func (cmd *seedCmd) Run(ctx context.Context) error {
	log, err := logging.New("info", "console")
	if err != nil {
		return err
	}
	defer log.Sync() //nolint: errcheck

	cat, err := loadCatalog(cmd.Catalog)
	if err != nil {
		return err
	}

	database, err := db.New(cmd.DB, log.Named("db"))
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	projects := store.NewProjectStore(database.Conn)
	scopes := store.NewScopeStore(database.Conn)
	existing, err := projects.ListAll()
	if err != nil {
		return err
	}
	byDatabase := make(map[string]bool, len(existing))
	for _, p := range existing {
		byDatabase[p.Database] = true
	}

	tenants := depara.NewTenants(cmd.TenantDir, 1, log.Named("depara"))
	rng := rand.New(rand.NewPCG(cmd.Seed, cmd.Seed^0x9e3779b97f4a7c15))

	for _, banco := range cmd.Tenant {
		if err := seedTenant(ctx, tenants, cat, banco, cmd.MaxRows, rng, log); err != nil {
			return err
		}
		if byDatabase[banco] {
			log.Info("project exists", zap.String("banco", banco))
			continue
		}
		p := &models.Project{Name: "Projeto " + banco, Database: banco}
		if err := projects.Create(p); err != nil {
			return err
		}
		sc := &models.Scope{
			ProjectID:  p.ID,
			Name:       "Padrão",
			ScopeTypes: store.FormatTokens(strings.Split(cmd.Scopes, ",")),
		}
		if err := scopes.Create(sc); err != nil {
			return err
		}
		log.Info("project created", zap.String("id", p.ID), zap.String("banco", banco), zap.String("scopes", sc.ScopeTypes))
	}
	return nil
}

// seedTenant fills every empty entity table of a tenant with demo records.
// Tables that already hold rows are left alone.
func seedTenant(ctx context.Context, tenants *depara.Tenants, cat *catalog.Catalog, banco string, maxRows int, rng *rand.Rand, log *zap.Logger) error {
	d, err := tenants.Create(banco)
	if err != nil {
		return fmt.Errorf("tenant %s: %w", banco, err)
	}
	defer d.Close()

	seeded := 0
	for _, e := range cat.Entities {
		if n, err := d.RowCount(ctx, e.Table); err == nil && n > 0 {
			continue
		}
		total := 0
		if maxRows > 0 {
			total = rng.IntN(maxRows + 1)
		}
		pending := 0
		if total > 0 {
			pending = rng.IntN(total + 1)
		}
		if err := depara.Seed(ctx, d.Conn, e, total, pending); err != nil {
			return fmt.Errorf("tenant %s: %w", banco, err)
		}
		seeded++
	}
	log.Info("tenant seeded", zap.String("banco", banco), zap.Int("tables", seeded))
	return nil
}
