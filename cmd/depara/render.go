package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/dashboard"
	"github.com/dan/depara/internal/logging"
	"github.com/dan/depara/internal/models"
)

type renderCmd struct {
	Stats    string   `arg:"" help:"Statistics JSON file (entity key to stat), - for stdin."`
	Skeleton string   `type:"existingfile" help:"HTML page to render into; a page built from the catalog when empty."`
	Catalog  string   `type:"existingfile" help:"Entity catalog YAML; the embedded catalog when empty."`
	Banco    string   `help:"Tenant appended to entity links."`
	Scope    []string `help:"Enabled scope tokens; every section when none are given."`
	Output   string   `short:"o" default:"-" help:"Output file, - for stdout."`
	Timezone string   `default:"America/Sao_Paulo" help:"IANA zone for the sidebar timestamp."`
	LogLevel string   `default:"warn" help:"Log level."`
}

func (cmd *renderCmd) Run(ctx context.Context) error {
	log, err := logging.New(cmd.LogLevel, "console")
	if err != nil {
		return err
	}
	defer log.Sync() //nolint: errcheck

	cat, err := loadCatalog(cmd.Catalog)
	if err != nil {
		return err
	}
	stats, err := readStats(cmd.Stats)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cmd.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	var page *dashboard.Page
	if cmd.Skeleton != "" {
		f, err := os.Open(cmd.Skeleton)
		if err != nil {
			return err
		}
		page, err = dashboard.ParsePage(f)
		f.Close()
		if err != nil {
			return err
		}
	} else {
		page, err = catalogSkeleton(cat)
		if err != nil {
			return err
		}
	}

	scopes := models.Scope{ScopeTypes: strings.Join(cmd.Scope, ",")}.Tokens()
	res, err := dashboard.NewDispatcher(cat, log).Dispatch(ctx, page, stats, dashboard.RenderRequest{
		Tenant: cmd.Banco,
		Scopes: scopes,
		Now:    time.Now().In(loc),
	})
	if err != nil {
		return err
	}
	log.Info("rendered",
		zap.Strings("filled", res.Filled),
		zap.Strings("missing", res.Missing),
		zap.Int("links", res.Links),
	)

	var out io.Writer = os.Stdout
	if cmd.Output != "-" {
		f, err := os.Create(cmd.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	_, err = page.WriteTo(out)
	return err
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

func readStats(path string) (dashboard.StatMap, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var stats dashboard.StatMap
	if err := json.NewDecoder(r).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

var skeletonTmpl = template.Must(template.New("skeleton").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>DePara</title></head>
<body>
<aside id="sidebar">Atualizado em <span id="sidebar-update-date">--</span></aside>
<main>
{{range .}}<section>
<h2>{{.Name}}</h2>
<table class="status-table">
<thead><tr><th>Tabela</th><th>Status</th><th>Total</th><th>Pendentes</th><th>Conclusão</th></tr></thead>
<tbody id="{{.Container}}"></tbody>
</table>
</section>
{{end}}</main>
</body>
</html>
`))

// catalogSkeleton builds a bare page with one status table per category.
func catalogSkeleton(cat *catalog.Catalog) (*dashboard.Page, error) {
	var buf bytes.Buffer
	if err := skeletonTmpl.Execute(&buf, cat.Categories); err != nil {
		return nil, err
	}
	return dashboard.ParsePage(&buf)
}
