// Package config holds the runtime settings of the dashboard server.
package config

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/dan/depara/internal/catalog"
	"github.com/dan/depara/internal/dashboard"
)

// Config is filled from flags and DEPARA_* environment variables.
type Config struct {
	Addr      string `help:"HTTP listen address." default:":8080" env:"DEPARA_ADDR"`
	DBPath    string `name:"db" help:"Path to the projects database." default:"data/depara.db" env:"DEPARA_DB" type:"path"`
	TenantDir string `help:"Directory holding tenant databases (<banco>.db)." default:"data/tenants" env:"DEPARA_TENANT_DIR" type:"path"`
	Catalog   string `help:"Entity catalog YAML; the embedded catalog when empty." env:"DEPARA_CATALOG" type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info" env:"DEPARA_LOG_LEVEL"`
	LogFormat string `help:"Log encoding (json, console)." default:"json" env:"DEPARA_LOG_FORMAT" enum:"json,console"`

	RefreshInterval time.Duration `help:"Interval between background snapshot refreshes." default:"5m" env:"DEPARA_REFRESH_INTERVAL"`
	Timezone        string        `help:"IANA zone for the sidebar timestamp." default:"America/Sao_Paulo" env:"DEPARA_TIMEZONE"`
	ReadyAttempts   int           `help:"Polls before a snapshot is reported not ready." default:"50" env:"DEPARA_READY_ATTEMPTS"`
	ReadyInterval   time.Duration `help:"Delay between readiness polls." default:"100ms" env:"DEPARA_READY_INTERVAL"`
	Concurrency     int           `help:"Concurrent stat queries per tenant." default:"4" env:"DEPARA_CONCURRENCY"`
	RowLimit        int           `help:"Maximum rows shown on an entity page (0 for all)." default:"1000" env:"DEPARA_ROW_LIMIT"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "data/depara.db",
		TenantDir:       "data/tenants",
		LogLevel:        "info",
		LogFormat:       "json",
		RefreshInterval: 5 * time.Minute,
		Timezone:        "America/Sao_Paulo",
		ReadyAttempts:   50,
		ReadyInterval:   100 * time.Millisecond,
		Concurrency:     4,
		RowLimit:        1000,
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db is required"))
	}
	if c.TenantDir == "" {
		errs = append(errs, errors.New("tenant dir is required"))
	}
	if c.RefreshInterval < time.Second {
		errs = append(errs, fmt.Errorf("refresh interval %s is below 1s", c.RefreshInterval))
	}
	if c.ReadyAttempts < 1 {
		errs = append(errs, fmt.Errorf("ready attempts %d must be at least 1", c.ReadyAttempts))
	}
	if c.ReadyInterval <= 0 {
		errs = append(errs, fmt.Errorf("ready interval %s must be positive", c.ReadyInterval))
	}
	if c.Concurrency < 1 || c.Concurrency > 64 {
		errs = append(errs, fmt.Errorf("concurrency %d out of range 1..64", c.Concurrency))
	}
	if c.RowLimit < 0 {
		errs = append(errs, fmt.Errorf("row limit %d is negative", c.RowLimit))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	return errors.Join(errs...)
}

// Location is the sidebar timestamp zone, UTC when it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RetryPolicy is the readiness policy for dashboard requests.
func (c Config) RetryPolicy() dashboard.RetryPolicy {
	return dashboard.RetryPolicy{Attempts: c.ReadyAttempts, Interval: c.ReadyInterval}
}

// LoadCatalog returns the configured catalog, or the embedded one.
func (c Config) LoadCatalog() (*catalog.Catalog, error) {
	if c.Catalog == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(c.Catalog)
}
