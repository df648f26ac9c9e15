package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ScopeTokens are the scope types a project can enable.
var ScopeTokens = []string{
	"PESSOA",
	"PRODUTOS",
	"VEICULOS",
	"FINANCEIRO",
	"CONTABILIDADE",
	"FISCAL",
	"GERAL",
}

// KnownScope reports whether token is one of ScopeTokens.
func KnownScope(token string) bool {
	return slices.Contains(ScopeTokens, token)
}

// Validate checks the catalog for completeness: every category entity is
// defined, every entity routes somewhere, and names, routes and containers do
// not collide. All problems are returned together.
func (c *Catalog) Validate() error {
	var errs []error
	if len(c.Entities) == 0 {
		errs = append(errs, errors.New("catalog: no entities"))
	}
	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("catalog: no categories"))
	}

	keys := make(map[string]bool)
	names := make(map[string]string)
	routes := make(map[string]string)
	for i, e := range c.Entities {
		where := fmt.Sprintf("catalog: entity #%d (%s)", i+1, e.Key)
		switch {
		case e.Key == "":
			errs = append(errs, fmt.Errorf("%s: missing key", where))
		case keys[e.Key]:
			errs = append(errs, fmt.Errorf("%s: duplicate key", where))
		}
		keys[e.Key] = true

		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("%s: missing name", where))
		} else if prev, dup := names[e.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: name %q already used by %s", where, e.Name, prev))
		} else {
			names[e.Name] = e.Key
		}

		if !strings.HasPrefix(e.Route, "/") || strings.ContainsAny(e.Route, "?# ") {
			errs = append(errs, fmt.Errorf("%s: route %q must be a plain absolute path", where, e.Route))
		} else if prev, dup := routes[e.Route]; dup {
			errs = append(errs, fmt.Errorf("%s: route %q already used by %s", where, e.Route, prev))
		} else {
			routes[e.Route] = e.Key
		}

		if !isIdentifier(e.Table) {
			errs = append(errs, fmt.Errorf("%s: table %q is not an identifier", where, e.Table))
		}
		if !isIdentifier(e.CodeColumn) {
			errs = append(errs, fmt.Errorf("%s: code column %q is not an identifier", where, e.CodeColumn))
		}
	}

	containers := make(map[string]bool)
	for i, cat := range c.Categories {
		where := fmt.Sprintf("catalog: category #%d (%s)", i+1, cat.Name)
		if cat.Name == "" {
			errs = append(errs, fmt.Errorf("%s: missing name", where))
		}
		switch {
		case cat.Container == "":
			errs = append(errs, fmt.Errorf("%s: missing container", where))
		case containers[cat.Container]:
			errs = append(errs, fmt.Errorf("%s: duplicate container %q", where, cat.Container))
		}
		containers[cat.Container] = true

		if !KnownScope(cat.Scope) {
			errs = append(errs, fmt.Errorf("%s: unknown scope %q", where, cat.Scope))
		}
		if len(cat.Entities) == 0 {
			errs = append(errs, fmt.Errorf("%s: no entities", where))
		}
		for _, key := range cat.Entities {
			if !keys[key] {
				errs = append(errs, fmt.Errorf("%s: undefined entity %q", where, key))
			}
		}
	}
	return errors.Join(errs...)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
