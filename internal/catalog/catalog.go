// Package catalog describes the entities the dashboard tracks, the categories
// that group them and the route each entity links to.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog string

// Entity is one mapping table tracked by the dashboard.
type Entity struct {
	Key        string `yaml:"key"`         // statistics payload key, e.g. "cond_pag"
	Name       string `yaml:"name"`        // row label, e.g. "Condição de Pagamento"
	Table      string `yaml:"table"`       // DePara table in the tenant database
	CodeColumn string `yaml:"code_column"` // column that holds the mapped code
	Route      string `yaml:"route"`       // management page path, e.g. "/estado"
}

// Category is a dashboard section rendered as one status table.
type Category struct {
	Name      string   `yaml:"name"`
	Container string   `yaml:"container"` // id of the tbody the rows go into
	Scope     string   `yaml:"scope"`     // scope token that enables the section
	Entities  []string `yaml:"entities"`  // entity keys in display order
}

// Catalog is the full set of entities and categories. It is built once at
// startup and treated as read-only afterwards.
type Catalog struct {
	Entities   []Entity   `yaml:"entities"`
	Categories []Category `yaml:"categories"`

	byKey   map[string]int
	byRoute map[string]int
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(strings.NewReader(defaultCatalog))
}

// MustDefault is Default for package init and tests.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFile decodes and validates a catalog YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a catalog from YAML and validates it.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.index()
	return &c, nil
}

func (c *Catalog) index() {
	c.byKey = make(map[string]int, len(c.Entities))
	c.byRoute = make(map[string]int, len(c.Entities))
	for i, e := range c.Entities {
		c.byKey[e.Key] = i
		c.byRoute[e.Route] = i
	}
}

// Entity returns the entity with the given key.
func (c *Catalog) Entity(key string) (Entity, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Entity{}, false
	}
	return c.Entities[i], true
}

// EntityByRoute returns the entity whose management page is route.
func (c *Catalog) EntityByRoute(route string) (Entity, bool) {
	i, ok := c.byRoute[route]
	if !ok {
		return Entity{}, false
	}
	return c.Entities[i], true
}

// RouteMap returns a fresh display name → route mapping.
func (c *Catalog) RouteMap() map[string]string {
	m := make(map[string]string, len(c.Entities))
	for _, e := range c.Entities {
		m[e.Name] = e.Route
	}
	return m
}

// CategoryEntities resolves a category's entity keys in declared order.
func (c *Catalog) CategoryEntities(cat Category) []Entity {
	out := make([]Entity, 0, len(cat.Entities))
	for _, key := range cat.Entities {
		if e, ok := c.Entity(key); ok {
			out = append(out, e)
		}
	}
	return out
}

// ScopeEntities returns every entity belonging to a category enabled by the
// given scope token, without duplicates.
func (c *Catalog) ScopeEntities(token string) []Entity {
	seen := make(map[string]bool)
	var out []Entity
	for _, cat := range c.Categories {
		if cat.Scope != token {
			continue
		}
		for _, e := range c.CategoryEntities(cat) {
			if !seen[e.Key] {
				seen[e.Key] = true
				out = append(out, e)
			}
		}
	}
	return out
}
