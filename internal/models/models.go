package models

import (
	"strings"
	"time"
)

// Project is a migration project. Database names the tenant database whose
// DePara tables the dashboard reports on.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Database  string    `json:"database"` // e.g. "DB_LOJA01"; empty when not yet assigned
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Scope records which areas of the system a project migrates.
type Scope struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ScopeTypes  string    `json:"scope_types"` // comma-separated tokens: "PESSOA,GERAL"
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tokens splits ScopeTypes on commas, trimming spaces and skipping blanks.
// Tokens are compared verbatim against category scopes, so "pessoa" does
// not enable PESSOA.
func (s Scope) Tokens() []string {
	var out []string
	for _, t := range strings.Split(s.ScopeTypes, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
