package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dan/depara/internal/models"
)

// ScopeStore handles persistence for Scope records.
type ScopeStore struct {
	db *sql.DB
}

// NewScopeStore creates a ScopeStore backed by the given database connection.
func NewScopeStore(db *sql.DB) *ScopeStore {
	return &ScopeStore{db: db}
}

// Create inserts a new scope, assigning an ID when none is set.
func (s *ScopeStore) Create(sc *models.Scope) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sc.CreatedAt = now
	sc.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO scopes (id, project_id, name, description, scope_types, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.ProjectID, sc.Name, sc.Description, sc.ScopeTypes, sc.CreatedAt, sc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scope: %w", err)
	}
	return nil
}

// ListByProject returns a project's scopes, oldest first.
func (s *ScopeStore) ListByProject(projectID string) ([]models.Scope, error) {
	rows, err := s.db.Query(`
		SELECT id, project_id, name, description, scope_types, created_at, updated_at
		FROM scopes WHERE project_id = ?
		ORDER BY created_at, rowid`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	defer rows.Close()

	var out []models.Scope
	for rows.Next() {
		var sc models.Scope
		if err := rows.Scan(
			&sc.ID, &sc.ProjectID, &sc.Name, &sc.Description, &sc.ScopeTypes,
			&sc.CreatedAt, &sc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan scope: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// EnabledScopes returns the tokens of the project's first scope record as
// stored, unknown ones included: a list that names no category hides them
// all. A project without scopes, or whose scope lists no tokens, yields nil,
// which the dashboard reads as "show everything".
func (s *ScopeStore) EnabledScopes(projectID string) ([]string, error) {
	var types string
	err := s.db.QueryRow(`
		SELECT scope_types FROM scopes WHERE project_id = ?
		ORDER BY created_at, rowid LIMIT 1`, projectID,
	).Scan(&types)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("enabled scopes: %w", err)
	}

	return (models.Scope{ScopeTypes: types}).Tokens(), nil
}

// FormatTokens joins scope tokens the way they are stored.
func FormatTokens(tokens []string) string {
	return strings.Join(tokens, ",")
}
