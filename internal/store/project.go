package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dan/depara/internal/models"
)

// ErrProjectNotFound is returned when no project matches.
var ErrProjectNotFound = errors.New("project not found")

// ProjectStore handles persistence for Project records.
type ProjectStore struct {
	db *sql.DB
}

// NewProjectStore creates a ProjectStore backed by the given database connection.
func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectColumns = `id, name, database, created_at, updated_at`

// Create inserts a new project, assigning an ID when none is set.
func (s *ProjectStore) Create(p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Database, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetByID returns a single project.
func (s *ProjectStore) GetByID(id string) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRow(
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// First returns the oldest project, the dashboard's default selection.
func (s *ProjectStore) First() (*models.Project, error) {
	p, err := scanProject(s.db.QueryRow(
		`SELECT ` + projectColumns + ` FROM projects ORDER BY created_at, rowid LIMIT 1`,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("first project: %w", err)
	}
	return p, nil
}

// ListAll returns every project ordered by name.
func (s *ProjectStore) ListAll() ([]models.Project, error) {
	return s.list(`SELECT ` + projectColumns + ` FROM projects ORDER BY name`)
}

// ListWithDatabase returns the projects that have a tenant database assigned.
func (s *ProjectStore) ListWithDatabase() ([]models.Project, error) {
	return s.list(`SELECT ` + projectColumns + ` FROM projects WHERE database != '' ORDER BY name`)
}

// Count returns the total number of projects.
func (s *ProjectStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func (s *ProjectStore) list(query string, args ...any) ([]models.Project, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (*models.Project, error) {
	p := &models.Project{}
	if err := sc.Scan(&p.ID, &p.Name, &p.Database, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}
