package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"certdesign/internal/document"
	"certdesign/internal/storage"
)

const templateColumns = `id, organization_id, name, title, description, type, design_config, governance, created_at, updated_at`

// Create stores a new template
func (s *Storage) Create(ctx context.Context, t *storage.Template) error {
	design, governance, err := storage.EncodeTemplate(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO certificate_templates (` + templateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		t.ID,
		t.OrganizationID,
		t.Name,
		t.Title,
		t.Description,
		string(t.Type),
		string(design),
		string(governance),
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*storage.Template, error) {
	t := &storage.Template{}
	var kind, design, governance string
	err := row.Scan(
		&t.ID,
		&t.OrganizationID,
		&t.Name,
		&t.Title,
		&t.Description,
		&kind,
		&design,
		&governance,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Type = document.DesignType(kind)
	if err := storage.DecodeTemplate(t, []byte(design), []byte(governance)); err != nil {
		return nil, err
	}
	return t, nil
}

// Get retrieves a template by id
func (s *Storage) Get(ctx context.Context, id string) (*storage.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM certificate_templates WHERE id = ?`

	t, err := scanTemplate(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

// Update replaces the mutable columns of a template
func (s *Storage) Update(ctx context.Context, t *storage.Template) error {
	design, governance, err := storage.EncodeTemplate(t)
	if err != nil {
		return err
	}

	query := `
		UPDATE certificate_templates
		SET name = ?, title = ?, description = ?, type = ?, design_config = ?, governance = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		t.Name,
		t.Title,
		t.Description,
		string(t.Type),
		string(design),
		string(governance),
		t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return expectOne(result, storage.ErrTemplateNotFound)
}

// Delete removes a template by id
func (s *Storage) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM certificate_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return expectOne(result, storage.ErrTemplateNotFound)
}

// ListByOrganization returns an organization's templates, newest first
func (s *Storage) ListByOrganization(ctx context.Context, organizationID string) ([]*storage.Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM certificate_templates
		WHERE organization_id = ?
		ORDER BY updated_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*storage.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return templates, nil
}

func expectOne(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
