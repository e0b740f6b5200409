// Package postgres implements storage.Store on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"certdesign/internal/document"
	"certdesign/internal/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var _ storage.Store = (*Storage)(nil)

type Storage struct {
	pool *pgxpool.Pool
}

// New connects to dsn, checks the connection and applies pending
// migrations.
func New(ctx context.Context, dsn string) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Storage{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

func (s *Storage) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

const templateColumns = `id, organization_id, name, title, description, type, design_config, governance, created_at, updated_at`

func (s *Storage) Create(ctx context.Context, t *storage.Template) error {
	design, governance, err := storage.EncodeTemplate(t)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO certificate_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.OrganizationID, t.Name, t.Title, t.Description, string(t.Type),
		design, governance, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert template: %w", err)
	}
	return nil
}

func scanTemplate(row pgx.Row) (*storage.Template, error) {
	t := &storage.Template{}
	var kind string
	var design, governance []byte
	if err := row.Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.Title, &t.Description, &kind,
		&design, &governance, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Type = document.DesignType(kind)
	if err := storage.DecodeTemplate(t, design, governance); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Storage) Get(ctx context.Context, id string) (*storage.Template, error) {
	t, err := scanTemplate(s.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM certificate_templates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return t, nil
}

func (s *Storage) Update(ctx context.Context, t *storage.Template) error {
	design, governance, err := storage.EncodeTemplate(t)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE certificate_templates
		SET name = $1, title = $2, description = $3, type = $4, design_config = $5, governance = $6, updated_at = $7
		WHERE id = $8`,
		t.Name, t.Title, t.Description, string(t.Type), design, governance, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrTemplateNotFound
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM certificate_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrTemplateNotFound
	}
	return nil
}

func (s *Storage) ListByOrganization(ctx context.Context, organizationID string) ([]*storage.Template, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM certificate_templates
		WHERE organization_id = $1
		ORDER BY updated_at DESC, id`, organizationID)
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

func (s *Storage) CreateOrganization(ctx context.Context, o *storage.Organization) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO organizations (id, name, website, created_at) VALUES ($1, $2, $3, $4)`,
		o.ID, o.Name, o.Website, o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert organization: %w", err)
	}
	return nil
}

func (s *Storage) CreateCertificate(ctx context.Context, c *storage.Certificate) error {
	status := c.Status
	if status == "" {
		status = storage.StatusIssued
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO certificates (id, certificate_id, template_id, organization_id, recipient_name,
			recipient_email, issued_date, title, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.CertificateID, nullable(c.TemplateID), c.OrganizationID, c.RecipientName,
		c.RecipientEmail, c.IssuedDate, c.Title, c.Description, string(status), c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert certificate: %w", err)
	}
	return nil
}

func (s *Storage) GetCertificate(ctx context.Context, certificateID string) (*storage.Certificate, error) {
	c := &storage.Certificate{}
	var templateID, orgName, orgWebsite *string
	var status string

	err := s.pool.QueryRow(ctx, `
		SELECT c.id, c.certificate_id, c.template_id, c.organization_id, c.recipient_name,
			c.recipient_email, c.issued_date, c.title, c.description, c.status, c.created_at,
			o.name, o.website
		FROM certificates c
		LEFT JOIN organizations o ON o.id = c.organization_id
		WHERE c.certificate_id = $1`, certificateID).Scan(
		&c.ID, &c.CertificateID, &templateID, &c.OrganizationID, &c.RecipientName,
		&c.RecipientEmail, &c.IssuedDate, &c.Title, &c.Description, &status, &c.CreatedAt,
		&orgName, &orgWebsite,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}

	c.Status = storage.CertificateStatus(status)
	if templateID != nil {
		c.TemplateID = *templateID
	}
	if orgName != nil {
		c.OrganizationName = *orgName
	}
	if orgWebsite != nil {
		c.OrganizationWebsite = *orgWebsite
	}
	return c, nil
}
