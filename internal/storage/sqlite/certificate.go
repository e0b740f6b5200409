package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"certdesign/internal/storage"
)

// CreateOrganization stores an issuing organization
func (s *Storage) CreateOrganization(ctx context.Context, o *storage.Organization) error {
	query := `INSERT INTO organizations (id, name, website, created_at) VALUES (?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query, o.ID, o.Name, o.Website, o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert organization: %w", err)
	}
	return nil
}

// CreateCertificate stores an issued certificate
func (s *Storage) CreateCertificate(ctx context.Context, c *storage.Certificate) error {
	status := c.Status
	if status == "" {
		status = storage.StatusIssued
	}

	query := `
		INSERT INTO certificates (id, certificate_id, template_id, organization_id, recipient_name,
			recipient_email, issued_date, title, description, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		c.CertificateID,
		nullable(c.TemplateID),
		c.OrganizationID,
		c.RecipientName,
		c.RecipientEmail,
		c.IssuedDate,
		c.Title,
		c.Description,
		string(status),
		c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert certificate: %w", err)
	}
	return nil
}

// GetCertificate retrieves a certificate by its public id, together with
// its organization's name and website
func (s *Storage) GetCertificate(ctx context.Context, certificateID string) (*storage.Certificate, error) {
	query := `
		SELECT c.id, c.certificate_id, c.template_id, c.organization_id, c.recipient_name,
			c.recipient_email, c.issued_date, c.title, c.description, c.status, c.created_at,
			o.name, o.website
		FROM certificates c
		LEFT JOIN organizations o ON o.id = c.organization_id
		WHERE c.certificate_id = ?
	`

	c := &storage.Certificate{}
	var templateID, orgName, orgWebsite sql.NullString
	var status string

	err := s.db.QueryRowContext(ctx, query, certificateID).Scan(
		&c.ID,
		&c.CertificateID,
		&templateID,
		&c.OrganizationID,
		&c.RecipientName,
		&c.RecipientEmail,
		&c.IssuedDate,
		&c.Title,
		&c.Description,
		&status,
		&c.CreatedAt,
		&orgName,
		&orgWebsite,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}

	c.TemplateID = templateID.String
	c.Status = storage.CertificateStatus(status)
	c.OrganizationName = orgName.String
	c.OrganizationWebsite = orgWebsite.String
	return c, nil
}
