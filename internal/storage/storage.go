// Package storage defines the persistence contracts for templates and
// issued certificates.
package storage

import (
	"context"
	"time"

	"certdesign/internal/document"
)

// Template is a stored template record. Design is the design_config
// document.
type Template struct {
	ID             string
	OrganizationID string
	Name           string
	Title          string
	Description    string
	Type           document.DesignType
	Design         document.Design
	Governance     document.Governance
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Organization is the issuer of certificates.
type Organization struct {
	ID        string
	Name      string
	Website   string
	CreatedAt time.Time
}

type CertificateStatus string

const (
	StatusIssued  CertificateStatus = "issued"
	StatusRevoked CertificateStatus = "revoked"
)

// Certificate is an issued credential. CertificateID is the public id used
// in verification links. OrganizationName and OrganizationWebsite are read
// from the issuing organization and ignored on create.
type Certificate struct {
	ID                  string
	CertificateID       string
	TemplateID          string
	OrganizationID      string
	RecipientName       string
	RecipientEmail      string
	IssuedDate          time.Time
	Title               string
	Description         string
	Status              CertificateStatus
	OrganizationName    string
	OrganizationWebsite string
	CreatedAt           time.Time
}

// TemplateStore persists template records.
type TemplateStore interface {
	// Create stores a new template. Returns ErrAlreadyExists when the id is
	// taken.
	Create(ctx context.Context, t *Template) error

	// Get returns the template with id or ErrTemplateNotFound.
	Get(ctx context.Context, id string) (*Template, error)

	// Update replaces name, title, description, type, design and
	// governance. Returns ErrTemplateNotFound if the template doesn't exist.
	Update(ctx context.Context, t *Template) error

	// Delete removes the template. Returns ErrTemplateNotFound if the
	// template doesn't exist.
	Delete(ctx context.Context, id string) error

	// ListByOrganization returns an organization's templates, most recently
	// updated first.
	ListByOrganization(ctx context.Context, organizationID string) ([]*Template, error)
}

// CertificateStore persists organizations and issued certificates.
type CertificateStore interface {
	CreateOrganization(ctx context.Context, o *Organization) error

	// CreateCertificate stores an issued certificate. Returns
	// ErrAlreadyExists when the public certificate id is taken.
	CreateCertificate(ctx context.Context, c *Certificate) error

	// GetCertificate looks a certificate up by its public id. Returns
	// ErrCertificateNotFound if none matches.
	GetCertificate(ctx context.Context, certificateID string) (*Certificate, error)
}

// Store is a complete persistence backend.
type Store interface {
	TemplateStore
	CertificateStore
	Close() error
}
