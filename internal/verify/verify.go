// Package verify backs the public verification page: it looks up an issued
// certificate, fills its template with the certificate's data and renders
// the result.
package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"certdesign/internal/document"
	"certdesign/internal/export"
	"certdesign/internal/render"
	"certdesign/internal/resolve"
	"certdesign/internal/storage"
)

// ErrNoDesign is returned for certificates whose template is gone.
var ErrNoDesign = errors.New("certificate has no design")

const (
	defaultDescription = "Verified achievement and professional competency."
	defaultExpiry      = "Does not expire"
)

// Store is the persistence a Service reads from.
type Store interface {
	storage.TemplateStore
	storage.CertificateStore
}

type Service struct {
	store    Store
	renderer *render.Renderer
	baseURL  string
	log      *slog.Logger
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithBaseURL sets the origin verification links point at.
func WithBaseURL(u string) Option {
	return func(s *Service) { s.baseURL = u }
}

func New(store Store, r *render.Renderer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		renderer: r,
		baseURL:  "http://localhost:8080",
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Details is the credential metadata shown next to the rendered
// certificate.
type Details struct {
	CertificateID   string               `json:"certificate_id"`
	RecipientName   string               `json:"recipient_name"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	IssuedOn        string               `json:"issued_on"`
	ExpiresOn       string               `json:"expires_on"`
	Status          string               `json:"status"`
	Issuer          string               `json:"issuer"`
	IssuerWebsite   string               `json:"issuer_website,omitempty"`
	Skills          []string             `json:"skills"`
	EarningCriteria []document.Criterion `json:"earning_criteria"`
	VerifyLink      string               `json:"verify_link"`
	HasDesign       bool                 `json:"has_design"`
}

// record is a certificate together with its template's design, if any.
type record struct {
	cert      *storage.Certificate
	design    document.Design
	hasDesign bool
}

func (s *Service) load(ctx context.Context, certificateID string) (*record, error) {
	cert, err := s.store.GetCertificate(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	rec := &record{cert: cert}
	if cert.TemplateID == "" {
		return rec, nil
	}

	tpl, err := s.store.Get(ctx, cert.TemplateID)
	switch {
	case errors.Is(err, storage.ErrTemplateNotFound):
		s.log.Warn("certificate template missing", "certificate_id", certificateID, "template_id", cert.TemplateID)
		return rec, nil
	case err != nil:
		return nil, err
	}
	rec.design = tpl.Design
	rec.hasDesign = true
	return rec, nil
}

// resolved returns the certificate's design filled with its data.
func (s *Service) resolved(ctx context.Context, certificateID string) (document.Design, error) {
	rec, err := s.load(ctx, certificateID)
	if err != nil {
		return document.Design{}, err
	}
	if !rec.hasDesign {
		return document.Design{}, ErrNoDesign
	}
	return resolve.Resolve(rec.design, BuildBag(rec.cert, s.baseURL)), nil
}

// Details returns the metadata of the certificate with the public id.
func (s *Service) Details(ctx context.Context, certificateID string) (*Details, error) {
	rec, err := s.load(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	c := rec.cert
	canvas := rec.design.Canvas

	d := &Details{
		CertificateID:   c.CertificateID,
		RecipientName:   c.RecipientName,
		Title:           c.Title,
		Description:     firstNonEmpty(canvas.Description, c.Description, defaultDescription),
		IssuedOn:        c.IssuedDate.UTC().Format(DateLayout),
		ExpiresOn:       firstNonEmpty(canvas.ExpiresOn, defaultExpiry),
		Status:          string(c.Status),
		Issuer:          firstNonEmpty(c.OrganizationName, DefaultIssuer),
		IssuerWebsite:   c.OrganizationWebsite,
		Skills:          canvas.Skills,
		EarningCriteria: canvas.EarningCriteria,
		VerifyLink:      VerifyLink(s.baseURL, c.CertificateID),
		HasDesign:       rec.hasDesign,
	}
	if d.Skills == nil {
		d.Skills = []string{}
	}
	if d.EarningCriteria == nil {
		d.EarningCriteria = []document.Criterion{}
	}
	return d, nil
}

// Preview writes a PNG of the filled-in certificate no wider than
// maxWidth. A maxWidth of zero renders at the design's own size.
func (s *Service) Preview(ctx context.Context, certificateID string, maxWidth int, w io.Writer) error {
	d, err := s.resolved(ctx, certificateID)
	if err != nil {
		return err
	}
	if err := s.renderer.Images().Preload(ctx, render.Sources(d)...); err != nil {
		return fmt.Errorf("preload assets: %w", err)
	}
	return export.PNG(w, s.renderer.Thumbnail(d, maxWidth))
}

// PDF writes the filled-in certificate as an A4 PDF.
func (s *Service) PDF(ctx context.Context, certificateID string, w io.Writer) error {
	d, err := s.resolved(ctx, certificateID)
	if err != nil {
		return err
	}
	return export.Render(ctx, s.renderer, d, w)
}

// QR writes the certificate's verification link as a QR code PNG. It does
// not need the template, so certificates without a design get one too.
func (s *Service) QR(ctx context.Context, certificateID string, w io.Writer) error {
	cert, err := s.store.GetCertificate(ctx, certificateID)
	if err != nil {
		return err
	}
	data, err := s.renderer.QRCodes().PNG(VerifyLink(s.baseURL, cert.CertificateID))
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
