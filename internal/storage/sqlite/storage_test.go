package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdesign/internal/document"
	"certdesign/internal/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}
	return s, cleanup
}

func sampleTemplate(orgID string, updated time.Time) *storage.Template {
	text := document.NewText("{{recipient_name}}")
	text.ID = "name"
	text.FieldBinding = "f1"
	return &storage.Template{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Name:           "Course completion",
		Title:          "Certificate of Completion",
		Description:    "Awarded on completion",
		Type:           document.DesignCertificate,
		Design: document.Design{
			Canvas:   document.DefaultCanvas(),
			Elements: document.Elements{text},
		},
		Governance: document.DefaultGovernance(),
		CreatedAt:  updated,
		UpdatedAt:  updated,
	}
}

func TestTemplateStorage_CRUD(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Second)
	tpl := sampleTemplate("org-1", now)
	require.NoError(t, s.Create(ctx, tpl))
	assert.ErrorIs(t, s.Create(ctx, tpl), storage.ErrAlreadyExists)

	got, err := s.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.Name, got.Name)
	assert.Equal(t, tpl.Title, got.Title)
	assert.Equal(t, document.DesignCertificate, got.Type)
	assert.Equal(t, tpl.Governance, got.Governance)
	assert.WithinDuration(t, now, got.UpdatedAt, time.Second)

	wantJSON, err := document.Marshal(tpl.Design)
	require.NoError(t, err)
	gotJSON, err := document.Marshal(got.Design)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))

	got.Title = "Updated"
	got.Governance.Status = document.StatusPublished
	got.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, s.Update(ctx, got))

	updated, err := s.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	assert.Equal(t, document.StatusPublished, updated.Governance.Status)

	require.NoError(t, s.Delete(ctx, tpl.ID))
	_, err = s.Get(ctx, tpl.ID)
	assert.ErrorIs(t, err, storage.ErrTemplateNotFound)
	assert.ErrorIs(t, s.Delete(ctx, tpl.ID), storage.ErrTemplateNotFound)
	assert.ErrorIs(t, s.Update(ctx, tpl), storage.ErrTemplateNotFound)
}

func TestTemplateStorage_ListByOrganization(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	base := time.Now().UTC().Truncate(time.Second)
	older := sampleTemplate("org-1", base)
	newer := sampleTemplate("org-1", base.Add(time.Hour))
	other := sampleTemplate("org-2", base)
	for _, tpl := range []*storage.Template{older, newer, other} {
		require.NoError(t, s.Create(ctx, tpl))
	}

	list, err := s.ListByOrganization(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	empty, err := s.ListByOrganization(ctx, "org-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCertificateStorage(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.CreateOrganization(ctx, &storage.Organization{
		ID:        "org-1",
		Name:      "Institute of Testing",
		Website:   "https://example.org",
		CreatedAt: now,
	}))
	tpl := sampleTemplate("org-1", now)
	require.NoError(t, s.Create(ctx, tpl))

	tests := []struct {
		name     string
		cert     *storage.Certificate
		wantOrg  string
		wantTmpl string
	}{
		{
			name: "with template and organization",
			cert: &storage.Certificate{
				ID:             uuid.New().String(),
				CertificateID:  "CERT-0001",
				TemplateID:     tpl.ID,
				OrganizationID: "org-1",
				RecipientName:  "Ada Lovelace",
				RecipientEmail: "ada@example.org",
				IssuedDate:     now,
				Title:          "Analytical Engines",
				CreatedAt:      now,
			},
			wantOrg:  "Institute of Testing",
			wantTmpl: tpl.ID,
		},
		{
			name: "without template from unknown organization",
			cert: &storage.Certificate{
				ID:             uuid.New().String(),
				CertificateID:  "CERT-0002",
				OrganizationID: "org-9",
				RecipientName:  "Grace Hopper",
				IssuedDate:     now,
				Title:          "Compilers",
				CreatedAt:      now,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.CreateCertificate(ctx, tt.cert))

			got, err := s.GetCertificate(ctx, tt.cert.CertificateID)
			require.NoError(t, err)
			assert.Equal(t, tt.cert.RecipientName, got.RecipientName)
			assert.Equal(t, tt.cert.Title, got.Title)
			assert.Equal(t, storage.StatusIssued, got.Status)
			assert.Equal(t, tt.wantOrg, got.OrganizationName)
			assert.Equal(t, tt.wantTmpl, got.TemplateID)
			assert.WithinDuration(t, now, got.IssuedDate, time.Second)
		})
	}

	dup := *tests[0].cert
	dup.ID = uuid.New().String()
	assert.ErrorIs(t, s.CreateCertificate(ctx, &dup), storage.ErrAlreadyExists)

	_, err := s.GetCertificate(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrCertificateNotFound)
}

func TestNew_FileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "certdesign.db")

	s, err := New(ctx, path)
	require.NoError(t, err)
	tpl := sampleTemplate("org-1", time.Now().UTC())
	require.NoError(t, s.Create(ctx, tpl))
	require.NoError(t, s.Close())

	reopened, err := New(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	_, err = reopened.Get(ctx, tpl.ID)
	assert.NoError(t, err)
}
