package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdesign/internal/document"
	"certdesign/internal/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	dsn := os.Getenv("CERTDESIGN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CERTDESIGN_TEST_POSTGRES_DSN not set")
	}
	s, err := New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStorage_TemplateAndCertificate(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	now := time.Now().UTC().Truncate(time.Second)
	orgID := uuid.New().String()
	require.NoError(t, s.CreateOrganization(ctx, &storage.Organization{
		ID: orgID, Name: "Institute of Testing", CreatedAt: now,
	}))

	tpl := &storage.Template{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Name:           "Badge",
		Title:          "Speaker Badge",
		Type:           document.DesignBadge,
		Design:         document.Design{Canvas: document.BadgeCanvas()},
		Governance:     document.DefaultGovernance(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, s.Create(ctx, tpl))
	assert.ErrorIs(t, s.Create(ctx, tpl), storage.ErrAlreadyExists)

	got, err := s.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, document.DesignBadge, got.Type)
	assert.Equal(t, tpl.Design.Canvas.Width, got.Design.Canvas.Width)

	list, err := s.ListByOrganization(ctx, orgID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	certID := "CERT-" + uuid.New().String()
	require.NoError(t, s.CreateCertificate(ctx, &storage.Certificate{
		ID:             uuid.New().String(),
		CertificateID:  certID,
		TemplateID:     tpl.ID,
		OrganizationID: orgID,
		RecipientName:  "Ada Lovelace",
		IssuedDate:     now,
		Title:          "Speaker",
		CreatedAt:      now,
	}))

	require.NoError(t, s.Delete(ctx, tpl.ID))
	cert, err := s.GetCertificate(ctx, certID)
	require.NoError(t, err)
	assert.Empty(t, cert.TemplateID)
	assert.Equal(t, "Institute of Testing", cert.OrganizationName)

	_, err = s.Get(ctx, tpl.ID)
	assert.ErrorIs(t, err, storage.ErrTemplateNotFound)
	_, err = s.GetCertificate(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrCertificateNotFound)
}
