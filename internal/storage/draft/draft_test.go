package draft

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdesign/internal/designer"
	"certdesign/internal/document"
)

func createTestStorage(t *testing.T, opts ...Option) *Storage {
	path := filepath.Join(t.TempDir(), "draft.db")
	s, err := New(context.Background(), path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestLoad_Empty(t *testing.T) {
	s := createTestStorage(t)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := createTestStorage(t)

	text := document.NewText("Hello")
	text.ID = "t1"
	d := designer.Draft{
		Elements:        document.Elements{text},
		Canvas:          document.DefaultCanvas(),
		Governance:      document.DefaultGovernance(),
		Fields:          document.DefaultFields(),
		PlaceholderData: map[string]string{"recipient_name": "Ada"},
	}
	require.NoError(t, s.Save(ctx, d))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Elements, 1)
	assert.Equal(t, "t1", got.Elements[0].Meta().ID)
	assert.Equal(t, d.Canvas.Width, got.Canvas.Width)
	assert.Equal(t, d.Governance, got.Governance)
	assert.Equal(t, "Ada", got.PlaceholderData["recipient_name"])
	assert.Len(t, got.Fields, len(d.Fields))

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestSave_QuotaExceeded(t *testing.T) {
	ctx := context.Background()
	s := createTestStorage(t, WithMaxBytes(2048))

	small := designer.Draft{Canvas: document.DefaultCanvas()}
	require.NoError(t, s.Save(ctx, small))

	big := designer.Draft{
		Canvas:          document.DefaultCanvas(),
		PlaceholderData: map[string]string{"blob": strings.Repeat("x", 4096)},
	}
	assert.ErrorIs(t, s.Save(ctx, big), ErrQuotaExceeded)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.PlaceholderData)
}

func TestStoreMirrorsIntoDraft(t *testing.T) {
	ctx := context.Background()
	s := createTestStorage(t)

	store := designer.New(designer.WithDraftStore(s))
	store.AddElement(document.NewShape(document.KindRect))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Elements, 1)

	restored := designer.New()
	restored.RestoreDraft(got)
	assert.Len(t, restored.Elements(), 1)
}
