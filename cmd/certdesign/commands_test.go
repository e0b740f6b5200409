package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certdesign/internal/config"
	"certdesign/internal/presets"
	"certdesign/internal/storage/sqlite"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SaveDirectory = t.TempDir()
	return cfg
}

func TestRunNewFromPreset(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	require.NoError(t, runNew(ctx, cfg, []string{"-preset", "crimson-guard", "-org", "acme"}))

	store, err := sqlite.New(ctx, cfg.SavePath(cfg.Database))
	require.NoError(t, err)
	defer store.Close()

	got, err := store.ListByOrganization(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, got, 1)

	want, err := presets.Get("crimson-guard")
	require.NoError(t, err)
	assert.Equal(t, "Crimson Guard", got[0].Name)
	assert.Equal(t, want.Description, got[0].Description)
	assert.Len(t, got[0].Design.Elements, len(want.Design.Elements))
	assert.Equal(t, want.Design.Canvas.BackgroundColor, got[0].Design.Canvas.BackgroundColor)
}

func TestRunNewRejectsUnknownPreset(t *testing.T) {
	cfg := testConfig(t)
	err := runNew(context.Background(), cfg, []string{"-preset", "missing"})
	assert.ErrorIs(t, err, presets.ErrUnknownPreset)

	err = runNew(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "-preset is required")
}

func TestNewTemplate(t *testing.T) {
	p, err := presets.Get("classic-serif")
	require.NoError(t, err)

	tpl := newTemplate("org", "Diploma", "Bachelor of Arts", p.Design)
	assert.NotEmpty(t, tpl.ID)
	assert.Equal(t, p.Design.Canvas.DesignType, tpl.Type)
	assert.Equal(t, "Traditional double rule border with an official seal.", tpl.Description)
	assert.False(t, tpl.CreatedAt.IsZero())
}
