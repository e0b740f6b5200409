package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// unsetEnv clears name for the duration of the test; godotenv only fills
// variables that are not set.
func unsetEnv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "")
	require.NoError(t, os.Unsetenv(name))
}

func TestLoadFrom_MissingFiles(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(filepath.Join(dir, "nope"), filepath.Join(dir, "nope.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFrom_RCFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	rc := writeFile(t, home, RCFile, `
# designer settings
savedir = ~/certificates
SNAP = 8.5
undo_depth=20
confirm = false
log_level = debug
asset_timeout = 3s
base_url = https://verify.example.org/
not a setting
unknown_key = 1
`)

	cfg, err := LoadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "certificates"), cfg.SaveDirectory)
	assert.Equal(t, 8.5, cfg.SnapThreshold)
	assert.Equal(t, 20, cfg.HistoryDepth)
	assert.False(t, cfg.Confirmations)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.AssetTimeout)
	assert.Equal(t, "https://verify.example.org", cfg.VerifyBaseURL)
}

func TestLoadFrom_Lists(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, "CERTDESIGN_FONT_URLS")
	unsetEnv(t, "CERTDESIGN_TRUSTED_PROXIES")

	rc := writeFile(t, dir, "rc", `
font_urls = Great Vibes=https://fonts.example.org/gv.ttf; Inter-Bold=https://fonts.example.org/inter-bold.ttf
trusted_proxies = 10.0.0.0/8, 127.0.0.1
`)
	cfg, err := LoadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Great Vibes": "https://fonts.example.org/gv.ttf",
		"Inter-Bold":  "https://fonts.example.org/inter-bold.ttf",
	}, cfg.FontURLs)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)

	assert.Error(t, cfg.Set("font_urls", "no-url-here"))
}

func TestLoadFrom_Precedence(t *testing.T) {
	dir := t.TempDir()
	unsetEnv(t, "CERTDESIGN_RATE_BURST")
	unsetEnv(t, "CERTDESIGN_LISTEN_ADDR")
	t.Setenv("CERTDESIGN_HISTORY_DEPTH", "99")

	rc := writeFile(t, dir, "rc", "history_depth = 10\nrate_burst = 3\nlisten = :7000\n")
	env := writeFile(t, dir, ".env", "CERTDESIGN_RATE_BURST=7\nCERTDESIGN_HISTORY_DEPTH=12\n")

	cfg, err := LoadFrom(rc, env)
	require.NoError(t, err)
	assert.Equal(t, 99, cfg.HistoryDepth, "process environment wins")
	assert.Equal(t, 7, cfg.RateBurst, ".env overrides the rc file")
	assert.Equal(t, ":7000", cfg.ListenAddr, "rc file overrides defaults")
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CERTDESIGN_SNAP_THRESHOLD", "close")

	rc := writeFile(t, dir, "rc", "history_depth = lots\nlog_level = loud\nrate_limit = 2\n")

	cfg, err := LoadFrom(rc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rc:1")
	assert.Contains(t, err.Error(), "CERTDESIGN_SNAP_THRESHOLD")
	assert.Equal(t, 50, cfg.HistoryDepth)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5.0, cfg.SnapThreshold)
	assert.Equal(t, 2.0, cfg.RateLimit)
}

func TestSavePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	cfg := Default()

	assert.Equal(t, "a.pdf", cfg.SavePath("a.pdf"))

	cfg.SaveDirectory = dir
	assert.Equal(t, filepath.Join(dir, "a.pdf"), cfg.SavePath("a.pdf"))
	assert.DirExists(t, dir)
	assert.Equal(t, "/abs/a.pdf", cfg.SavePath("/abs/a.pdf"))
}
