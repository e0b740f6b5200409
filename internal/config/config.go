// Package config loads settings from ~/.certdesignrc, a .env file and
// CERTDESIGN_* environment variables, later sources overriding earlier
// ones.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RCFile    = ".certdesignrc"
	EnvPrefix = "CERTDESIGN_"
)

type Config struct {
	SaveDirectory string
	Database      string
	PostgresDSN   string
	DraftPath     string
	DraftMaxBytes int
	ListenAddr    string
	VerifyBaseURL string
	FontDir       string
	FontURLs      map[string]string
	HistoryDepth  int
	SnapThreshold float64
	AssetTimeout  time.Duration
	LogLevel      slog.Level
	Confirmations bool
	RateLimit     float64
	RateBurst     int

	// TrustedProxies are the addresses or CIDR ranges whose
	// X-Forwarded-For header names the client.
	TrustedProxies []string
}

func Default() *Config {
	return &Config{
		Database:      "certdesign.db",
		DraftPath:     "certdesign-draft.db",
		DraftMaxBytes: 5 << 20,
		ListenAddr:    ":8080",
		VerifyBaseURL: "http://localhost:8080",
		HistoryDepth:  50,
		SnapThreshold: 5,
		AssetTimeout:  15 * time.Second,
		LogLevel:      slog.LevelInfo,
		Confirmations: true,
		RateLimit:     5,
		RateBurst:     30,
	}
}

// keys lists the canonical setting names. Each is also read from the
// environment as CERTDESIGN_<KEY>.
var keys = []string{
	"save_directory", "database", "postgres_dsn", "draft_path", "draft_max_bytes",
	"listen_addr", "verify_base_url", "font_dir", "history_depth", "snap_threshold",
	"asset_timeout", "log_level", "confirmations", "rate_limit", "rate_burst",
	"font_urls", "trusted_proxies",
}

// Load reads ~/.certdesignrc, then .env in the working directory, then the
// environment. Malformed values are reported and leave the previous value
// in place.
func Load() (*Config, error) {
	rc := ""
	if home, err := os.UserHomeDir(); err == nil {
		rc = filepath.Join(home, RCFile)
	}
	return LoadFrom(rc, ".env")
}

// LoadFrom is Load with explicit file locations. Missing files are skipped.
func LoadFrom(rcPath string, envFiles ...string) (*Config, error) {
	cfg := Default()
	var errs []error

	if rcPath != "" {
		file, err := os.Open(rcPath)
		switch {
		case err == nil:
			errs = append(errs, cfg.read(file, rcPath)...)
			file.Close()
		case !errors.Is(err, fs.ErrNotExist):
			errs = append(errs, err)
		}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
	}

	for _, key := range keys {
		name := EnvPrefix + strings.ToUpper(key)
		if value, ok := os.LookupEnv(name); ok {
			if err := cfg.Set(key, value); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}

	return cfg, errors.Join(errs...)
}

func (c *Config) read(r io.Reader, name string) []error {
	var errs []error
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if err := c.Set(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			errs = append(errs, fmt.Errorf("%s:%d: %w", name, n, err))
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// Set assigns one setting by name. Names are case-insensitive and accept
// the aliases an rc file may use. Unknown names are ignored.
func (c *Config) Set(key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "savedirectory", "save_directory", "savedir":
		c.SaveDirectory = expandPath(value)
	case "database", "db", "sqlite":
		c.Database = expandPath(value)
	case "postgres_dsn", "postgres", "database_url":
		c.PostgresDSN = value
	case "draft_path", "draft", "draftpath":
		c.DraftPath = expandPath(value)
	case "draft_max_bytes", "draftmaxbytes":
		err = setInt(&c.DraftMaxBytes, value)
	case "listen_addr", "listen", "addr":
		c.ListenAddr = value
	case "verify_base_url", "base_url", "baseurl":
		c.VerifyBaseURL = strings.TrimRight(value, "/")
	case "font_dir", "fonts", "fontdir":
		c.FontDir = expandPath(value)
	case "font_urls", "fonturls":
		c.FontURLs, err = parseFontURLs(value)
	case "history_depth", "historydepth", "undo_depth":
		err = setInt(&c.HistoryDepth, value)
	case "snap_threshold", "snapthreshold", "snap":
		err = setFloat(&c.SnapThreshold, value)
	case "asset_timeout", "assettimeout":
		var d time.Duration
		if d, err = time.ParseDuration(value); err == nil {
			c.AssetTimeout = d
		}
	case "log_level", "loglevel":
		var l slog.Level
		if err = l.UnmarshalText([]byte(value)); err == nil {
			c.LogLevel = l
		}
	case "confirmations", "confirm":
		c.Confirmations = strings.ToLower(value) == "true"
	case "rate_limit", "ratelimit":
		err = setFloat(&c.RateLimit, value)
	case "rate_burst", "rateburst":
		err = setInt(&c.RateBurst, value)
	case "trusted_proxies", "trustedproxies":
		c.TrustedProxies = splitList(value)
	}
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

// parseFontURLs reads "Family=url" pairs separated by commas or semicolons.
// A family may carry a style suffix, as in "Inter-Bold".
func parseFontURLs(value string) (map[string]string, error) {
	out := map[string]string{}
	for _, pair := range splitList(value) {
		name, url, ok := strings.Cut(pair, "=")
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("want Family=url, got %q", pair)
		}
		out[name] = url
	}
	return out, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' }) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func expandPath(value string) string {
	if value == "" {
		return value
	}
	if strings.HasPrefix(value, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			value = filepath.Join(home, strings.TrimPrefix(value, "~"))
		}
	}
	if !filepath.IsAbs(value) {
		if absPath, err := filepath.Abs(value); err == nil {
			value = absPath
		}
	}
	return value
}

// SavePath places a relative file name in the save directory, creating the
// directory if needed.
func (c *Config) SavePath(filename string) string {
	if c.SaveDirectory == "" || filepath.IsAbs(filename) {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0755)
	return filepath.Join(c.SaveDirectory, filename)
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
