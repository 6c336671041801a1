package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elemevent/site/internal/archive"
)

func setRequired(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"APP_PORT":               "8080",
		"DB_USER":                "site",
		"DB_HOST":                "127.0.0.1",
		"DB_PORT":                "3306",
		"DB_NAME":                "site",
		"JWT_SECRET":             "secret",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
	} {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("ARCHIVE_TZ_FALLBACK", "")
	t.Setenv("BASE_URL", "https://example.org/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fallback != archive.FailOpen {
		t.Errorf("fallback = %v, want open", cfg.Fallback)
	}
	if cfg.AccessTTL() != 15*time.Minute || cfg.RefreshTTL() != 7*24*time.Hour {
		t.Errorf("ttl = %v / %v", cfg.AccessTTL(), cfg.RefreshTTL())
	}
	if cfg.BaseURL != "https://example.org" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
	if cfg.MediaRoot != "media" || cfg.ServeMedia {
		t.Errorf("media = %q serve=%v", cfg.MediaRoot, cfg.ServeMedia)
	}
	if cfg.MediaSweepMinAge != time.Hour {
		t.Errorf("sweep min age = %v", cfg.MediaSweepMinAge)
	}
}

func TestLoadSweepMinAge(t *testing.T) {
	setRequired(t)
	t.Setenv("MEDIA_SWEEP_MIN_AGE", "15m")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MediaSweepMinAge != 15*time.Minute {
		t.Fatalf("sweep min age = %v", cfg.MediaSweepMinAge)
	}
}

func TestLoadFallbackClosed(t *testing.T) {
	setRequired(t)
	t.Setenv("ARCHIVE_TZ_FALLBACK", "closed")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Fallback != archive.FailClosed {
		t.Fatalf("fallback = %v", cfg.Fallback)
	}
}

func TestLoadReportsAllMissing(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ARCHIVE_TZ_FALLBACK", "sometimes")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"DB_HOST", "JWT_SECRET", "ARCHIVE_TZ_FALLBACK"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadRejectsBadInt(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "ACCESS_TOKEN_TTL_MIN") {
		t.Fatalf("err = %v", err)
	}
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("DOTENV_PROBE=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOTENV_PROBE", "")
	os.Unsetenv("DOTENV_PROBE")

	if err := DotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("DotEnv: %v", err)
	}
	if got := os.Getenv("DOTENV_PROBE"); got != "from-file" {
		t.Fatalf("DOTENV_PROBE = %q", got)
	}
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("capacity = %d", cfg.Capacity)
	}
	if cfg.TTL != 10*time.Second {
		t.Errorf("ttl = %v", cfg.TTL)
	}
}

func TestCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || cfg.Methods["POST"] {
		t.Fatalf("methods = %v", cfg.Methods)
	}
}
