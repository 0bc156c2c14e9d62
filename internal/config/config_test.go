package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("HTTP_ADDR", ":18090")
	t.Setenv("API_BASE_URL", "http://erp.local:5000/")
	t.Setenv("ROUTE_PREFIX", "portal/")
	t.Setenv("INSTITUTION_DOMAIN", "@college.edu")
	t.Setenv("SESSION_BACKEND", "REDIS")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("STATUS_INTERVAL", "30s")
	t.Setenv("STATUS_TIMEOUT_SECONDS", "2")
	t.Setenv("DEBUG", "true")

	cfg := Load()
	if cfg.HTTPAddr != ":18090" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.APIBaseURL != "http://erp.local:5000" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.RoutePrefix != "/portal" {
		t.Fatalf("expected prefix /portal, got %s", cfg.RoutePrefix)
	}
	if cfg.InstitutionDomain != "college.edu" {
		t.Fatalf("expected domain without @, got %s", cfg.InstitutionDomain)
	}
	if cfg.SessionBackend != "redis" {
		t.Fatalf("expected redis backend, got %s", cfg.SessionBackend)
	}
	if cfg.RedisAddr != "127.0.0.1:6379" {
		t.Fatalf("expected REDIS_ADDR override, got %s", cfg.RedisAddr)
	}
	if cfg.StatusInterval != 30*time.Second {
		t.Fatalf("expected STATUS_INTERVAL 30s, got %s", cfg.StatusInterval)
	}
	if cfg.StatusTimeout != 2*time.Second {
		t.Fatalf("expected STATUS_TIMEOUT 2s, got %s", cfg.StatusTimeout)
	}
	if !cfg.Debug {
		t.Fatalf("expected DEBUG true")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	for _, key := range []string{"ROUTE_PREFIX", "STATUS_INTERVAL", "STATUS_INTERVAL_SECONDS", "API_TIMEOUT", "API_TIMEOUT_SECONDS", "INSTITUTION_DOMAIN"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.RoutePrefix != "/Erp_Mnmjec" {
		t.Fatalf("expected default prefix, got %s", cfg.RoutePrefix)
	}
	if cfg.StatusInterval != 10*time.Second {
		t.Fatalf("expected 10s status interval, got %s", cfg.StatusInterval)
	}
	if cfg.APITimeout != 0 {
		t.Fatalf("expected no api timeout by default, got %s", cfg.APITimeout)
	}
	if cfg.InstitutionDomain != "mnmjec.ac.in" {
		t.Fatalf("expected default domain, got %s", cfg.InstitutionDomain)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.env")
	if err := os.WriteFile(path, []byte("PORTAL_TEST_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Cleanup(func() { os.Unsetenv("PORTAL_TEST_LOG_LEVEL") })

	Load()
	if got := os.Getenv("PORTAL_TEST_LOG_LEVEL"); got != "debug" {
		t.Fatalf("expected dotenv value to be loaded, got %q", got)
	}
}
