package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != defaultAddr {
		t.Fatalf("expected default addr %s, got %s", defaultAddr, cfg.Server.Addr)
	}
	if cfg.Server.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Fatalf("expected default read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Client.SearchDebounceMS != 300 || cfg.Client.CSRFCookie != "csrftoken" {
		t.Fatalf("expected default client settings, got %+v", cfg.Client)
	}
}

func TestLoadHonoursOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hub.yaml")
	data := `
server:
  addr: 0.0.0.0
  port: ":9999"
  read_timeout: 5s
client:
  search_debounce_ms: 150
  max_upload_bytes: 1024
seed:
  path: catalogue.yaml
admin:
  password: hunter2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0" || cfg.Server.Port != ":9999" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("server overrides not applied: %+v", cfg.Server)
	}
	if cfg.Client.SearchDebounceMS != 150 || cfg.Client.MaxUploadBytes != 1024 {
		t.Fatalf("client overrides not applied: %+v", cfg.Client)
	}
	if cfg.Client.ToastDurationMS != 3000 {
		t.Fatalf("unset client fields should keep defaults, got %+v", cfg.Client)
	}
	if cfg.Admin.Username != "admin" || cfg.Admin.Password != "hunter2" {
		t.Fatalf("admin overrides not applied: %+v", cfg.Admin)
	}
	if cfg.Seed.Path != "catalogue.yaml" {
		t.Fatalf("seed override not applied: %+v", cfg.Seed)
	}
}

func TestLoadAcceptsJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"server":{"port":":7000"}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != ":7000" || cfg.Server.Addr != defaultAddr {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HUB_SERVER_PORT", ":8123")
	t.Setenv("HUB_CLIENT_TOAST_DURATION_MS", "4500")
	t.Setenv("HUB_RATE_LIMIT_SUGGESTIONS", "5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != ":8123" {
		t.Fatalf("expected env port, got %s", cfg.Server.Port)
	}
	if cfg.Client.ToastDurationMS != 4500 {
		t.Fatalf("expected env toast duration, got %d", cfg.Client.ToastDurationMS)
	}
	if cfg.RateLimit.Suggestions != 5 {
		t.Fatalf("expected env rate limit, got %d", cfg.RateLimit.Suggestions)
	}
}

func TestEnvKey(t *testing.T) {
	cases := map[string]string{
		"HUB_SERVER_READ_TIMEOUT": "server.read_timeout",
		"HUB_CLIENT_CSRF_COOKIE":  "client.csrf_cookie",
		"HUB_RATE_LIMIT_WINDOW":   "rate_limit.window",
		"HUB_LOG_DIR":             "log.dir",
	}
	for in, want := range cases {
		if got := envKey(in); got != want {
			t.Fatalf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadErrorsForMissingFile(t *testing.T) {
	if _, err := Load("missing.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejectsBadRateLimit(t *testing.T) {
	cfg := Default()
	cfg.RateLimit.Window = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestListenAddr(t *testing.T) {
	if got := (ServerConfig{Addr: "127.0.0.1", Port: "8000"}).ListenAddr(); got != "127.0.0.1:8000" {
		t.Fatalf("unexpected listen addr %q", got)
	}
}
