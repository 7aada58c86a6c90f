package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", config.Server.Port)
	}
	if config.Storage.Namespace != "academy" {
		t.Errorf("expected namespace academy, got %q", config.Storage.Namespace)
	}
	if config.Auth.TokenExpiry != "168h" {
		t.Errorf("expected default token expiry 168h, got %q", config.Auth.TokenExpiry)
	}
	if config.IsProduction() {
		t.Error("default config should not be production")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "academy.toml")
	content := `
environment = "production"

[server]
port = 9090

[auth]
jwt_secret = "file-secret"
token_expiry = "24h"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", config.Server.Port)
	}
	if config.Auth.JWTSecret != "file-secret" {
		t.Errorf("expected jwt_secret from file, got %q", config.Auth.JWTSecret)
	}
	if !config.IsProduction() {
		t.Error("expected production environment")
	}
	// Defaults survive for keys the file does not set.
	if config.Storage.Address != "ws://localhost:8000" {
		t.Errorf("expected default storage address, got %q", config.Storage.Address)
	}
}

func TestLoadConfig_MissingFileIsSkipped(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Server.Port != 8080 {
		t.Errorf("expected defaults, got port %d", config.Server.Port)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ACADEMY_PORT", "7070")
	t.Setenv("ACADEMY_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("ACADEMY_AUTH_TOKEN_EXPIRY", "1h")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Server.Port != 7070 {
		t.Errorf("expected port 7070 from env, got %d", config.Server.Port)
	}
	if config.Auth.JWTSecret != "env-secret" {
		t.Errorf("expected env jwt secret, got %q", config.Auth.JWTSecret)
	}
	if got := config.Auth.GetTokenExpiry(); got != time.Hour {
		t.Errorf("expected 1h token expiry, got %v", got)
	}
}

func TestAuthConfig_GetTokenExpiry_Defaults(t *testing.T) {
	cfg := &AuthConfig{}
	if got := cfg.GetTokenExpiry(); got != 168*time.Hour {
		t.Errorf("expected 168h default, got %v", got)
	}

	cfg = &AuthConfig{TokenExpiry: "not-a-duration"}
	if got := cfg.GetTokenExpiry(); got != 168*time.Hour {
		t.Errorf("expected 168h for unparsable value, got %v", got)
	}
}

func TestClassroomConfig_GetTimeout_Defaults(t *testing.T) {
	cfg := &ClassroomConfig{}
	if got := cfg.GetTimeout(); got != 30*time.Second {
		t.Errorf("expected 30s default, got %v", got)
	}

	cfg = &ClassroomConfig{Timeout: "5s"}
	if got := cfg.GetTimeout(); got != 5*time.Second {
		t.Errorf("expected 5s, got %v", got)
	}
}
