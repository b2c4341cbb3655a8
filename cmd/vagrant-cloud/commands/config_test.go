package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calebmarchent/vagrant/internal/app"
)

func environFrom(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig("", nil, environFrom())
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Cloud.BaseURL != app.DefaultConfigCloudBaseURL {
		t.Errorf("Cloud.BaseURL = %q, want %q", cfg.Cloud.BaseURL, app.DefaultConfigCloudBaseURL)
	}
	if cfg.Auth.Storage != app.TokenStorageTypeFile {
		t.Errorf("Auth.Storage = %q, want %q", cfg.Auth.Storage, app.TokenStorageTypeFile)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
log_format = "json"

[cloud]
base_url = "https://boxes.example.com"

[auth]
storage = "file"
file = "/tmp/vagrant-test-token"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := loadConfig(configPath, nil, environFrom())
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if cfg.Cloud.BaseURL != "https://boxes.example.com" {
		t.Errorf("Cloud.BaseURL = %q, want file value", cfg.Cloud.BaseURL)
	}
	if cfg.Auth.File != "/tmp/vagrant-test-token" {
		t.Errorf("Auth.File = %q, want file value", cfg.Auth.File)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), nil, environFrom()); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[cloud]
base_url = "https://from-file.example.com"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := loadConfig(configPath, nil, environFrom(
		"VAGRANT_CLOUD__BASE_URL=https://from-env.example.com",
	))
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Cloud.BaseURL != "https://from-env.example.com" {
		t.Errorf("Cloud.BaseURL = %q, want env value", cfg.Cloud.BaseURL)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := loadConfig("", nil, environFrom(
		"VAGRANT_LOG_FORMAT=xml",
	)); err == nil {
		t.Fatal("expected error for invalid log format")
	}
}
