package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/telimanlogistique/telimanshare/internal/bytesize"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

// minimalConfig returns a config file body that passes validation, with
// storage rooted under dir.
func minimalConfig(dir string) string {
	return `
logging:
  level: "INFO"

accounts:
  type: sqlite
  sqlite:
    path: "` + yamlSafePath(dir) + `/accounts.db"

storage:
  objects:
    type: s3
    s3:
      bucket: documents
      region: eu-west-1
  meta:
    type: badger
    badger:
      path: "` + yamlSafePath(dir) + `/meta"

api:
  port: 8080
  jwt:
    secret: "test-secret-key-for-testing-minimum-32-chars"
`
}

func TestLoad_DefaultsApplied(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte(minimalConfig(tmpDir)), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected API port 8080, got %d", cfg.API.Port)
	}
	if cfg.Admin.Email != "admin@localhost" {
		t.Errorf("Expected default admin email 'admin@localhost', got %q", cfg.Admin.Email)
	}
	if cfg.Preview.Timeout != 90*time.Second {
		t.Errorf("Expected default preview timeout 90s, got %v", cfg.Preview.Timeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading with no config file returns a valid default config.
	// This allows users to run the server without a config file for quick testing.
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}

	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.Storage.Meta.Type != "badger" {
		t.Errorf("Expected default meta store 'badger', got %q", cfg.Storage.Meta.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_HumanReadableUploadLimit(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := minimalConfig(tmpDir) + `    access_token_duration: "20m"
  max_upload_bytes: "250Mi"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.API.MaxUploadBytes != 250*bytesize.MiB {
		t.Errorf("Expected 250Mi upload limit, got %v", cfg.API.MaxUploadBytes)
	}
	if cfg.API.JWT.AccessTokenDuration != 20*time.Minute {
		t.Errorf("Expected 20m access token duration, got %v", cfg.API.JWT.AccessTokenDuration)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Storage.Objects.Type != "s3" {
		t.Errorf("Expected default object store 's3', got %q", cfg.Storage.Objects.Type)
	}
	if cfg.Admin.Email != "admin@localhost" {
		t.Errorf("Expected default admin email 'admin@localhost', got %q", cfg.Admin.Email)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if filepath.Base(dir) != "telimanshare" {
		t.Errorf("Expected directory name 'telimanshare', got %q", filepath.Base(dir))
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("TELIMANSHARE_LOGGING_LEVEL", "ERROR")
	t.Setenv("TELIMANSHARE_API_PORT", "9191")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte(minimalConfig(tmpDir)), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Environment variables override config file values
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.API.Port != 9191 {
		t.Errorf("Expected port 9191 from env var, got %d", cfg.API.Port)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Storage.Objects.S3.Bucket = "documents"
	cfg.API.MaxUploadBytes = 250 * bytesize.MiB

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Saved config missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected permissions 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if loaded.Storage.Objects.S3.Bucket != "documents" {
		t.Errorf("Expected bucket 'documents', got %q", loaded.Storage.Objects.S3.Bucket)
	}
	if loaded.API.MaxUploadBytes != 250*bytesize.MiB {
		t.Errorf("Expected 250Mi upload limit, got %v", loaded.API.MaxUploadBytes)
	}
}
