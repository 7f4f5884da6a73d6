package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfigTemplate is the commented starting configuration written by
// "telimanshare init". The %s placeholders receive the accounts database
// path, the badger metadata path and a generated JWT secret.
const sampleConfigTemplate = `# TelimanShare Configuration File
#
# Every value here can be overridden with a TELIMANSHARE_ environment
# variable, e.g. TELIMANSHARE_LOGGING_LEVEL=DEBUG.

logging:
  level: "INFO"        # DEBUG, INFO, WARN, ERROR
  format: "text"       # text, json
  output: "stdout"     # stdout, stderr, or a file path

accounts:
  type: sqlite
  sqlite:
    path: "%s"

storage:
  objects:
    type: s3
    s3:
      # endpoint: "http://localhost:9000"   # uncomment for MinIO
      region: "eu-west-1"
      bucket: ""
      access_key_id: ""
      secret_access_key: ""
      # force_path_style: true              # required by MinIO
  meta:
    type: badger
    badger:
      path: "%s"

api:
  port: 8080
  max_upload_bytes: "100Mi"
  jwt:
    # Generated for development. For production, prefer the environment:
    #   export TELIMANSHARE_API_JWT_SECRET=$(openssl rand -hex 32)
    secret: "%s"
    access_token_duration: "15m"
    refresh_token_duration: "168h"

email:
  enabled: false
  # service_id: ""
  # public_key: ""
  # signup_template_id: ""
  # approval_template_id: ""
  # admin_email: ""

preview:
  enabled: false
  # secret: ""

metrics:
  enabled: false
  port: 9090

admin:
  email: "admin@localhost"
`

// generateJWTSecret returns a 64-character hex string (32 bytes of entropy).
func generateJWTSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// InitConfig writes a sample configuration file to the default location and
// returns its path. It refuses to overwrite an existing file unless force
// is set.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}
	return configPath, nil
}

// InitConfigToPath writes a sample configuration file to the given path,
// creating parent directories as needed. It refuses to overwrite an
// existing file unless force is set.
func InitConfigToPath(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	secret, err := generateJWTSecret()
	if err != nil {
		return err
	}

	dataDir := filepath.Dir(path)
	content := fmt.Sprintf(sampleConfigTemplate,
		filepath.ToSlash(filepath.Join(dataDir, "accounts.db")),
		filepath.ToSlash(filepath.Join(dataDir, "meta")),
		secret,
	)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
