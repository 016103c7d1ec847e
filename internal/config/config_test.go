package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMustLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `
env: dev
db:
  db_url: postgres://user:pass@db:5432/recipes
http_server:
  address: ":8080"
  read_timeout: 5s
auth:
  jwt_secret: test-secret
uploads:
  dir: /tmp/covers
`)

	cfg := MustLoadConfig(path)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "postgres://user:pass@db:5432/recipes", cfg.DbURL)
	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, "/tmp/covers", cfg.Uploads.Dir)
}

func TestMustLoadConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
auth:
  jwt_secret: test-secret
`)

	cfg := MustLoadConfig(path)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, ":3000", cfg.Address)
	assert.Equal(t, "uploads", cfg.Uploads.Dir)
}

func TestMustLoadConfig_MissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
