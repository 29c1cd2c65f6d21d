package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: "9090"
db:
  host: db.internal
  port: 5432
  user: app
  password: pw
  name: appdb
redis:
  addr: cache:6379
mq:
  url: amqp://broker:5672/
jwt:
  secret: s3cr3t
`)

	cfg, err := Load("base", dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "amqp://broker:5672/", cfg.MQ.URL)
	assert.Equal(t, "s3cr3t", cfg.JWT.Secret)
}

func TestLoadEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: "8080"
db:
  host: localhost
  name: base_db
`)
	writeFile(t, dir, "prod.yaml", `
db:
  host: prod-db
`)

	cfg, err := Load("prod", dir)
	require.NoError(t, err)

	// Overlay wins for the keys it sets, base fills the rest.
	assert.Equal(t, "prod-db", cfg.DB.Host)
	assert.Equal(t, "base_db", cfg.DB.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadMissingOverlayIsFine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "server:\n  port: \"8080\"\n")

	cfg, err := Load("staging", dir)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadMissingBaseFails(t *testing.T) {
	_, err := Load("base", t.TempDir())
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: "8080"
db:
  host: localhost
  port: 5432
`)

	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DB_HOST", "override-db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load("base", dir)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "override-db", cfg.DB.Host)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestEnvDefault(t *testing.T) {
	t.Setenv("CONFIG_ENV", "")
	assert.Equal(t, "local", Env())

	t.Setenv("CONFIG_ENV", "prod")
	assert.Equal(t, "prod", Env())
}
