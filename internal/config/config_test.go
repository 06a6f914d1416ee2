package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	// Arrange
	path := writeConfig(t, `
database:
  host: db
  user: app
  dbname: assessments
jwt:
  secret: test-secret
assessment:
  sweep_interval: 30s
`)

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port, "Порт БД берется из значений по умолчанию")
	assert.Equal(t, 30*time.Second, cfg.Assessment.SweepInterval)
	assert.Equal(t, 10*time.Minute, cfg.Assessment.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Assessment.UnlimitedDraftTTL)
	assert.Equal(t, "logs/app.log", cfg.Logger.File)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db
  user: app
  dbname: assessments
jwt:
  secret: from-file
`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_HOST", "env-db")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "env-db", cfg.Database.Host)
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db
  user: app
  dbname: assessments
`)
	t.Setenv("JWT_SECRET", "")

	_, err := Load(path)

	assert.Error(t, err, "Без JWT секрета конфигурация невалидна")
}

func TestDatabaseConfig_ConnectionStrings(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}

	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", d.PostgresConnectionString())
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", d.PostgresURL())
}
