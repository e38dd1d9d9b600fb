package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fileshare-service/internal/config"
)

func TestLoad_FromEnvFile(t *testing.T) {
	td := t.TempDir()

	envContent := `HTTP_PORT=9090
JWT_TOKEN=very_very_secret_key
BASE_URL=https://files.example.com

POSTGRES_HOST=localhost
POSTGRES_PORT=5433
POSTGRES_USER=fileshare
POSTGRES_PASSWORD=2529
POSTGRES_DB=fileshare

REDIS_HOST=localhost
REDIS_PORT=6380
REDIS_PASSWORD=
REDIS_DB=0

MINIO_ENDPOINT=localhost:9000
MINIO_BUCKET_NAME=files
MINIO_ACCESS_KEY=admin
MINIO_SECRET_KEY=adminpass
MINIO_USE_SSL=false
`
	require.NoError(t, os.WriteFile(filepath.Join(td, ".env"), []byte(envContent), 0o644))

	// cleanenv.ReadConfig sets the parsed .env values as process env vars;
	// unset them afterwards so they don't leak into other tests.
	t.Cleanup(func() {
		for _, k := range []string{
			"HTTP_PORT", "JWT_TOKEN", "BASE_URL",
			"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB",
			"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB",
			"MINIO_ENDPOINT", "MINIO_BUCKET_NAME", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_USE_SSL",
		} {
			os.Unsetenv(k)
		}
	})

	origWd, _ := os.Getwd()
	defer os.Chdir(origWd)
	require.NoError(t, os.Chdir(td))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "very_very_secret_key", cfg.JWTSecret)
	assert.Equal(t, "https://files.example.com", cfg.BaseURL)

	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, uint16(5433), cfg.Postgres.Port)
	assert.Equal(t, "fileshare", cfg.Postgres.Username)
	assert.Equal(t, "2529", cfg.Postgres.Password)
	assert.Equal(t, "fileshare", cfg.Postgres.Database)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "6380", cfg.Redis.Port)
	assert.Equal(t, "", cfg.Redis.Password)
	assert.Equal(t, 0, cfg.Redis.Db)

	assert.Equal(t, "localhost:9000", cfg.MinIO.Endpoint)
	assert.Equal(t, "files", cfg.MinIO.Bucket)
	assert.False(t, cfg.MinIO.UseSSL)
}

func TestLoad_DefaultsWithoutEnvFile(t *testing.T) {
	td := t.TempDir()
	origWd, _ := os.Getwd()
	defer os.Chdir(origWd)
	require.NoError(t, os.Chdir(td))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, "6379", cfg.Redis.Port)
}
