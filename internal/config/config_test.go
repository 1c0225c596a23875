package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, public, private string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.yaml"), []byte(public), 0o600))
	if private != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "private.yaml"), []byte(private), 0o600))
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeConfig(t, `
addr: ":9000"
upload_dir: /var/lib/factshield/uploads
max_upload_size: 1048576
session_ttl: 30m
database:
  driver: postgres
  host: db
  port: 5433
  user: factshield
  dbname: factshield
`, "session_key: '"+testKey+"'\ndatabase_password: secret\n")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Public.Addr)
	assert.Equal(t, "/var/lib/factshield/uploads", cfg.Public.UploadDir)
	assert.Equal(t, int64(1<<20), cfg.Public.MaxUploadSize)
	assert.Equal(t, 30*time.Minute, cfg.Public.SessionTTL)
	assert.Equal(t, DriverPostgres, cfg.Public.Database.Driver)
	assert.Equal(t, 5433, cfg.Public.Database.Port)
	// defaults survive partial files
	assert.Equal(t, "admin", cfg.Public.AdminUsername)
	assert.Equal(t, "disable", cfg.Public.Database.SSLMode)

	assert.Equal(t, "host=db port=5433 user=factshield password=secret dbname=factshield sslmode=disable", cfg.DSN())
}

func TestLoad_SQLiteDSN(t *testing.T) {
	dir := writeConfig(t, "database:\n  driver: sqlite3\n  path: data/test.db\n", "session_key: '"+testKey+"'\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cfg.DSN(), "file:data/test.db?"))
	assert.Contains(t, cfg.DSN(), "_foreign_keys=on")
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := writeConfig(t, "upload_dir: uploads\n", "")
	t.Setenv("PORT", "8123")
	t.Setenv("UPLOAD_DIR", "/tmp/up")
	t.Setenv("FACTSHIELD_SESSION_KEY", testKey)
	t.Setenv("FACTSHIELD_ADMIN_PASSWORD", "first-run-password")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ":8123", cfg.Public.Addr)
	assert.Equal(t, "/tmp/up", cfg.Public.UploadDir)
	assert.Equal(t, testKey, cfg.Private.SessionKey)
	assert.Equal(t, "first-run-password", cfg.Private.AdminPassword)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		public  string
		private string
	}{
		{"missing session key", "addr: ':80'\n", ""},
		{"short session key", "addr: ':80'\n", "session_key: short\n"},
		{"unknown driver", "database:\n  driver: mysql\n", "session_key: '" + testKey + "'\n"},
		{"postgres without host", "database:\n  driver: postgres\n", "session_key: '" + testKey + "'\n"},
		{"unknown field", "bump_limit: 10\n", "session_key: '" + testKey + "'\n"},
		{"zero upload size", "max_upload_size: 0\n", "session_key: '" + testKey + "'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.public, tt.private)
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingPublic(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "public.yaml")
}
