package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray config.yaml is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "work")
	require.NoError(t, os.Mkdir(dir, 0o755))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadConfigFromEnv(t *testing.T) {
	inTempDir(t)
	t.Setenv("SHOWLINE_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SHOWLINE_AUTH_OPERATOR_KEY", "op")
	t.Setenv("DB_URL", "postgres://db/showline")
	t.Setenv("SHOWLINE_SERVER_KEEPALIVE_SECONDS", "30")

	cfg, fileFound, err := loadConfig(newViper())
	require.NoError(t, err)
	assert.False(t, fileFound)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "op", cfg.Auth.OperatorKey)
	assert.Equal(t, "postgres://db/showline", cfg.Database.URL)
	assert.Equal(t, 30*time.Second, cfg.KeepAlive())

	// defaults
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, 16, cfg.Broadcast.Capacity)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout())
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigPrefersPrefixedDatabaseURL(t *testing.T) {
	inTempDir(t)
	t.Setenv("SHOWLINE_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SHOWLINE_AUTH_OPERATOR_KEY", "op")
	t.Setenv("SHOWLINE_DATABASE_URL", "sqlite://a.db")
	t.Setenv("DB_URL", "sqlite://b.db")

	cfg, _, err := loadConfig(newViper())
	require.NoError(t, err)
	assert.Equal(t, "sqlite://a.db", cfg.Database.URL)
}

func TestLoadConfigFile(t *testing.T) {
	dir := inTempDir(t)
	yaml := `
server:
  addr: ":8080"
auth:
  jwt_secret: from-file
  operator_key: op
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, fileFound, err := loadConfig(newViper())
	require.NoError(t, err)
	assert.True(t, fileFound)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"SHOWLINE_AUTH_OPERATOR_KEY": "op"},
			want: "auth.jwt_secret is missing",
		},
		{
			name: "missing operator key",
			env:  map[string]string{"SHOWLINE_AUTH_JWT_SECRET": "s"},
			want: "auth.operator_key is missing",
		},
		{
			name: "bad log level",
			env: map[string]string{
				"SHOWLINE_AUTH_JWT_SECRET":   "s",
				"SHOWLINE_AUTH_OPERATOR_KEY": "op",
				"SHOWLINE_LOG_LEVEL":         "loud",
			},
			want: "invalid log.level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inTempDir(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, _, err := loadConfig(newViper())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
