package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "http://localhost:8000", cfg.Server.Issuer)
	require.Equal(t, 100, cfg.Server.RateLimit)

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/grantd.sqlite", cfg.Database.Path)

	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 5*time.Second, cfg.Cache.Redis.Timeout)

	require.Equal(t, 90*time.Second, cfg.Auth.RequestTTL)
	require.Equal(t, time.Hour, cfg.Auth.TokenTTL)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("GRANTD_SERVER_PORT", "9000")
	t.Setenv("GRANTD_SERVER_ISSUER", "https://auth.example.com")
	t.Setenv("GRANTD_AUTH_REQUEST_TTL", "2m")
	t.Setenv("GRANTD_CACHE_REDIS_ENABLED", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "https://auth.example.com", cfg.Server.Issuer)
	require.Equal(t, 2*time.Minute, cfg.Auth.RequestTTL)
	require.True(t, cfg.Cache.Redis.Enabled)
}

func TestDatabaseClientConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver: "PostgreSQL",
		Postgres: DBAuthConfig{
			Host:     " db.internal ",
			Port:     5432,
			Database: "grantd",
			Username: "grantd",
			Password: "secret",
		},
	}

	out := cfg.DatabaseClientConfig()
	require.Equal(t, "postgres", out.Driver)
	require.Equal(t, "db.internal", out.Host)
	require.Equal(t, 5432, out.Port)
	require.Equal(t, "grantd", out.Name)

	sqlite := DatabaseConfig{Path: "./x.sqlite"}.DatabaseClientConfig()
	require.Equal(t, "sqlite", sqlite.Driver)
	require.Equal(t, "./x.sqlite", sqlite.Path)
}
