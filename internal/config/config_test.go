package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	require.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.Equal(t, RevocationBackendMemory, cfg.Auth.RevocationBackend)
	require.False(t, cfg.OIDC.FederatedEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL", "24h")
	t.Setenv("AUTH_REVOCATION_BACKEND", "redis")
	t.Setenv("OIDC_CLIENT_ID", "client-1")
	t.Setenv("AUTH_BOOTSTRAP_ADMIN_EMAIL", "root@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 24*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.Equal(t, RevocationBackendRedis, cfg.Auth.RevocationBackend)
	require.True(t, cfg.OIDC.FederatedEnabled())
	require.Equal(t, "root@example.com", cfg.Auth.BootstrapAdminEmail)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{Auth: AuthConfig{
			JWTSecret:         testSecret,
			AccessTokenTTL:    time.Minute,
			RefreshTokenTTL:   time.Hour,
			RevocationBackend: RevocationBackendMemory,
			PurgeInterval:     time.Minute,
		}}
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
	})

	t.Run("short secret", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.JWTSecret = "short"
		require.ErrorContains(t, cfg.Validate(), "AUTH_JWT_SECRET")
	})

	t.Run("refresh not longer than access", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.RefreshTokenTTL = time.Minute
		require.ErrorContains(t, cfg.Validate(), "AUTH_REFRESH_TOKEN_TTL")
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.RevocationBackend = "etcd"
		require.ErrorContains(t, cfg.Validate(), "AUTH_REVOCATION_BACKEND")
	})

	t.Run("zero purge interval", func(t *testing.T) {
		cfg := valid()
		cfg.Auth.PurgeInterval = 0
		require.ErrorContains(t, cfg.Validate(), "AUTH_PURGE_INTERVAL")
	})
}
