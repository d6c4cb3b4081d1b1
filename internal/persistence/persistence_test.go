package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/college-marketplace/internal/config"
)

func TestPostgres_WithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	require.False(t, pg.Enabled())
	require.ErrorIs(t, pg.Ping(context.Background()), ErrNotConfigured)
	pg.Close()
}

func TestPostgres_BadDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{DSN: "://nope"}, zap.NewNop())
	require.Error(t, err)
}

func TestRedis(t *testing.T) {
	srv := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), config.RedisConfig{Addr: srv.Addr()}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, r.Enabled())
	require.NoError(t, r.Ping(context.Background()))

	srv.Close()
	require.Error(t, r.Ping(context.Background()))
	r.Close()
}

func TestRedis_Unreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := NewRedis(context.Background(), config.RedisConfig{Addr: addr}, zap.NewNop())
	require.Error(t, err)

	var missing *Redis
	require.ErrorIs(t, missing.Ping(context.Background()), ErrNotConfigured)
}
