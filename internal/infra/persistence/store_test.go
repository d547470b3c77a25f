package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolConfigDefaults(t *testing.T) {
	cfg := PoolConfig{DSN: "  postgres://localhost/db  ", MinConns: 10}
	cfg.applyDefaults()
	require.Equal(t, "postgres://localhost/db", cfg.DSN)
	require.Equal(t, int32(4), cfg.MaxConns)
	require.Equal(t, int32(4), cfg.MinConns)
	require.Equal(t, 30*time.Minute, cfg.MaxConnLifetime)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), PoolConfig{})
	require.Error(t, err)
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	require.Nil(t, s.Pool())
	s.Close()
	require.Nil(t, NewStore(nil).Pool())
}
