package redis

import (
	"audit-service/internal/config"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := Connect(context.Background(), config.RedisConfig{Host: mr.Host(), Port: mr.Port()}, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.GetClient().Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port := mr.Host(), mr.Port()
	mr.Close()

	_, err := Connect(context.Background(), config.RedisConfig{Host: host, Port: port}, nil)
	assert.Error(t, err)
}
