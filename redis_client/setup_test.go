package redis_client

import (
	"context"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedisConfigLogFields_RedactsPassword(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	config := Config{Host: "127.0.0.1", Port: "6379", Password: "super-secret", DB: 2}

	zap.New(core).Info("x", redisConfigLogFields(config)...)
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["password"])
	assert.Equal(t, "127.0.0.1:6379", fields["addr"])
	assert.Equal(t, int64(2), fields["db"])
}

func TestRedactedPassword_Empty(t *testing.T) {
	assert.Equal(t, "<empty>", redactedPassword(""))
}

func integrationRedisConfig(t *testing.T) Config {
	t.Helper()

	addr := strings.TrimSpace(os.Getenv("REDIS_TEST_ADDR"))
	if addr == "" {
		t.Skip("set REDIS_TEST_ADDR to run redis integration tests")
	}
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err, "invalid REDIS_TEST_ADDR %q", addr)

	return Config{
		Host:        host,
		Port:        port,
		Password:    os.Getenv("REDIS_TEST_PASSWORD"),
		DialTimeout: 5 * time.Second,
	}
}

func TestNewRedis_ConnectionSuccess(t *testing.T) {
	config := integrationRedisConfig(t)
	core, logs := observer.New(zap.InfoLevel)

	client, err := NewRedis(context.Background(), config, zap.New(core))
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 1, logs.FilterMessage("redis connected").Len())
}

func TestNewRedis_ConnectionFailure_UnreachablePort(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewRedis(ctx, Config{Host: "127.0.0.1", Port: "1", DialTimeout: time.Second}, nil)
	assert.Error(t, err)
}
