package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	orderredis "ms-marketplace/internal/order/redis"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestOrderNumberSequence exercises the sequencer against a real Redis
// container.
func TestOrderNumberSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:latest",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()

	seq := orderredis.NewRedis(client)
	day := time.Now().UTC().Format("20060102")

	// Numbers are sequential within the day.
	first, err := seq.NextOrderNumber()
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ORD-%s-0001", day), first)

	second, err := seq.NextOrderNumber()
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ORD-%s-0002", day), second)

	// The counter key carries a TTL so stale days clean themselves up.
	ttl, err := client.TTL(ctx, "order_seq:"+day).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0), "Expected a TTL on the sequence key")
}
