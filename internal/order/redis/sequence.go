package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis issues the human-readable order numbers: a date-scoped counter so
// numbers read ORD-20250131-0042 and restart at 1 each day.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client, Logger: log.Default()}
}

// Keys expire two days out: long enough to survive a midnight race, short
// enough not to accumulate.
const sequenceTTL = 48 * time.Hour

func (r *Redis) NextOrderNumber() (string, error) {
	ctx := context.Background()
	day := time.Now().UTC().Format("20060102")
	key := "order_seq:" + day

	n, err := r.Client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("order sequence incr failed: %w", err)
	}
	if n == 1 {
		if err := r.Client.Expire(ctx, key, sequenceTTL).Err(); err != nil {
			r.Logger.Printf("REDIS: failed to set TTL on %s: %v", key, err)
		}
	}

	return fmt.Sprintf("ORD-%s-%04d", day, n), nil
}
