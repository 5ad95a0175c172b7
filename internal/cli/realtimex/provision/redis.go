package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pixie-sh/errors-go"

	"github.com/therealtimex/realtimex-frappe/internal/cli/realtimex/resolve"
)

const redisPingTimeout = 5 * time.Second

// CheckRedis pings a single Redis instance.
func CheckRedis(ctx context.Context, host string, port int) error {
	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", host, port),
	})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis %s:%d unreachable", host, port)
	}
	return nil
}

// CheckRedisServices pings both the cache and queue instances.
func CheckRedisServices(ctx context.Context, cc resolve.ConnectionConfig) error {
	if err := CheckRedis(ctx, cc.RedisHost, cc.RedisCachePort); err != nil {
		return errors.Wrap(err, "redis cache check failed")
	}
	if err := CheckRedis(ctx, cc.RedisHost, cc.RedisQueuePort); err != nil {
		return errors.Wrap(err, "redis queue check failed")
	}
	return nil
}
