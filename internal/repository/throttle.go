package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisThrottleGate - шлюз дросселирования дорогой аналитики на Redis
// счетчиках с окном. Хэндлер опрашивает его до запуска запроса.
type RedisThrottleGate struct {
	redisClient *redis.Client
	window      time.Duration
	limit       int
}

func NewRedisThrottleGate(client *redis.Client, window time.Duration, limit int) *RedisThrottleGate {
	return &RedisThrottleGate{
		redisClient: client,
		window:      window,
		limit:       limit,
	}
}

// Allow инкрементирует счетчик вызывающего и сообщает, попадает ли он в лимит
func (g *RedisThrottleGate) Allow(ctx context.Context, callerID string) (bool, error) {
	key := fmt.Sprintf("throttle:analytics:%s", callerID)

	count, err := g.redisClient.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment throttle counter: %w", err)
	}
	if count == 1 {
		// Первый вызов в окне задает срок жизни счетчика
		if err := g.redisClient.Expire(ctx, key, g.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set throttle window: %w", err)
		}
	}
	return count <= int64(g.limit), nil
}
