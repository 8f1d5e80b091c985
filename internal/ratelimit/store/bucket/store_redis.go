package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"onboarding/internal/ratelimit/models"
)

// slidingWindowScript trims expired members, then admits the request if the
// window has budget. It returns {allowed, remaining, resetAtMillis}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local oldestScore = now
if oldest[2] ~= nil then
  oldestScore = tonumber(oldest[2])
end

if count < limit then
  redis.call('ZADD', key, now, member)
  redis.call('PEXPIRE', key, window)
  return {1, limit - count - 1, oldestScore + window}
end
return {0, 0, oldestScore + window}
`)

// RedisStore is a sliding window shared by every replica, kept in one sorted
// set per key and evaluated atomically in a Lua script.
type RedisStore struct {
	client redis.Scripter
	now    func() time.Time
}

// NewRedis creates a Redis-backed bucket store.
func NewRedis(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Allow records one request against key if the window still has budget.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	now := s.now()
	res, err := slidingWindowScript.Run(ctx, s.client, []string{key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("evaluate sliding window: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("evaluate sliding window: unexpected reply length %d", len(res))
	}

	resetAt := time.UnixMilli(res[2])
	result := &models.RateLimitResult{
		Allowed:   res[0] == 1,
		Limit:     limit,
		Remaining: int(res[1]),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = models.RetryAfterSeconds(resetAt, now)
	}
	return result, nil
}
