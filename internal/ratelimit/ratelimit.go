package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenBucketLua = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

if rate <= 0 or burst <= 0 then
  return {1, 0}
end

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = burst
end
if ts == nil then
  ts = now
end

local delta = math.max(0, now - ts)
tokens = math.min(burst, tokens + (delta * rate) / 1000.0)

local allowed = tokens >= requested
local wait_ms = 0
if allowed then
  tokens = tokens - requested
else
  wait_ms = math.ceil((requested - tokens) * 1000.0 / rate)
end

redis.call("HMSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, math.ceil((burst / rate) * 1000.0 * 2))

return {allowed and 1 or 0, wait_ms}
`

const DefaultPrefix = "taskmanager:ratelimit:otp:"

// Limiter - token bucket в redis, один бакет на ключ (email)
type Limiter struct {
	rdb    *redis.Client
	prefix string
	rate   float64
	burst  float64
	script *redis.Script
	now    func() time.Time
}

func NewLimiter(rdb *redis.Client, prefix string, rate, burst float64) *Limiter {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Limiter{
		rdb:    rdb,
		prefix: prefix,
		rate:   rate,
		burst:  burst,
		script: redis.NewScript(tokenBucketLua),
		now:    time.Now,
	}
}

// Allow не блокирует: при отказе возвращает, сколько ждать до следующего токена
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l == nil || l.rate <= 0 || l.burst <= 0 {
		return true, 0, nil
	}

	res, err := l.script.Run(ctx, l.rdb, []string{l.prefix + key}, l.rate, l.burst, l.now().UnixMilli(), 1).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimit eval: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 2 {
		return false, 0, fmt.Errorf("ratelimit invalid result")
	}

	allowed := toInt64(values[0]) == 1
	wait := time.Duration(toInt64(values[1])) * time.Millisecond
	return allowed, wait, nil
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if parsed, err := strconv.ParseInt(t, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}
