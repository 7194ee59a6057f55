package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// allowScript trims the window, counts it and records the hit in one step.
// KEYS[1] set; ARGV floor, now, limit, member, ttl in ms.
var allowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// RateLimiter is a sliding-window limiter backed by one sorted set per key.
// A nil *RateLimiter allows everything.
type RateLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRateLimiter connects to redisURL.
func NewRateLimiter(redisURL string) (*RateLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRateLimiterWithClient(client), nil
}

func NewRateLimiterWithClient(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, prefix: "ratelimit:", now: time.Now}
}

func (r *RateLimiter) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}

// Allow records one hit for key and reports whether it fits in limit hits per
// window. Rejected hits are not recorded.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r == nil {
		return true, nil
	}
	k := r.prefix + key
	now := r.now()
	floor := now.Add(-window).UnixMicro()

	allowed, err := allowScript.Run(ctx, r.client, []string{k},
		floor, now.UnixMicro(), limit, uuid.NewString(), window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return allowed == 1, nil
}

// Limit throttles an action per authenticated user. It must run after
// Required. Redis failures let the request through.
func (r *RateLimiter) Limit(action string, limit int, window time.Duration, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if r == nil || !ok {
			c.Next()
			return
		}

		key := action + ":" + strconv.Itoa(userID)
		allowed, err := r.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Printf("⚠️ rate limiter unavailable: %v", err)
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": message})
			return
		}
		c.Next()
	}
}
