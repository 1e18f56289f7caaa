package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/aryan0dhankhar/librarydesk/internal/reliability/circuitbreaker"
)

// Counter increments a fixed-window counter shared between replicas
type Counter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisLimiter counts requests in Redis so every replica sees the same
// totals. While Redis is failing the breaker is open and requests are
// counted by the in-process fallback instead.
type RedisLimiter struct {
	counter  Counter
	breaker  *circuitbreaker.CircuitBreaker
	fallback *Limiter
	prefix   string
	logger   *slog.Logger
}

func NewRedisLimiter(counter Counter, fallback *Limiter, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	breaker := circuitbreaker.NewCircuitBreaker(3, 1, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		logger.Warn("rate limit store state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})
	return &RedisLimiter{
		counter:  counter,
		breaker:  breaker,
		fallback: fallback,
		prefix:   "librarydesk:ratelimit:",
		logger:   logger,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 {
		return true
	}

	slot := time.Now().UnixNano() / int64(window)
	redisKey := l.prefix + key + ":" + strconv.FormatInt(slot, 10)

	var count int64
	err := l.breaker.Execute(func() error {
		callCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
		n, err := l.counter.IncrWindow(callCtx, redisKey, window)
		count = n
		return err
	})
	if err != nil {
		if err != circuitbreaker.ErrOpen {
			l.logger.Warn("rate limit store unavailable, using local counts", slog.String("error", err.Error()))
		}
		return l.fallback.Allow(ctx, key, limit, window)
	}
	return count <= int64(limit)
}
