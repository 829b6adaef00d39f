package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"taxi-tariff/internal/config"
	"taxi-tariff/internal/logger"
	"taxi-tariff/internal/redis"
)

// RateLimiter ограничивает число запросов на ключ (арендатор + IP) в фиксированном окне.
type RateLimiter struct {
	redis   rateRedis
	log     *logger.Logger
	enabled bool
	limit   int64
	window  time.Duration
	prefix  string
}

type rateRedis interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

// RateDecision описывает результат проверки лимита.
type RateDecision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RateUsage описывает текущее состояние окна.
type RateUsage struct {
	Used      int64      `json:"used"`
	Remaining int64      `json:"remaining"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

// NewRateLimiter создаёт rate limiter. Без Redis или конфигурации лимит выключен.
func NewRateLimiter(redisClient *redis.Client, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if redisClient == nil || cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		return &RateLimiter{enabled: false}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit"
	}

	return &RateLimiter{
		redis:   redisClient,
		log:     log,
		enabled: true,
		limit:   int64(cfg.Requests),
		window:  time.Duration(cfg.WindowSeconds) * time.Second,
		prefix:  prefix,
	}
}

// Allow учитывает запрос и сообщает, укладывается ли он в лимит.
func (r *RateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	if !r.enabled {
		return RateDecision{Allowed: true, Limit: r.limit, Remaining: r.limit}, nil
	}

	now := time.Now()
	redisKey := r.makeKey(key)

	count, err := r.redis.Incr(ctx, redisKey)
	if err != nil {
		return RateDecision{}, fmt.Errorf("rate limiter incr failed: %w", err)
	}

	if count == 1 {
		if err := r.redis.Expire(ctx, redisKey, r.window); err != nil {
			r.log.WithError(err).WithField("key", redisKey).Warn("failed to set rate limit ttl")
		}
	}

	ttl, err := r.redis.TTL(ctx, redisKey)
	if err != nil || ttl <= 0 {
		ttl = r.window
	}

	return RateDecision{
		Allowed:   count <= r.limit,
		Limit:     r.limit,
		Remaining: clampRemaining(r.limit - count),
		ResetAt:   now.Add(ttl),
	}, nil
}

// Usage возвращает состояние окна без учёта нового запроса.
func (r *RateLimiter) Usage(ctx context.Context, key string) (RateUsage, error) {
	if !r.enabled {
		return RateUsage{Remaining: r.limit}, nil
	}

	redisKey := r.makeKey(key)
	count, err := r.redis.GetInt(ctx, redisKey)
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return RateUsage{Remaining: r.limit}, nil
		}
		return RateUsage{}, fmt.Errorf("rate limiter usage failed: %w", err)
	}

	usage := RateUsage{Used: count, Remaining: clampRemaining(r.limit - count)}
	if ttl, err := r.redis.TTL(ctx, redisKey); err != nil {
		r.log.WithError(err).WithField("key", redisKey).Warn("failed to get rate limit ttl")
	} else if ttl > 0 {
		resetAt := time.Now().Add(ttl)
		usage.ResetAt = &resetAt
	}

	return usage, nil
}

func clampRemaining(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func (r *RateLimiter) makeKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, strings.ReplaceAll(key, ":", "_"))
}

// Limit возвращает лимит для окна.
func (r *RateLimiter) Limit() int64 {
	return r.limit
}

// Window возвращает длительность окна.
func (r *RateLimiter) Window() time.Duration {
	return r.window
}

// Enabled сообщает, включён ли rate limiting.
func (r *RateLimiter) Enabled() bool {
	return r.enabled
}

// ClientKey строит ключ лимита: арендатор и IP клиента.
func ClientKey(r *http.Request, tenantID string) string {
	ip := ExtractClientIP(r)
	if tenantID == "" {
		return ip
	}
	return tenantID + "/" + ip
}

// ExtractClientIP получает IP из заголовков или RemoteAddr.
func ExtractClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
