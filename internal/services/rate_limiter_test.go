package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taxi-tariff/internal/config"
	"taxi-tariff/internal/redis"
)

type fakeRateRedis struct {
	data   map[string]int64
	expire map[string]time.Time
	getErr error
}

func newFakeRateRedis() *fakeRateRedis {
	return &fakeRateRedis{
		data:   make(map[string]int64),
		expire: make(map[string]time.Time),
	}
}

func (f *fakeRateRedis) Incr(ctx context.Context, key string) (int64, error) {
	f.cleanup()
	val := f.data[key] + 1
	f.data[key] = val
	return val, nil
}

func (f *fakeRateRedis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	f.expire[key] = time.Now().Add(ttl)
	return nil
}

func (f *fakeRateRedis) TTL(ctx context.Context, key string) (time.Duration, error) {
	f.cleanup()
	if exp, ok := f.expire[key]; ok {
		return time.Until(exp), nil
	}
	return 0, nil
}

func (f *fakeRateRedis) GetInt(ctx context.Context, key string) (int64, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	f.cleanup()
	val, ok := f.data[key]
	if !ok {
		return 0, fmt.Errorf("key %s: %w", key, redis.ErrCacheMiss)
	}
	return val, nil
}

func (f *fakeRateRedis) cleanup() {
	now := time.Now()
	for k, exp := range f.expire {
		if now.After(exp) {
			delete(f.expire, k)
			delete(f.data, k)
		}
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	limiter := &RateLimiter{
		redis:   newFakeRateRedis(),
		log:     newTestLogger(),
		enabled: true,
		limit:   2,
		window:  time.Second,
		prefix:  "test",
	}

	ctx := context.Background()
	expect := []struct {
		allowed   bool
		remaining int64
	}{
		{true, 1},
		{true, 0},
		{false, 0},
	}
	for i, exp := range expect {
		d, err := limiter.Allow(ctx, "voss-taxi/1.2.3.4")
		if err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
		if d.Allowed != exp.allowed || d.Remaining != exp.remaining || d.Limit != 2 {
			t.Fatalf("request %d: got %+v, want allowed=%v remaining=%d", i+1, d, exp.allowed, exp.remaining)
		}
		if d.ResetAt.IsZero() {
			t.Fatalf("request %d: expected reset time", i+1)
		}
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := &RateLimiter{redis: newFakeRateRedis(), log: newTestLogger(), enabled: true, limit: 1, window: time.Minute, prefix: "rl"}
	ctx := context.Background()

	if d, _ := limiter.Allow(ctx, "a/1.1.1.1"); !d.Allowed {
		t.Fatalf("first key should be allowed")
	}
	if d, _ := limiter.Allow(ctx, "b/1.1.1.1"); !d.Allowed {
		t.Fatalf("second tenant should have its own window")
	}
}

func TestRateLimiter_NewDisabled(t *testing.T) {
	if limiter := NewRateLimiter(nil, nil, nil); limiter.Enabled() {
		t.Fatalf("expected limiter disabled without cfg/redis")
	}
	cfg := &config.RateLimitConfig{Enabled: false}
	if limiter := NewRateLimiter(nil, nil, cfg); limiter.Enabled() {
		t.Fatalf("expected limiter disabled when cfg disabled")
	}

	d, err := NewRateLimiter(nil, nil, nil).Allow(context.Background(), "k")
	if err != nil || !d.Allowed {
		t.Fatalf("disabled limiter must allow, got %+v %v", d, err)
	}
}

func TestRateLimiter_NewEnabled(t *testing.T) {
	cfg := &config.RateLimitConfig{Enabled: true, Requests: 10, WindowSeconds: 60, KeyPrefix: "p"}
	limiter := NewRateLimiter(&redis.Client{}, nil, cfg)
	if !limiter.Enabled() || limiter.Limit() != 10 || limiter.Window() != time.Minute {
		t.Fatalf("expected enabled limiter with limit 10 and 1m window")
	}
}

func TestRateLimiter_Usage(t *testing.T) {
	limiter := &RateLimiter{redis: newFakeRateRedis(), log: newTestLogger(), enabled: true, limit: 3, window: time.Minute, prefix: "rl"}
	ctx := context.Background()

	usage, err := limiter.Usage(ctx, "ip1")
	if err != nil || usage.Used != 0 || usage.Remaining != 3 || usage.ResetAt != nil {
		t.Fatalf("unexpected empty usage: %+v err=%v", usage, err)
	}

	_, _ = limiter.Allow(ctx, "ip1")
	_, _ = limiter.Allow(ctx, "ip1")

	usage, err = limiter.Usage(ctx, "ip1")
	if err != nil || usage.Used != 2 || usage.Remaining != 1 || usage.ResetAt == nil {
		t.Fatalf("unexpected usage: %+v err=%v", usage, err)
	}
}

func TestRateLimiter_UsageError(t *testing.T) {
	fake := newFakeRateRedis()
	fake.getErr = errors.New("connection refused")
	limiter := &RateLimiter{redis: fake, log: newTestLogger(), enabled: true, limit: 3, window: time.Minute, prefix: "rl"}

	if _, err := limiter.Usage(context.Background(), "ip1"); err == nil {
		t.Fatalf("expected redis error to propagate")
	}
}

func TestExtractClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "10.0.0.1")
	if ip := ExtractClientIP(r); ip != "10.0.0.1" {
		t.Fatalf("expected real ip, got %s", ip)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "10.0.0.2, 10.0.0.3")
	if ip := ExtractClientIP(r); ip != "10.0.0.2" {
		t.Fatalf("expected first forwarded ip, got %s", ip)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.0.1:1234"
	if ip := ExtractClientIP(r); ip != "192.168.0.1" {
		t.Fatalf("expected remote addr ip, got %s", ip)
	}
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.0.1:1234"
	if key := ClientKey(r, "voss-taxi"); key != "voss-taxi/192.168.0.1" {
		t.Fatalf("unexpected key %s", key)
	}
	if key := ClientKey(r, ""); key != "192.168.0.1" {
		t.Fatalf("unexpected key without tenant %s", key)
	}
}
