package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Mel4sa/WORKNEST-sub000/logging"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slices"
	"golang.org/x/time/rate"
)

// Limiter decides whether another request for key fits in the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiter keeps one token bucket per key in process memory. Idle
// buckets expire so the map does not grow without bound.
type LocalLimiter struct {
	perMinute int
	buckets   *cache.Cache
}

func NewLocalLimiter(perMinute int) *LocalLimiter {
	return &LocalLimiter{
		perMinute: perMinute,
		buckets:   cache.New(10*time.Minute, 5*time.Minute),
	}
}

func (l *LocalLimiter) bucket(key string) *rate.Limiter {
	if v, ok := l.buckets.Get(key); ok {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
	if err := l.buckets.Add(key, limiter, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if v, ok := l.buckets.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.bucket(key).Allow(), nil
}

// RedisLimiter is a fixed-window counter shared by every instance that
// points at the same Redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(redisURL string, perMinute int) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &RedisLimiter{
		client: client,
		limit:  perMinute,
		window: time.Minute,
		prefix: "worknest:ratelimit",
		now:    time.Now,
	}, nil
}

func (l *RedisLimiter) windowKey(key string) string {
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, l.now().Unix()/int64(l.window.Seconds()))
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := l.windowKey(key)
	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(l.limit), nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIP returns the socket address unless the peer is one of the trusted
// proxies. Behind a trusted proxy the X-Forwarded-For chain is read right to
// left and the first hop that is not itself a trusted proxy wins.
func ClientIP(r *http.Request, trustedProxies []string) string {
	peer := remoteHost(r)
	if !slices.Contains(trustedProxies, peer) {
		return peer
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop != "" && !slices.Contains(trustedProxies, hop) {
			return hop
		}
	}
	return peer
}

// RateLimit answers 429 once the client IP exceeds the limiter's budget.
// If the limiter itself fails the request is let through.
func RateLimit(l Limiter, scope string, trustedProxies []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustedProxies)
			allowed, err := l.Allow(r.Context(), scope+":"+ip)
			if err != nil {
				logging.Logger.Warnf("Event ID: RATE_LIMIT_ERROR, Description: Limiter failed for %s, allowing request: %v", ip, err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				logging.Logger.Warnf("Event ID: RATE_LIMIT_EXCEEDED, Description: %s exceeded the %s limit on %s %s", ip, scope, r.Method, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				jsonError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
