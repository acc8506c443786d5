package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var ErrTooManyRequests = errors.New("too many requests, please wait before trying again")

// Throttler counts hits per key inside a fixed window.
type Throttler interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func NewRedisClient(ctx context.Context, address, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        address,
		Password:    password,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}
	return rdb, nil
}

type RedisThrottler struct {
	client counter
	prefix string
	window time.Duration
	max    int64
}

func NewRedisThrottler(client counter, prefix string, window time.Duration, max int64) *RedisThrottler {
	if max <= 0 {
		max = 1
	}
	return &RedisThrottler{
		client: client,
		prefix: prefix,
		window: window,
		max:    max,
	}
}

func (t *RedisThrottler) key(key string) string {
	return "autismart:throttle:" + t.prefix + ":" + key
}

func (t *RedisThrottler) Allow(ctx context.Context, key string) (bool, error) {
	k := t.key(key)
	hits, err := t.client.Incr(ctx, k).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to count request")
	}
	if hits == 1 {
		if err := t.client.Expire(ctx, k, t.window).Err(); err != nil {
			return false, errors.Wrap(err, "failed to set throttle window")
		}
	}
	return hits <= t.max, nil
}

func (t *RedisThrottler) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.key(key)).Err()
}

// MemoryThrottler keeps its counters in process. It is used when no redis address is configured, so the
// limits apply per instance.
type MemoryThrottler struct {
	mu      sync.Mutex
	windows map[string]memoryWindow
	window  time.Duration
	max     int64
	now     func() time.Time
}

const sweepThreshold = 10000

type memoryWindow struct {
	hits    int64
	expires time.Time
}

func NewMemoryThrottler(window time.Duration, max int64) *MemoryThrottler {
	if max <= 0 {
		max = 1
	}
	return &MemoryThrottler{
		windows: map[string]memoryWindow{},
		window:  window,
		max:     max,
		now:     time.Now,
	}
}

func (t *MemoryThrottler) Allow(ctx context.Context, key string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if len(t.windows) >= sweepThreshold {
		for k, w := range t.windows {
			if !now.Before(w.expires) {
				delete(t.windows, k)
			}
		}
	}
	w, ok := t.windows[key]
	if !ok || !now.Before(w.expires) {
		w = memoryWindow{expires: now.Add(t.window)}
	}
	w.hits++
	t.windows[key] = w
	return w.hits <= t.max, nil
}

func (t *MemoryThrottler) Reset(ctx context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.windows, key)
	return nil
}
