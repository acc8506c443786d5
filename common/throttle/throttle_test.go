package throttle

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

type fakeCounter struct {
	hits    map[string]int64
	expires map[string]time.Duration
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{hits: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.hits[key]++
	return redis.NewIntResult(f.hits[key], nil)
}

func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.expires[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeCounter) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.hits, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

var _ = Describe("Throttler", func() {

	var ctx = context.Background()

	Describe("REDIS", func() {

		var (
			counter   *fakeCounter
			throttler *RedisThrottler
		)

		BeforeEach(func() {
			counter = newFakeCounter()
			throttler = NewRedisThrottler(counter, "resend-otp", time.Minute, 2)
		})

		It("should open the window on the first hit", func() {
			allowed, err := throttler.Allow(ctx, "catelyn@stark.io")
			Expect(err).To(BeNil())
			Expect(allowed).To(BeTrue())
			Expect(counter.expires["autismart:throttle:resend-otp:catelyn@stark.io"]).To(Equal(time.Minute))
		})

		It("should refuse once the window is spent", func() {
			allowed, _ := throttler.Allow(ctx, "catelyn@stark.io")
			Expect(allowed).To(BeTrue())
			allowed, _ = throttler.Allow(ctx, "catelyn@stark.io")
			Expect(allowed).To(BeTrue())
			allowed, _ = throttler.Allow(ctx, "catelyn@stark.io")
			Expect(allowed).To(BeFalse())

			allowed, _ = throttler.Allow(ctx, "lysa@arryn.io")
			Expect(allowed).To(BeTrue())
		})

		It("should start over after a reset", func() {
			throttler.Allow(ctx, "catelyn@stark.io")
			throttler.Allow(ctx, "catelyn@stark.io")
			Expect(throttler.Reset(ctx, "catelyn@stark.io")).To(Succeed())

			allowed, _ := throttler.Allow(ctx, "catelyn@stark.io")
			Expect(allowed).To(BeTrue())
		})
	})

	Describe("MEMORY", func() {

		var (
			now       time.Time
			throttler *MemoryThrottler
		)

		BeforeEach(func() {
			now = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
			throttler = NewMemoryThrottler(time.Minute, 2)
			throttler.now = func() time.Time { return now }
		})

		It("should refuse once the window is spent", func() {
			for i := 0; i < 2; i++ {
				allowed, err := throttler.Allow(ctx, "otp-check:catelyn@stark.io")
				Expect(err).To(BeNil())
				Expect(allowed).To(BeTrue())
			}
			allowed, _ := throttler.Allow(ctx, "otp-check:catelyn@stark.io")
			Expect(allowed).To(BeFalse())

			allowed, _ = throttler.Allow(ctx, "otp-check:lysa@arryn.io")
			Expect(allowed).To(BeTrue())
		})

		It("should open a new window once the previous one expired", func() {
			throttler.Allow(ctx, "login:catelyn@stark.io")
			throttler.Allow(ctx, "login:catelyn@stark.io")
			now = now.Add(time.Minute)

			allowed, _ := throttler.Allow(ctx, "login:catelyn@stark.io")
			Expect(allowed).To(BeTrue())
		})

		It("should start over after a reset", func() {
			throttler.Allow(ctx, "login:catelyn@stark.io")
			throttler.Allow(ctx, "login:catelyn@stark.io")
			Expect(throttler.Reset(ctx, "login:catelyn@stark.io")).To(Succeed())

			allowed, _ := throttler.Allow(ctx, "login:catelyn@stark.io")
			Expect(allowed).To(BeTrue())
		})

		It("should drop expired windows once it holds many keys", func() {
			throttler.windows["stale"] = memoryWindow{hits: 2, expires: now.Add(-time.Second)}
			for i := len(throttler.windows); i < sweepThreshold; i++ {
				throttler.windows[fmt.Sprintf("key-%d", i)] = memoryWindow{hits: 1, expires: now.Add(time.Minute)}
			}
			throttler.Allow(ctx, "fresh")
			Expect(throttler.windows).NotTo(HaveKey("stale"))
			Expect(throttler.windows).To(HaveKey("fresh"))
		})
	})
})
