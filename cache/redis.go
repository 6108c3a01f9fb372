package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/basecamp/logger"
)

const (
	connectAttempts = 3
	connectBackoff  = 250 * time.Millisecond
	maxBackoff      = 2 * time.Second
	maxOpFailures   = 3
	reprobeCooldown = 30 * time.Second

	defaultOpTimeout = 1 * time.Second

	tagKeyPrefix = "tag:"
)

var _ Cacher = (*RedisStore)(nil)

// A RedisStore connects to a Redis backend for best-effort caching.
//
// A RedisStore degrades rather than fails: when the backend is absent,
// slow, or erroring, every operation short-circuits to its no-op result
// and the caller's own production path carries on.
type RedisStore struct {
	client    *redis.Client
	l         logger.Logger
	state     *connState
	opTimeout time.Duration
}

// A RedisStoreOpt configures the provided *RedisStore.
type RedisStoreOpt func(*RedisStore)

// WithOpTimeout bounds each remote round-trip by d.
func WithOpTimeout(d time.Duration) RedisStoreOpt {
	return func(s *RedisStore) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

// NewRedisStore constructs a RedisStore with the options passed in
// and begins connecting to the backend out of band.
//
// NewRedisStore returns immediately; the store is usable at once and
// routes around the backend until the handshake succeeds.
func NewRedisStore(opts *redis.Options, l logger.Logger, storeOpts ...RedisStoreOpt) *RedisStore {
	s := &RedisStore{
		client:    redis.NewClient(opts),
		l:         l,
		state:     newConnState(maxOpFailures, reprobeCooldown),
		opTimeout: defaultOpTimeout,
	}
	for _, opt := range storeOpts {
		opt(s)
	}

	go s.connect(context.Background(), connectAttempts)

	return s
}

// Get retrieves the value paired to key from the connected Redis backend.
//
// Any backend error reads as a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if key == "" || !s.available() {
		return nil, false
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	b, err := s.client.Get(opCtx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}

	if err != nil {
		s.fail("get", err)
		return nil, false
	}

	s.state.markHealthy()

	return b, true
}

// Set pairs value to key in the Redis backend with the given expiry,
// associating the entry with each tag.
//
// A ttl of zero or less applies DefaultTTL.
// A failed write is dropped silently; the contract is acceleration, not durability.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) {
	if key == "" || !s.available() {
		return
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	pipe := s.client.Pipeline()
	pipe.Set(opCtx, key, value, ttl)
	for _, tag := range tags {
		pipe.SAdd(opCtx, tagKey(tag), key)
		pipe.Expire(opCtx, tagKey(tag), ttl)
	}

	if _, err := pipe.Exec(opCtx); err != nil {
		s.fail("set", err)
		return
	}

	s.state.markHealthy()
}

// Delete removes the value paired to key from the Redis backend.
func (s *RedisStore) Delete(ctx context.Context, key string) {
	if key == "" || !s.available() {
		return
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	if err := s.client.Del(opCtx, key).Err(); err != nil {
		s.fail("delete", err)
		return
	}

	s.state.markHealthy()
}

// InvalidateTag removes every entry associated with tag from the Redis backend.
func (s *RedisStore) InvalidateTag(ctx context.Context, tag string) {
	if tag == "" || !s.available() {
		return
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	keys, err := s.client.SMembers(opCtx, tagKey(tag)).Result()
	if err != nil {
		s.fail("invalidate", err)
		return
	}

	keys = append(keys, tagKey(tag))
	if err := s.client.Del(opCtx, keys...).Err(); err != nil {
		s.fail("invalidate", err)
		return
	}

	s.state.markHealthy()
}

// Probe performs one round-trip against the backend for health reporting.
//
// Probe does not consult or mutate connection state;
// the caller bounds it with its own timeout.
func (s *RedisStore) Probe(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close tears down the connection to the backend.
func (s *RedisStore) Close() error { return s.client.Close() }

// available reports whether operations may touch the backend.
//
// When the backend is unreachable, at most one background re-probe is
// launched per cooldown window; the hot path never reconnects inline.
func (s *RedisStore) available() bool {
	if s.state.available() {
		return true
	}

	if s.state.tryReprobe(time.Now()) {
		go s.connect(context.Background(), 1)
	}

	return false
}

// connect attempts a bounded number of handshakes with exponential backoff,
// marking the backend unreachable when the budget is spent.
func (s *RedisStore) connect(ctx context.Context, attempts int) {
	backoff := connectBackoff
	for i := 0; i < attempts; i++ {
		opCtx, cancel := s.opContext(ctx)
		err := s.client.Ping(opCtx).Err()
		cancel()

		if err == nil {
			s.state.markHealthy()
			s.l.Info("cache backend connected", nil)
			return
		}

		s.l.Warn(fmt.Sprintf("cache backend handshake %d/%d failed", i+1, attempts), &logger.LogContext{Error: err})

		if i < attempts-1 {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	s.state.markUnreachable(time.Now())
	s.l.Warn("cache backend unreachable, degrading to no-op", nil)
}

// fail logs one warning for the failed operation and counts it against
// the backend's health. It never escalates to the caller.
func (s *RedisStore) fail(op string, err error) {
	s.state.recordFailure(time.Now())
	s.l.Warn(fmt.Sprintf("cache %s failed", op), &logger.LogContext{Error: err})
}

func (s *RedisStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithTimeout(ctx, s.opTimeout)
}

func tagKey(tag string) string { return tagKeyPrefix + tag }
