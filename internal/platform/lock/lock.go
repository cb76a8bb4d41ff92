// Package lock serialises slot generation runs across processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrLocked is returned by Acquire when another holder owns the key.
var ErrLocked = errors.New("lock is held by another run")

// Lease is a held lock. Release is safe to call more than once.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive, TTL-bounded leases on a key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// ---------------------------------------------------------------------------
// Redis
// ---------------------------------------------------------------------------

// releaseScript deletes the key only while it still carries our token, so a
// lease that outlived its TTL cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	logger zerolog.Logger
}

func NewRedisLocker(client redis.UniversalClient, logger zerolog.Logger) *RedisLocker {
	return &RedisLocker{client: client, prefix: "nobat:lock:", logger: logger}
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	token := uuid.NewString()
	fullKey := l.prefix + key

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	l.logger.Debug().Str("key", fullKey).Dur("ttl", ttl).Msg("lock acquired")
	return &redisLease{locker: l, key: fullKey, token: token}, nil
}

type redisLease struct {
	locker *RedisLocker
	key    string
	token  string
	once   sync.Once
	err    error
}

func (r *redisLease) Release(ctx context.Context) error {
	r.once.Do(func() {
		n, err := releaseScript.Run(ctx, r.locker.client, []string{r.key}, r.token).Int()
		if err != nil {
			r.err = fmt.Errorf("release lock %s: %w", r.key, err)
			return
		}
		if n == 0 {
			r.locker.logger.Warn().Str("key", r.key).Msg("lock expired before release")
		}
	})
	return r.err
}

// ---------------------------------------------------------------------------
// In-process
// ---------------------------------------------------------------------------

// LocalLocker is used when no Redis is configured; it only excludes runs
// within one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]localEntry
	now  func() time.Time
}

type localEntry struct {
	token   string
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localEntry), now: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, ErrLocked
	}
	token := uuid.NewString()
	l.held[key] = localEntry{token: token, expires: now.Add(ttl)}
	return &localLease{locker: l, key: key, token: token}, nil
}

type localLease struct {
	locker *LocalLocker
	key    string
	token  string
}

func (r *localLease) Release(context.Context) error {
	r.locker.mu.Lock()
	defer r.locker.mu.Unlock()
	if e, ok := r.locker.held[r.key]; ok && e.token == r.token {
		delete(r.locker.held, r.key)
	}
	return nil
}
