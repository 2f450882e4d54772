package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lotmarket/auction-api/internal/core/ports"
)

const (
	lockKeyPrefix  = "lot:lock:"
	releaseTimeout = 2 * time.Second
	defaultRetry   = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another instance is never released by us.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`

// Locker is a distributed per-lot lock for multi-instance deployments.
// Key format: lot:lock:<lot_public_id>
type Locker struct {
	client   redis.Cmdable
	ttl      time.Duration
	wait     time.Duration
	retry    time.Duration
	log      zerolog.Logger
	newToken func() string
}

// NewLocker returns a Locker. ttl bounds how long a crashed holder can block
// a lot; wait bounds how long Lock retries before ports.ErrLockTimeout.
func NewLocker(client redis.Cmdable, ttl, wait time.Duration, log zerolog.Logger) *Locker {
	return &Locker{
		client:   client,
		ttl:      ttl,
		wait:     wait,
		retry:    defaultRetry,
		log:      log,
		newToken: uuid.NewString,
	}
}

func (l *Locker) Lock(ctx context.Context, lotID string) (func(), error) {
	key := lockKeyPrefix + lotID
	token := l.newToken()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lot lock: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ports.ErrLockTimeout
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		l.log.Warn().Err(err).Str("key", key).Msg("failed to release lot lock")
	}
}
