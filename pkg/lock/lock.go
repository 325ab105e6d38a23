package lock

import (
	"context"
	"errors"
	"time"

	"smallbiznis-rewards/pkg/rediskey"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("lock",
	fx.Provide(NewRedsync, NewLocker),
)

// ErrLocked is returned when another holder owns the lock.
var ErrLocked = errors.New("lock: already held")

// Locker runs fn while holding the named lock.
type Locker interface {
	WithLock(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error
}

func NewRedsync(rdb *redis.Client) *redsync.Redsync {
	return redsync.New(goredis.NewPool(rdb))
}

type redsyncLocker struct {
	rs *redsync.Redsync
}

func NewLocker(rs *redsync.Redsync) Locker {
	return &redsyncLocker{rs: rs}
}

func (l *redsyncLocker) WithLock(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(rediskey.BuildLockKey(name),
		redsync.WithExpiry(ttl),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
			return ErrLocked
		}
		return err
	}

	defer func() {
		if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
			zap.L().Warn("failed to release lock", zap.String("name", name), zap.Error(err))
		}
	}()

	return fn(ctx)
}
