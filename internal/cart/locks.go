package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
)

const (
	defaultLockTTL   = time.Minute
	defaultLockWait  = 5 * time.Second
	lockPollInterval = 25 * time.Millisecond
)

// Locker serializes writers of one session's cart. The returned unlock must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, sessionKey string) (unlock func(), err error)
}

// sessionLocks hands out one mutex per session key and forgets it once no
// caller holds or waits on it.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

// NewMemoryLocker serializes session writers inside this process.
func NewMemoryLocker() Locker {
	return newSessionLocks()
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: map[string]*refLock{}}
}

func (s *sessionLocks) Lock(ctx context.Context, key string) (func(), error) {
	return s.lock(key), nil
}

func (s *sessionLocks) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &refLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

type redisLockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartLockKey(sessionKey string) string
}

// RedisLockerParams configures the cross-instance session lock.
type RedisLockerParams struct {
	Client redisLockStore
	IsNil  func(error) bool
	Logger *logger.Logger
	// TTL bounds how long a crashed instance can hold a session.
	TTL time.Duration
	// Wait bounds how long a writer queues behind another instance.
	Wait time.Duration
}

// RedisLocker serializes session writers across terminal instances with an
// owner-stamped SETNX key.
type RedisLocker struct {
	client redisLockStore
	isNil  func(error) bool
	logg   *logger.Logger
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

func NewRedisLocker(params RedisLockerParams) (*RedisLocker, error) {
	if params.Client == nil {
		return nil, errors.New("redis client required for cart locker")
	}
	if params.IsNil == nil {
		return nil, errors.New("missing-key matcher required for cart locker")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	wait := params.Wait
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &RedisLocker{
		client: params.Client,
		isNil:  params.IsNil,
		logg:   params.Logger,
		ttl:    ttl,
		wait:   wait,
		poll:   lockPollInterval,
	}, nil
}

func (l *RedisLocker) Lock(ctx context.Context, sessionKey string) (func(), error) {
	key := l.client.CartLockKey(sessionKey)
	owner := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, key, owner, l.ttl)
		if err != nil && waitCtx.Err() == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("setnx: %w", err), "cart lock unavailable")
		}
		if ok {
			break
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is being updated by another request, try again")
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be canceled
			if err := l.release(context.WithoutCancel(ctx), key, owner); err != nil && l.logg != nil {
				l.logg.Error(l.logg.WithField(ctx, "lock_key", key), "failed to release cart lock", err)
			}
		})
	}, nil
}

// release frees the lock only if this writer still owns it.
func (l *RedisLocker) release(ctx context.Context, key, owner string) error {
	value, err := l.client.Get(ctx, key)
	if err != nil {
		if l.isNil(err) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != owner {
		return nil
	}
	if err := l.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}
