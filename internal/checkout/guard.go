package checkout

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

const defaultInFlightTTL = 30 * time.Second

// Guard admits one order submission per cashier session at a time. Acquire
// fails fast with an in-flight error when a submission is already running;
// the returned release must be called once the submission finished.
// InFlight lets the cart refuse writes while a submission runs.
type Guard interface {
	Acquire(ctx context.Context, sessionKey string) (release func(), err error)
	InFlight(ctx context.Context, sessionKey string) (bool, error)
}

func errInFlight() error {
	return pkgerrors.New(pkgerrors.CodeInFlight, "an order for this cart is already being submitted")
}

// MemoryGuard keeps the submitting flags in process.
type MemoryGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inFlight: map[string]struct{}{}}
}

func (g *MemoryGuard) Acquire(ctx context.Context, sessionKey string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[sessionKey]; busy {
		return nil, errInFlight()
	}
	g.inFlight[sessionKey] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, sessionKey)
			g.mu.Unlock()
		})
	}, nil
}

func (g *MemoryGuard) InFlight(ctx context.Context, sessionKey string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, busy := g.inFlight[sessionKey]
	return busy, nil
}

// redisStore defines the operations used by RedisGuard.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	InFlightKey(sessionKey string) string
}

// RedisGuard shares the submitting flag between terminal instances with
// SETNX + TTL. The TTL bounds how long a crashed instance can block a session.
type RedisGuard struct {
	client redisStore
	ttl    time.Duration
	isNil  func(error) bool
	logg   *logger.Logger
}

// NewRedisGuard constructs a Redis-backed guard. Release failures are logged
// through logg when it is set.
func NewRedisGuard(client redisStore, ttl time.Duration, isNil func(error) bool, logg *logger.Logger) (*RedisGuard, error) {
	if client == nil {
		return nil, errors.New("redis client required for checkout guard")
	}
	if isNil == nil {
		return nil, errors.New("missing-key matcher required for checkout guard")
	}
	if ttl <= 0 {
		ttl = defaultInFlightTTL
	}
	return &RedisGuard{client: client, ttl: ttl, isNil: isNil, logg: logg}, nil
}

func (g *RedisGuard) Acquire(ctx context.Context, sessionKey string) (func(), error) {
	key := g.client.InFlightKey(sessionKey)
	owner := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, owner, g.ttl)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("setnx: %w", err), "checkout guard unavailable")
	}
	if !ok {
		return nil, errInFlight()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be canceled
			if err := g.release(context.WithoutCancel(ctx), key, owner); err != nil && g.logg != nil {
				g.logg.Error(g.logg.WithField(ctx, "guard_key", key), "failed to release checkout guard", err)
			}
		})
	}, nil
}

func (g *RedisGuard) InFlight(ctx context.Context, sessionKey string) (bool, error) {
	if _, err := g.client.Get(ctx, g.client.InFlightKey(sessionKey)); err != nil {
		if g.isNil(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("get: %w", err), "checkout guard unavailable")
	}
	return true, nil
}

// release frees the flag only if this submission still owns it.
func (g *RedisGuard) release(ctx context.Context, key, owner string) error {
	value, err := g.client.Get(ctx, key)
	if err != nil {
		if g.isNil(err) {
			return nil
		}
		return fmt.Errorf("read guard owner: %w", err)
	}
	if value != owner {
		return nil
	}
	if err := g.client.Del(ctx, key); err != nil {
		return fmt.Errorf("delete guard: %w", err)
	}
	return nil
}
