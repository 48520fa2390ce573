package checkout

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissingKey = errors.New("missing key")

type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	setErr  error
	getErr  error
	deleted []string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setErr != nil {
		return false, f.setErr
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", errMissingKey
	}
	return v, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeRedis) InFlightKey(sessionKey string) string {
	return "kasir:checkout_inflight:" + sessionKey
}

func isMissingKey(err error) bool {
	return errors.Is(err, errMissingKey)
}

func TestRedisGuardSingleFlight(t *testing.T) {
	t.Parallel()

	fake := newFakeRedis()
	guard, err := NewRedisGuard(fake, 15*time.Second, isMissingKey, nil)
	require.NoError(t, err)

	release, err := guard.Acquire(context.Background(), "cashier-1")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, fake.ttls["kasir:checkout_inflight:cashier-1"])

	_, err = guard.Acquire(context.Background(), "cashier-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInFlight))

	release()
	assert.Equal(t, []string{"kasir:checkout_inflight:cashier-1"}, fake.deleted)

	release2, err := guard.Acquire(context.Background(), "cashier-1")
	require.NoError(t, err)
	release2()
}

func TestRedisGuardReleaseKeepsForeignOwner(t *testing.T) {
	t.Parallel()

	fake := newFakeRedis()
	guard, err := NewRedisGuard(fake, time.Second, isMissingKey, nil)
	require.NoError(t, err)

	release, err := guard.Acquire(context.Background(), "cashier-1")
	require.NoError(t, err)

	// the flag expired and another instance took it over
	fake.values["kasir:checkout_inflight:cashier-1"] = "someone-else"
	release()

	assert.Equal(t, "someone-else", fake.values["kasir:checkout_inflight:cashier-1"])
	assert.Empty(t, fake.deleted)
}

func TestRedisGuardSetNXFailureIsDependencyError(t *testing.T) {
	t.Parallel()

	fake := newFakeRedis()
	fake.setErr = errors.New("i/o timeout")
	guard, err := NewRedisGuard(fake, time.Second, isMissingKey, nil)
	require.NoError(t, err)

	_, err = guard.Acquire(context.Background(), "cashier-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNewRedisGuardDefaults(t *testing.T) {
	t.Parallel()

	_, err := NewRedisGuard(nil, time.Second, isMissingKey, nil)
	assert.Error(t, err)

	guard, err := NewRedisGuard(newFakeRedis(), 0, isMissingKey, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultInFlightTTL, guard.ttl)
}

func TestMemoryGuardReportsInFlight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	guard := NewMemoryGuard()

	busy, err := guard.InFlight(ctx, "cashier-1")
	require.NoError(t, err)
	assert.False(t, busy)

	release, err := guard.Acquire(ctx, "cashier-1")
	require.NoError(t, err)
	busy, err = guard.InFlight(ctx, "cashier-1")
	require.NoError(t, err)
	assert.True(t, busy)

	release()
	busy, err = guard.InFlight(ctx, "cashier-1")
	require.NoError(t, err)
	assert.False(t, busy)
}

func TestRedisGuardReportsInFlight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeRedis()
	guard, err := NewRedisGuard(fake, time.Second, isMissingKey, nil)
	require.NoError(t, err)

	busy, err := guard.InFlight(ctx, "cashier-1")
	require.NoError(t, err)
	assert.False(t, busy)

	release, err := guard.Acquire(ctx, "cashier-1")
	require.NoError(t, err)
	busy, err = guard.InFlight(ctx, "cashier-1")
	require.NoError(t, err)
	assert.True(t, busy)
	release()

	fake.getErr = errors.New("connection reset")
	_, err = guard.InFlight(ctx, "cashier-1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestRedisGuardLogsReleaseFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	fake := newFakeRedis()
	guard, err := NewRedisGuard(fake, time.Second, isMissingKey, logg)
	require.NoError(t, err)

	release, err := guard.Acquire(context.Background(), "cashier-1")
	require.NoError(t, err)

	fake.getErr = errors.New("connection reset")
	release()

	assert.Contains(t, buf.String(), "failed to release checkout guard")
	assert.Contains(t, buf.String(), "connection reset")
	assert.Contains(t, buf.String(), "kasir:checkout_inflight:cashier-1")
}
