package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Store keeps one cart per cashier session. Load returns an empty ledger when
// the session has no cart yet or it expired.
type Store interface {
	Load(ctx context.Context, sessionKey string) (*Ledger, error)
	Save(ctx context.Context, sessionKey string, ledger *Ledger) error
	Delete(ctx context.Context, sessionKey string) error
}

type memoryEntry struct {
	snapshot  Snapshot
	expiresAt time.Time
}

// MemoryStore keeps carts in process. Entries are copied in and out so a
// ledger mutated by a failed operation is never observed by other callers.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore returns a store whose carts expire ttl after their last save.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Load(ctx context.Context, sessionKey string) (*Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionKey]
	if !ok {
		return NewLedger(), nil
	}
	if s.ttl > 0 && !s.now().Before(entry.expiresAt) {
		delete(s.entries, sessionKey)
		return NewLedger(), nil
	}
	return Restore(entry.snapshot), nil
}

func (s *MemoryStore) Save(ctx context.Context, sessionKey string, ledger *Ledger) error {
	if ledger == nil {
		return fmt.Errorf("nil ledger for session %q", sessionKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired()
	s.entries[sessionKey] = memoryEntry{snapshot: ledger.Snapshot(), expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionKey)
	return nil
}

// Sweep drops expired sessions and reports how many were removed. Expiry is
// also enforced on access; Sweep reclaims memory held by idle terminals.
func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.evictExpired(), nil
}

func (s *MemoryStore) evictExpired() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	evicted := 0
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			evicted++
		}
	}
	return evicted
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionKey string) string
}

// RedisStore keeps carts as JSON snapshots so several terminal instances can
// serve the same cashier.
type RedisStore struct {
	client redisStore
	ttl    time.Duration
	isNil  func(error) bool
}

// NewRedisStore wires a store over the shared redis client. isNil recognizes
// the client's missing-key error.
func NewRedisStore(client redisStore, ttl time.Duration, isNil func(error) bool) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if isNil == nil {
		return nil, fmt.Errorf("missing-key matcher required")
	}
	return &RedisStore{client: client, ttl: ttl, isNil: isNil}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionKey string) (*Ledger, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(sessionKey))
	if err != nil {
		if s.isNil(err) {
			return NewLedger(), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return Restore(snap), nil
}

func (s *RedisStore) Save(ctx context.Context, sessionKey string, ledger *Ledger) error {
	if ledger == nil {
		return fmt.Errorf("nil ledger for session %q", sessionKey)
	}
	payload, err := json.Marshal(ledger.Snapshot())
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(sessionKey), payload, s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, s.client.CartKey(sessionKey)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
