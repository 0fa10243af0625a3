package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is a map-backed Store for development and tests. Keys
// mirror the durable backends so behavior is interchangeable.
type MemoryStore struct {
	mu    sync.Mutex
	data  map[string]string
	ttl   time.Duration
	clock Clock
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]string),
		ttl:   ttl,
		clock: SystemClock,
	}
}

// WithClock replaces the wall clock. Intended for tests.
func (m *MemoryStore) WithClock(c Clock) *MemoryStore {
	m.clock = c
	return m
}

func (m *MemoryStore) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("tokenstore: missing token")
	}

	expiresAt := m.clock.Now().Add(m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[KeyToken] = token
	m.data[KeyTokenExpiry] = strconv.FormatInt(expiresAt.UnixMilli(), 10)
	return nil
}

func (m *MemoryStore) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[KeyToken], nil
}

func (m *MemoryStore) IsExpired(ctx context.Context) (bool, error) {
	m.mu.Lock()
	val, ok := m.data[KeyTokenExpiry]
	m.mu.Unlock()

	if !ok {
		return true, nil
	}

	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return true, nil
	}

	return !m.clock.Now().Before(time.UnixMilli(millis)), nil
}

func (m *MemoryStore) SetUser(ctx context.Context, u User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("tokenstore: failed to marshal user: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[KeyUserData] = string(data)
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context) (*User, error) {
	m.mu.Lock()
	val := m.data[KeyUserData]
	m.mu.Unlock()

	return decodeUser([]byte(val)), nil
}

func (m *MemoryStore) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, KeyToken)
	delete(m.data, KeyTokenExpiry)
	delete(m.data, KeyUserData)
	return nil
}

// SeedExpiry overwrites the persisted expiry directly. Test hook for
// simulating stale or corrupted timestamps.
func (m *MemoryStore) SeedExpiry(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[KeyTokenExpiry] = raw
}

// SeedUserData overwrites the persisted user record directly. Test
// hook for simulating corrupted JSON.
func (m *MemoryStore) SeedUserData(raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[KeyUserData] = raw
}

// Keys returns a snapshot of the persisted key names. Test hook for
// asserting ClearAll totality.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}
