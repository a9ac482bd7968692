package redis

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// memClient is an in-memory RedisClient used by unit tests.
type memClient struct {
	mu      sync.Mutex
	kv      map[string]string
	ttl     map[string]time.Duration
	failGet error
}

func newMemClient() *memClient {
	return &memClient{kv: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memClient) Ping(ctx context.Context) error { return nil }

func (m *memClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.kv[key] = string(v)
	default:
		m.kv[key] = fmt.Sprint(v)
	}
	return nil
}

func (m *memClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return "", m.failGet
	}
	v, ok := m.kv[key]
	if !ok {
		return "", Nil
	}
	return v, nil
}

func (m *memClient) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	fmt.Sscan(m.kv[key], &n)
	n++
	m.kv[key] = fmt.Sprint(n)
	return n, nil
}

func (m *memClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl[key] = expiration
	return nil
}

func (m *memClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.kv, k)
	}
	return nil
}

func (m *memClient) Close() error { return nil }
