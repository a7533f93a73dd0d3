package routeplanner

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const failingKeyPrefix = "ytrelated:routeplanner:failing:"

// FailingStore remembers addresses that were rate limited upstream.
type FailingStore interface {
	MarkFailing(ctx context.Context, addr netip.Addr, ttl time.Duration) error
	IsFailing(ctx context.Context, addr netip.Addr) (bool, error)
}

type MemoryFailingStore struct {
	mu      sync.Mutex
	entries map[netip.Addr]time.Time
	now     func() time.Time
}

func NewMemoryFailingStore() *MemoryFailingStore {
	return &MemoryFailingStore{
		entries: make(map[netip.Addr]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryFailingStore) MarkFailing(_ context.Context, addr netip.Addr, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[addr] = s.now().Add(ttl)
	return nil
}

func (s *MemoryFailingStore) IsFailing(_ context.Context, addr netip.Addr) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.entries[addr]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.entries, addr)
		return false, nil
	}
	return true, nil
}

// RedisFailingStore shares failing marks between replicas through key expiry.
type RedisFailingStore struct {
	client redis.Cmdable
}

func NewRedisFailingStore(client redis.Cmdable) *RedisFailingStore {
	return &RedisFailingStore{client: client}
}

func (s *RedisFailingStore) MarkFailing(ctx context.Context, addr netip.Addr, ttl time.Duration) error {
	if err := s.client.SetEx(ctx, failingKey(addr), "1", ttl).Err(); err != nil {
		return fmt.Errorf("mark %s failing: %w", addr, err)
	}
	return nil
}

func (s *RedisFailingStore) IsFailing(ctx context.Context, addr netip.Addr) (bool, error) {
	n, err := s.client.Exists(ctx, failingKey(addr)).Result()
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", addr, err)
	}
	return n > 0, nil
}

func failingKey(addr netip.Addr) string {
	return failingKeyPrefix + addr.String()
}
