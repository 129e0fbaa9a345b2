package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "storefront:cart:"

// RedisCartStore keeps carts as JSON strings with a sliding TTL
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCartStore creates a cart store on an existing client
func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

// Get loads a cart and extends its TTL
func (s *RedisCartStore) Get(ctx context.Context, token string) (*cart.Cart, error) {
	raw, err := s.client.GetEx(ctx, cartKeyPrefix+token, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &c, nil
}

// Save writes the cart and resets its TTL
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+c.Token, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete removes the cart
func (s *RedisCartStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// InMemoryCartStore is the single-process cart store used without Redis.
// Abandoned carts are swept on Save, at most once per TTL.
type InMemoryCartStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	entries   map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

// NewInMemoryCartStore creates an empty store
func NewInMemoryCartStore(ttl time.Duration) *InMemoryCartStore {
	return &InMemoryCartStore{ttl: ttl, entries: make(map[string]entry), now: time.Now}
}

// Get returns a copy of the cart and extends its TTL
func (s *InMemoryCartStore) Get(_ context.Context, token string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[token]
	if !ok || e.expired(now) {
		delete(s.entries, token)
		return nil, shared.ErrNotFound
	}
	e.expiresAt = now.Add(s.ttl)
	s.entries[token] = e

	var c cart.Cart
	if err := json.Unmarshal([]byte(e.value), &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &c, nil
}

// Save stores a copy of the cart
func (s *InMemoryCartStore) Save(_ context.Context, c *cart.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.entries[c.Token] = entry{value: string(raw), expiresAt: now.Add(s.ttl)}
	return nil
}

// sweep drops expired carts; callers hold mu
func (s *InMemoryCartStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.lastSweep = now
	for token, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, token)
		}
	}
}

// Delete removes the cart
func (s *InMemoryCartStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

var (
	_ cart.Store = (*RedisCartStore)(nil)
	_ cart.Store = (*InMemoryCartStore)(nil)
)
