package cache

import (
	"fmt"
	"time"

	"github.com/japabox/storefront/internal/domain/cart"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores groups the key-value backed stores the service needs. Client is nil
// when the stores are in-memory.
type Stores struct {
	Client      *redis.Client
	Idempotency shared.IdempotencyStore
	Carts       cart.Store

	closers []func() error
}

// Close releases the Redis connection or stops in-memory cleanup goroutines
func (s *Stores) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Factory creates stores based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	cartTTL               time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
	connect               func(config.RedisConfig) (*redis.Client, error)
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory stores. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, cartTTL time.Duration, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		cartTTL:               cartTTL,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connect:               NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemoryStores creates process-local stores.
// They do not share state across instances, so idempotency only holds per process.
func (f *Factory) CreateInMemoryStores() *Stores {
	idem := NewInMemoryIdempotencyStore()
	return &Stores{
		Idempotency: idem,
		Carts:       NewInMemoryCartStore(f.cartTTL),
		closers:     []func() error{idem.Close},
	}
}

// CreateRedisStores creates stores on a single shared client
func (f *Factory) CreateRedisStores(client *redis.Client) *Stores {
	return &Stores{
		Client:      client,
		Idempotency: NewRedisIdempotencyStoreWithClient(client, ""),
		Carts:       NewRedisCartStore(client, f.cartTTL),
		closers:     []func() error{client.Close},
	}
}

// CreateStores uses Redis when it is configured and reachable, otherwise
// in-memory stores when fallback is allowed
func (f *Factory) CreateStores() (*Stores, error) {
	if !f.redisConfig.Enabled() {
		f.logger.Info("Redis not configured, using in-memory stores")
		return f.CreateInMemoryStores(), nil
	}

	client, err := f.connect(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis stores", zap.String("addr", f.redisConfig.Addr()))
		return f.CreateRedisStores(client), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Carts and idempotency keys will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStores(), nil
}
