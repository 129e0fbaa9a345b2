package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisChannel carries stream messages between instances
const DefaultRedisChannel = "storefront:realtime"

// RedisBridge publishes messages on a Redis pub/sub channel and forwards
// everything received on it to the local hub
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

// NewRedisBridge creates a bridge; an empty channel uses DefaultRedisChannel
func NewRedisBridge(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisBridge {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisBridge{client: client, channel: channel, hub: hub, logger: logger}
}

// Publish sends msg to every subscribed instance, this one included
func (b *RedisBridge) Publish(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode stream message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("failed to publish stream message: %w", err)
	}
	return nil
}

// Start subscribes and forwards until ctx is cancelled. It returns once the
// subscription is confirmed.
func (b *RedisBridge) Start(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.logger.Warn("bad stream payload on redis channel", zap.Error(err))
					continue
				}
				b.hub.Broadcast(msg)
			}
		}
	}()

	b.logger.Info("realtime redis bridge started", zap.String("channel", b.channel))
	return nil
}
