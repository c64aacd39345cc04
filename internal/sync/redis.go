package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const defaultChannel = "consignment-tracker:sync"

// RedisBroadcaster fans messages out over a Redis pub/sub channel. Redis
// delivers each publish back to every subscriber including the publisher, so
// the handler side filters by SenderID.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	pubsub  *redis.PubSub
}

func NewRedisBroadcaster(ctx context.Context, redisURL string) (*RedisBroadcaster, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisBroadcaster{client: client, channel: defaultChannel}, nil
}

func (b *RedisBroadcaster) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode sync message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish sync message: %w", err)
	}
	return nil
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context, handler Handler) error {
	b.pubsub = b.client.Subscribe(ctx, b.channel)
	// Force the subscription to establish before we report success, so no
	// publishes race past an incomplete subscribe.
	if _, err := b.pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	ch := b.pubsub.Channel()
	go func() {
		for raw := range ch {
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				log.Printf("sync: dropping malformed message on %s: %v", b.channel, err)
				continue
			}
			handler(msg)
		}
	}()
	return nil
}

func (b *RedisBroadcaster) Close() error {
	if b.pubsub != nil {
		if err := b.pubsub.Close(); err != nil {
			return err
		}
	}
	return b.client.Close()
}
