package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkglog "github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// RedisPubSub carries events over Redis PUBLISH/SUBSCRIBE. Redis delivers
// every message to every subscriber, so each instance sees each event.
type RedisPubSub struct {
	client *redis.Client
	subs   subscriptionSet
}

// NewRedisPubSub connects to Redis and verifies the connection.
func NewRedisPubSub(cfg RedisConfig) (*RedisPubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis pubsub: ping %s: %w", cfg.Address, err)
	}

	return NewRedisPubSubWithClient(client), nil
}

// NewRedisPubSubWithClient wraps an existing client.
func NewRedisPubSubWithClient(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish sends event on channel.
func (r *RedisPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis pubsub: encode %s event: %w", event.Type, err)
	}

	receivers, err := r.client.Publish(ctx, channel, data).Result()
	if err != nil {
		return fmt.Errorf("redis pubsub: publish to %s: %w", channel, err)
	}

	l := pkglog.Ctx(ctx)
	l.Debug().Str(pkglog.FieldChannel, channel).Int64(pkglog.FieldRecipients, receivers).Msg("bus event published")
	return nil
}

// Subscribe returns once Redis confirmed the subscription, so events
// published afterwards are not missed.
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	ps := r.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("redis pubsub: subscribe to %s: %w", channel, err)
	}

	subCtx, sub := newSubscription(ctx)
	out := make(chan *Event, eventBuffer)

	go func() {
		defer close(sub.done)
		defer close(out)
		defer ps.Close()

		messages := ps.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if !forward(subCtx, out, channel, []byte(msg.Payload)) {
					return
				}
			}
		}
	}()

	r.subs.replace(channel, sub)
	return out, nil
}

// Unsubscribe stops the subscription on channel, if any.
func (r *RedisPubSub) Unsubscribe(ctx context.Context, channel string) error {
	r.subs.remove(channel)
	return nil
}

// Close stops every subscription and closes the client.
func (r *RedisPubSub) Close() error {
	r.subs.stopAll()
	return r.client.Close()
}
