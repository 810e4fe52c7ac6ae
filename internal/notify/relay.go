package notify

import (
	"context"
	"fmt"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/pubsub"
)

// Relay consumes bus announcements and broadcasts them locally.
type Relay struct {
	subscriber  pubsub.Subscriber
	broadcaster Broadcaster
}

func NewRelay(s pubsub.Subscriber, b Broadcaster) *Relay {
	return &Relay{subscriber: s, broadcaster: b}
}

// Run subscribes and blocks until ctx ends or the subscription closes.
func (r *Relay) Run(ctx context.Context) error {
	events, err := r.subscriber.Subscribe(ctx, pubsub.ChannelProducts)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", pubsub.ChannelProducts, err)
	}
	defer r.subscriber.Unsubscribe(context.Background(), pubsub.ChannelProducts)

	l := log.Ctx(ctx)
	l.Info().Str(log.FieldChannel, pubsub.ChannelProducts).Msg("product relay subscribed")

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("subscription to %s closed", pubsub.ChannelProducts)
			}
			r.handle(ctx, evt)
		}
	}
}

func (r *Relay) handle(ctx context.Context, evt *pubsub.Event) {
	l := log.Ctx(ctx)

	if evt.Type != pubsub.EventNewProduct {
		l.Debug().Str("event_type", evt.Type).Msg("ignoring bus event")
		return
	}

	var product domain.Product
	if err := evt.UnmarshalPayload(&product); err != nil {
		l.Warn().Err(err).Str("key", evt.Key).Msg("dropping undecodable product event")
		return
	}
	if _, err := r.broadcaster.BroadcastNewProduct(ctx, &product); err != nil {
		l.Warn().Err(err).Int64(log.FieldProductID, product.ID).Msg("failed to broadcast relayed product")
	}
}
