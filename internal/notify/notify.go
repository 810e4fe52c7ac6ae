// Package notify delivers new-product announcements to realtime clients,
// either directly or across instances through the event bus.
package notify

import (
	"context"
	"strconv"

	"github.com/forfuturefoundation2024-hash/AIVEX/internal/domain"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/pubsub"
)

// Broadcaster fans a product out to the local realtime connections.
type Broadcaster interface {
	BroadcastNewProduct(ctx context.Context, product *domain.Product) (int, error)
}

// Local broadcasts synchronously on this instance.
type Local struct {
	broadcaster Broadcaster
}

func NewLocal(b Broadcaster) *Local {
	return &Local{broadcaster: b}
}

func (n *Local) NotifyNewProduct(ctx context.Context, product *domain.Product) error {
	_, err := n.broadcaster.BroadcastNewProduct(ctx, product)
	return err
}

// Bus publishes announcements on the products channel; every instance's
// Relay turns them into local broadcasts.
type Bus struct {
	publisher pubsub.Publisher
}

func NewBus(p pubsub.Publisher) *Bus {
	return &Bus{publisher: p}
}

func (n *Bus) NotifyNewProduct(ctx context.Context, product *domain.Product) error {
	evt, err := pubsub.NewEvent(pubsub.EventNewProduct, strconv.FormatInt(product.ID, 10), product)
	if err != nil {
		return err
	}
	return n.publisher.Publish(ctx, pubsub.ChannelProducts, evt)
}
