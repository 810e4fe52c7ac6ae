package pubsub

import (
	"fmt"
	"strings"
)

// Channels used by the marketplace.
const (
	// ChannelProducts carries catalogue events that every API instance
	// relays to its own realtime connections.
	ChannelProducts = "market:products"
)

// Event types.
const (
	EventNewProduct = "new_product"
)

// channelToTopic converts a colon separated channel name to a Kafka topic.
//
//	"market:products" → "market-products"
func channelToTopic(channel string) (string, error) {
	parts := strings.Split(channel, ":")
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("invalid channel format: %q", channel)
		}
	}
	return strings.Join(parts, "-"), nil
}
