package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const profileChannelPrefix = "profiles:"

// RedisBroker is a Broker implementation over Redis Pub/Sub, for
// deployments where writes and watches land on different instances.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker creates a broker over the given Redis client
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func channelFor(profileID uuid.UUID) string {
	return profileChannelPrefix + profileID.String()
}

// Publish sends the event to the profile's channel
func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channelFor(ev.ProfileID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe opens a subscription backed by a Redis Pub/Sub channel. The
// pumping goroutine exits when the subscription is cancelled.
func (b *RedisBroker) Subscribe(profileID uuid.UUID) *Subscription {
	ps := b.client.Subscribe(context.Background(), channelFor(profileID))

	sub := newSubscription(func(*Subscription) {
		if err := ps.Close(); err != nil {
			log.Printf("[pubsub] failed to close redis subscription: %v", err)
		}
	})

	go func() {
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[pubsub] dropping malformed event: %v", err)
				continue
			}
			sub.deliver(ev)
		}
	}()

	return sub
}

// Close releases the broker. The underlying Redis client is owned by the
// caller and stays open.
func (b *RedisBroker) Close() error {
	return nil
}
