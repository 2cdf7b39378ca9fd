package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/your-org/template-store/internal/domain/cart"
)

const cartKeyPrefix = "cart:session:"

// CartSink stores one session's cart snapshot as JSON under cart:session:<id>
type CartSink struct {
	client    *Client
	sessionID string
	ttl       time.Duration
}

// NewCartSink creates the sink for a single session
func NewCartSink(client *Client, sessionID string, ttl time.Duration) *CartSink {
	return &CartSink{client: client, sessionID: sessionID, ttl: ttl}
}

// CartSinkFactory builds sinks for the cart manager
func CartSinkFactory(client *Client, ttl time.Duration) cart.SinkFactory {
	return func(sessionID string) cart.Sink {
		return NewCartSink(client, sessionID, ttl)
	}
}

// CartKey returns the Redis key for a session's cart
func CartKey(sessionID string) string {
	return cartKeyPrefix + sessionID
}

// Save writes the snapshot and refreshes the key's TTL
func (s *CartSink) Save(ctx context.Context, snap cart.Snapshot) error {
	data, err := cart.MarshalSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, CartKey(s.sessionID), string(data), s.ttl); err != nil {
		return fmt.Errorf("failed to save cart to redis: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or nil when the session has none
func (s *CartSink) Load(ctx context.Context) (*cart.Snapshot, error) {
	raw, err := s.client.Get(ctx, CartKey(s.sessionID))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cart from redis: %w", err)
	}
	return cart.UnmarshalSnapshot([]byte(raw))
}

// Remove deletes the session's key, used when the cart becomes empty
func (s *CartSink) Remove(ctx context.Context) error {
	if err := s.client.Del(ctx, CartKey(s.sessionID)); err != nil {
		return fmt.Errorf("failed to remove cart from redis: %w", err)
	}
	return nil
}
