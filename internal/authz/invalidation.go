package authz

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel carries invalidation events between instances.
const DefaultChannel = "authz.invalidate"

// Scope names the slice an invalidation targets.
type Scope string

const (
	ScopeMenus  Scope = "menus"
	ScopeRole   Scope = "role"
	ScopeMatrix Scope = "matrix"
	ScopeUser   Scope = "user"
	ScopeAll    Scope = "all"
)

// Event is one invalidation, local or received from another instance.
type Event struct {
	Scope  Scope  `json:"scope"`
	ID     int64  `json:"id,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// Broadcaster forwards invalidations to other processes.
type Broadcaster interface {
	Publish(ctx context.Context, ev Event) error
}

// RedisBus publishes and receives invalidation events over Redis pub/sub.
type RedisBus struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     *slog.Logger
}

// NewRedisBus builds a bus on channel (DefaultChannel when empty).
func NewRedisBus(client *redis.Client, channel string, logger *slog.Logger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBus{client: client, channel: channel, instanceID: uuid.NewString(), logger: logger}
}

// InstanceID identifies this process on the bus.
func (b *RedisBus) InstanceID() string { return b.instanceID }

// Publish sends ev stamped with this instance's id.
func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	if b == nil || b.client == nil {
		return nil
	}
	ev.Origin = b.instanceID
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Listen subscribes to the channel and applies remote events to cache until
// ctx is done. The subscription is confirmed before Listen returns.
func (b *RedisBus) Listen(ctx context.Context, cache *AuthzCache) error {
	if b == nil || b.client == nil {
		return nil
	}
	if cache == nil {
		return errors.New("authz: listen requires a cache")
	}
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("authz invalidation payload rejected", slog.Any("error", err))
					cache.apply(Event{Scope: ScopeAll}, true)
					continue
				}
				if ev.Origin == b.instanceID {
					continue
				}
				cache.apply(ev, true)
			}
		}
	}()
	return nil
}
