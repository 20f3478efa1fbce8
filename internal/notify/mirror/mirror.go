// Package mirror republishes broadcast events to a Redis channel so that
// dashboards outside this process can follow the alert outcome.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/oshokin/accirescue/internal/broadcast"
	domain "github.com/oshokin/accirescue/internal/domain/alert"
	"github.com/oshokin/accirescue/internal/logger"
)

// ObserverKind tags the mirror's hub observer.
const ObserverKind = "redis"

// Publisher is the part of the Redis client used by the mirror.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Mirror is a hub observer that forwards events to Redis.
type Mirror struct {
	client  Publisher
	channel string
}

// New creates a mirror publishing to channel.
func New(client Publisher, channel string) *Mirror {
	return &Mirror{
		client:  client,
		channel: channel,
	}
}

// Publish sends one event to the channel.
func (m *Mirror) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err = m.client.Publish(ctx, m.channel, payload).Err(); err != nil {
		return &domain.DeliveryError{Target: "redis:" + m.channel, Err: err}
	}

	return nil
}

// Run registers the mirror on the hub and forwards events until ctx ends or
// the hub closes. Publish failures are logged and do not stop the loop. An
// evicted mirror registers again and carries on with the next events.
func (m *Mirror) Run(ctx context.Context, hub *broadcast.Hub) {
	ctx = logger.WithKV(ctx, "channel", m.channel)
	logger.Info(ctx, "Redis mirror started")

	for {
		observer := hub.Subscribe(ObserverKind)
		evicted := m.forward(logger.WithKV(ctx, "observer_id", observer.ID), observer)
		hub.Unsubscribe(observer)

		if !evicted {
			return
		}

		logger.Warn(ctx, "Redis mirror fell behind, subscribing again")
	}
}

// forward publishes the observer's events and reports whether it ended by eviction.
func (m *Mirror) forward(ctx context.Context, observer *broadcast.Observer) bool {
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Redis mirror stopped")

			return false
		case event, ok := <-observer.Events():
			if !ok {
				if observer.Evicted() {
					return true
				}

				logger.Info(ctx, "Hub closed, redis mirror stopped")

				return false
			}

			if err := m.Publish(ctx, event); err != nil {
				logger.ErrorKV(ctx, "Failed to mirror event", "error", err, "responder", event.Responder)
			}
		}
	}
}
