package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/voxdesk/golang_services/internal/platform/messagebroker"
	"github.com/voxdesk/golang_services/internal/settings_service/domain"
)

// Broadcaster publishes change events on scope channels. Delivery is
// at-most-once and best-effort: no acknowledgement, no persistence, and a
// listener that connects after a publish never sees it.
type Broadcaster interface {
	Broadcast(ctx context.Context, event domain.ChangeEvent, scopeKeys ...string) error
}

// NopBroadcaster drops every event. Used when the broker is unavailable so
// settings writes keep working; responses then report realTimeUpdate=false.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(ctx context.Context, event domain.ChangeEvent, scopeKeys ...string) error {
	return errors.New("message broker unavailable")
}

// NATSBroadcaster sends one JSON message per scope key over core NATS.
type NATSBroadcaster struct {
	client *messagebroker.NATSClient
	logger *slog.Logger
}

func NewNATSBroadcaster(client *messagebroker.NATSClient, logger *slog.Logger) *NATSBroadcaster {
	return &NATSBroadcaster{client: client, logger: logger.With("component", "nats_broadcaster")}
}

// Broadcast publishes event to every scope key, attempting all keys even when
// one fails, and returns the joined failures. Callers treat a non-nil error as
// advisory: the durable store write has already happened.
func (b *NATSBroadcaster) Broadcast(ctx context.Context, event domain.ChangeEvent, scopeKeys ...string) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	var errs []error
	for _, key := range scopeKeys {
		if err := b.client.Publish(ctx, key, data); err != nil {
			broadcastsCounter.WithLabelValues(string(event.Kind), "error").Inc()
			b.logger.ErrorContext(ctx, "Failed to publish change event",
				"error", err, "scope_key", key, "kind", event.Kind)
			errs = append(errs, err)
			continue
		}
		broadcastsCounter.WithLabelValues(string(event.Kind), "success").Inc()
		b.logger.DebugContext(ctx, "Published change event", "scope_key", key, "kind", event.Kind)
	}
	return errors.Join(errs...)
}
