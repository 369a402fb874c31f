package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/voxdesk/golang_services/internal/platform/messagebroker"
	"github.com/voxdesk/golang_services/internal/settings_service/domain"
)

// Callbacks maps event kinds to handlers. Unregistered kinds are ignored.
type Callbacks map[domain.EventKind]func(event domain.ChangeEvent)

// ConfigSubscription is the live feed for one phone: the phone channel plus
// the owning business's channel, so business-wide changes (primary phone,
// business-level settings) reach the agent too.
type ConfigSubscription struct {
	PhoneID    uuid.UUID
	BusinessID uuid.UUID

	subs []*messagebroker.Subscription

	mu         sync.Mutex
	lastUpdate time.Time
	closed     bool
}

// LastUpdate reports when the subscription last delivered an event.
func (s *ConfigSubscription) LastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate
}

func (s *ConfigSubscription) touch() {
	s.mu.Lock()
	s.lastUpdate = time.Now().UTC()
	s.mu.Unlock()
}

// Unsubscribe tears down both channels. Calling it again is a no-op.
func (s *ConfigSubscription) Unsubscribe() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var firstErr error
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ConfigSubscriber delivers live configuration changes to a voice agent. It is
// caller-owned: the agent constructs one, ties its lifetime to its own call
// session, and tears it down explicitly. There is no process-wide instance, so
// a new tenant can never inherit subscriptions from a previous one.
type ConfigSubscriber struct {
	broker  *messagebroker.NATSClient
	phones  domain.PhoneNumberRepository
	agentID string
	logger  *slog.Logger

	mu   sync.Mutex
	live map[uuid.UUID]*ConfigSubscription
}

func NewConfigSubscriber(
	broker *messagebroker.NATSClient,
	phones domain.PhoneNumberRepository,
	agentID string,
	logger *slog.Logger,
) *ConfigSubscriber {
	return &ConfigSubscriber{
		broker:  broker,
		phones:  phones,
		agentID: agentID,
		logger:  logger.With("component", "config_subscriber", "agent_id", agentID),
		live:    make(map[uuid.UUID]*ConfigSubscription),
	}
}

// SubscribeToPhone opens the phone and business channels and dispatches
// events to the registered callbacks in arrival order. Delivery on one
// channel follows publish order; there is no ordering across channels.
func (s *ConfigSubscriber) SubscribeToPhone(ctx context.Context, phoneID, businessID uuid.UUID, callbacks Callbacks) (*ConfigSubscription, error) {
	phoneKey, err := domain.PhoneScopeKey(phoneID)
	if err != nil {
		return nil, err
	}
	businessKey, err := domain.BusinessScopeKey(businessID)
	if err != nil {
		return nil, err
	}

	subscription := &ConfigSubscription{PhoneID: phoneID, BusinessID: businessID}

	handler := func(msg *nats.Msg) {
		var event domain.ChangeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.logger.Error("Failed to decode change event", "error", err, "subject", msg.Subject)
			return
		}
		subscription.touch()
		if cb, ok := callbacks[event.Kind]; ok {
			cb(event)
		}
	}

	for _, key := range []string{phoneKey, businessKey} {
		sub, err := s.broker.Subscribe(key, handler)
		if err != nil {
			for _, opened := range subscription.subs {
				_ = opened.Unsubscribe()
			}
			return nil, fmt.Errorf("failed to subscribe to %q: %w", key, err)
		}
		subscription.subs = append(subscription.subs, sub)
	}

	s.mu.Lock()
	s.live[phoneID] = subscription
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Subscribed to phone config updates",
		"phone_id", phoneID, "business_id", businessID)
	return subscription, nil
}

// UnsubscribeFromPhone tears down the subscription for phoneID, if any.
func (s *ConfigSubscriber) UnsubscribeFromPhone(phoneID uuid.UUID) error {
	s.mu.Lock()
	subscription, ok := s.live[phoneID]
	delete(s.live, phoneID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return subscription.Unsubscribe()
}

// CurrentConfig pulls the effective configuration from the store. Agents call
// this on connect and reconnect: the channels only carry "what changed just
// now", so a subscriber that was offline reconciles here.
func (s *ConfigSubscriber) CurrentConfig(ctx context.Context, phoneID uuid.UUID) (domain.AgentConfig, error) {
	p, err := s.phones.GetByID(ctx, phoneID)
	if err != nil {
		return domain.AgentConfig{}, err
	}
	return p.ToAgentConfig(), nil
}

// ConfirmApplied announces on the phone channel that this agent applied a
// configuration change. Used for monitoring; best-effort like any broadcast.
func (s *ConfigSubscriber) ConfirmApplied(ctx context.Context, phoneID uuid.UUID, configType string) error {
	key, err := domain.PhoneScopeKey(phoneID)
	if err != nil {
		return err
	}
	pid := phoneID
	now := time.Now().UTC()
	event := domain.NewChangeEvent(domain.ScopePhone, phoneID, domain.EventConfigAppliedConfirmation, domain.EventPayload{
		PhoneID:    &pid,
		ConfigType: configType,
		AgentID:    s.agentID,
		AppliedAt:  &now,
	})
	event.RequiresReload = false // confirmation only, nothing for listeners to reload

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal confirmation: %w", err)
	}
	return s.broker.Publish(ctx, key, data)
}

// Close tears down every live subscription. Idempotent.
func (s *ConfigSubscriber) Close() {
	s.mu.Lock()
	live := s.live
	s.live = make(map[uuid.UUID]*ConfigSubscription)
	s.mu.Unlock()

	for phoneID, subscription := range live {
		if err := subscription.Unsubscribe(); err != nil {
			s.logger.Warn("Failed to unsubscribe", "error", err, "phone_id", phoneID)
		}
	}
}
