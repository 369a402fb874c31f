package messagebroker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSClient wraps a core NATS connection. Core NATS (no JetStream) is
// intentional: the config channels are an advisory, at-most-once signal with
// per-subject ordering, not a durable event log.
type NATSClient struct {
	Conn   *nats.Conn
	logger *slog.Logger
}

// NewNATSClient connects to NATS with reconnection handling.
// natsURL example: "nats://localhost:4222"
func NewNATSClient(natsURL string, appName string, logger *slog.Logger) (*NATSClient, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(appName),
		nats.Timeout(5*time.Second),
		nats.PingInterval(20*time.Second),
		nats.MaxPingsOutstanding(3),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			if err := nc.LastError(); err != nil {
				logger.Error("NATS connection closed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSClient{Conn: nc, logger: logger}, nil
}

// Publish sends data on the given subject. The context is honoured up front;
// the send itself is fire-and-forget per the core NATS model.
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.Conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %q: %w", subject, err)
	}
	return nil
}

// Subscribe registers handler for the subject and returns a handle whose
// Unsubscribe is safe to call more than once.
func (c *NATSClient) Subscribe(subject string, handler func(msg *nats.Msg)) (*Subscription, error) {
	sub, err := c.Conn.Subscribe(subject, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %q: %w", subject, err)
	}
	c.logger.Debug("Subscribed to NATS subject", "subject", subject)
	return &Subscription{sub: sub, subject: subject, logger: c.logger}, nil
}

// Close drains the connection so buffered publishes are flushed before close.
func (c *NATSClient) Close() {
	if c.Conn != nil && !c.Conn.IsClosed() {
		if err := c.Conn.Drain(); err != nil {
			c.logger.Warn("NATS drain failed", "error", err)
			c.Conn.Close()
		}
	}
}

// Subscription is a handle to one live subject subscription.
type Subscription struct {
	sub     *nats.Subscription
	subject string
	logger  *slog.Logger
	once    sync.Once
}

// Subject returns the subscribed subject.
func (s *Subscription) Subject() string { return s.subject }

// Unsubscribe tears the subscription down. Subsequent calls are no-ops.
func (s *Subscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		err = s.sub.Unsubscribe()
		if err == nil {
			s.logger.Debug("Unsubscribed from NATS subject", "subject", s.subject)
		}
	})
	return err
}
