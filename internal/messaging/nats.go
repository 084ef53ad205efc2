// Package messaging provides a NATS client wrapper for pub/sub messaging
// across Courtside services. It handles connection lifecycle, subject-based
// subscriptions, and convenience methods for the rotation and billing
// channels.
package messaging

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subject patterns used across Courtside services.
const (
	SubjectRotationGenerate = "rotation.generate"
	SubjectRotationUpdated  = "rotation.updated" // + .<session_id>
	SubjectGameCompleted    = "game.completed"
	SubjectSessionClosed    = "session.closed"
	SubjectBillingCharged   = "billing.charged" // + .<session_id>
)

// NATSClient wraps the NATS connection with helper methods for pub/sub.
type NATSClient struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://localhost:4222",
		Name:          "courtside",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// NewNATSClient connects to NATS with the given config and returns a ready client.
// It returns an error if the initial connection fails.
func NewNATSClient(config NATSConfig) (*NATSClient, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &NATSClient{
		conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Publish sends data to the given NATS subject.
func (c *NATSClient) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Subscribe registers a handler for the given subject and stores the
// subscription internally for later cleanup.
func (c *NATSClient) Subscribe(subject string, handler func(msg *nats.Msg)) error {
	sub, err := c.conn.Subscribe(subject, handler)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()

	return nil
}

// PublishRotationGenerate asks the scheduler to rebuild a session's queue.
func (c *NATSClient) PublishRotationGenerate(data []byte) error {
	return c.Publish(SubjectRotationGenerate, data)
}

// SubscribeRotationGenerate subscribes to queue rebuild requests.
func (c *NATSClient) SubscribeRotationGenerate(handler func(data []byte)) error {
	return c.Subscribe(SubjectRotationGenerate, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishRotationUpdated announces a session's freshly built queue.
func (c *NATSClient) PublishRotationUpdated(sessionID string, data []byte) error {
	return c.Publish(SubjectRotationUpdated+"."+sessionID, data)
}

// SubscribeRotationUpdated subscribes to queue updates for a session. The
// subscription is keyed by connID so multiple watchers on the same gateway
// can follow the same session without overwriting each other.
func (c *NATSClient) SubscribeRotationUpdated(sessionID string, connID string, handler func(data []byte)) error {
	subject := SubjectRotationUpdated + "." + sessionID
	key := "rotsub:" + connID
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[key] = sub
	c.mu.Unlock()
	return nil
}

// UnsubscribeRotationUpdated drops a connection's queue-update subscription.
func (c *NATSClient) UnsubscribeRotationUpdated(connID string) error {
	return c.unsubscribe("rotsub:" + connID)
}

// PublishGameCompleted announces a recorded game result.
func (c *NATSClient) PublishGameCompleted(data []byte) error {
	return c.Publish(SubjectGameCompleted, data)
}

// SubscribeGameCompleted subscribes to recorded game results.
func (c *NATSClient) SubscribeGameCompleted(handler func(data []byte)) error {
	return c.Subscribe(SubjectGameCompleted, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishSessionClosed announces that a session has been closed.
func (c *NATSClient) PublishSessionClosed(data []byte) error {
	return c.Publish(SubjectSessionClosed, data)
}

// SubscribeSessionClosed subscribes to session close events.
func (c *NATSClient) SubscribeSessionClosed(handler func(data []byte)) error {
	return c.Subscribe(SubjectSessionClosed, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// PublishBillingCharged announces the ledger entries written for a session.
func (c *NATSClient) PublishBillingCharged(sessionID string, data []byte) error {
	return c.Publish(SubjectBillingCharged+"."+sessionID, data)
}

// SubscribeBillingCharged subscribes to billing results for a session.
func (c *NATSClient) SubscribeBillingCharged(sessionID string, handler func(data []byte)) error {
	subject := SubjectBillingCharged + "." + sessionID
	return c.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
}

// Close drains all active subscriptions and closes the NATS connection.
func (c *NATSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[nats] drain %s: %v", subject, err)
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] connection drain: %v", err)
	}

	log.Printf("[nats] client closed")
}

// unsubscribe removes and unsubscribes from a specific subject.
func (c *NATSClient) unsubscribe(subject string) error {
	c.mu.Lock()
	sub, ok := c.subs[subject]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("nats: no subscription for subject %s", subject)
	}
	delete(c.subs, subject)
	c.mu.Unlock()

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("nats unsubscribe %s: %w", subject, err)
	}
	return nil
}
