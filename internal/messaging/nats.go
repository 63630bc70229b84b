// Package messaging fans feed entries out over NATS so other services can
// follow the moderated token stream without holding a websocket of their own.
package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"solana-token-feed/internal/domain"
)

// NATS subjects.
const (
	SubjectFeed = "tokens.feed" // + .safe | .blocked | .unchecked
)

// Verdict suffixes appended to SubjectFeed.
const (
	VerdictSafe      = "safe"
	VerdictBlocked   = "blocked"
	VerdictUnchecked = "unchecked"
)

// FeedMessage is the payload published for every entry prepended to the feed.
type FeedMessage struct {
	Token       domain.TokenEvent      `json:"token"`
	Checked     bool                   `json:"checked"`
	Safe        bool                   `json:"safe"`
	Stage       domain.ModerationStage `json:"stage,omitempty"`
	PublishedAt int64                  `json:"publishedAt"`
}

// Subject returns the subject the message is published on.
func (m FeedMessage) Subject() string {
	switch {
	case !m.Checked:
		return SubjectFeed + "." + VerdictUnchecked
	case m.Safe:
		return SubjectFeed + "." + VerdictSafe
	default:
		return SubjectFeed + "." + VerdictBlocked
	}
}

// Publisher publishes feed entries.
type Publisher interface {
	PublishFeedEntry(msg FeedMessage) error
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultNATSConfig returns defaults for a local broker.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "feedguard",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

// NATSClient publishes feed entries and lets consumers subscribe to them.
type NATSClient struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs []*nats.Subscription
	now  func() time.Time
}

// NewNATSClient connects to NATS. It returns an error if the initial
// connection fails; later disconnects are retried by the client library.
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
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &NATSClient{conn: nc, now: time.Now}, nil
}

// PublishFeedEntry encodes msg as JSON and publishes it on its verdict subject.
func (c *NATSClient) PublishFeedEntry(msg FeedMessage) error {
	if msg.PublishedAt == 0 {
		msg.PublishedAt = c.now().UnixMilli()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode feed message: %w", err)
	}
	if err := c.conn.Publish(msg.Subject(), data); err != nil {
		return fmt.Errorf("nats publish %s: %w", msg.Subject(), err)
	}
	return nil
}

// SubscribeFeed delivers every feed entry to handler. Undecodable payloads
// are logged and skipped.
func (c *NATSClient) SubscribeFeed(handler func(FeedMessage)) error {
	sub, err := c.conn.Subscribe(SubjectFeed+".*", func(m *nats.Msg) {
		var msg FeedMessage
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Printf("[nats] decode %s: %v", m.Subject, err)
			return
		}
		handler(msg)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", SubjectFeed, err)
	}

	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return nil
}

// Flush waits until the server has processed everything published so far.
func (c *NATSClient) Flush() error {
	return c.conn.Flush()
}

// Close drains subscriptions and the connection.
func (c *NATSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[nats] drain %s: %v", sub.Subject, err)
		}
	}
	c.subs = nil

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] connection drain: %v", err)
	}
	log.Printf("[nats] client closed")
}

var _ Publisher = (*NATSClient)(nil)
