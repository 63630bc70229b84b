// Package stream consumes the new-token websocket and turns each announcement
// into an enriched, moderated feed entry.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/feed"
	"solana-token-feed/internal/idhash"
	"solana-token-feed/internal/messaging"
	"solana-token-feed/internal/metadata"
	"solana-token-feed/internal/moderation"
	"solana-token-feed/internal/observability"
	"solana-token-feed/internal/solana"
	"solana-token-feed/internal/storage"
)

const (
	// DefaultReconnectDelay is the wait between a disconnect and the next dial.
	DefaultReconnectDelay = 3 * time.Second
	// DefaultPort is the stream server port.
	DefaultPort = 8080
	// ConnectPath is the stream endpoint path.
	ConnectPath = "/connect"

	handshakeTimeout = 10 * time.Second
	maxMessageBytes  = 1 << 20
	recordTimeout    = 5 * time.Second
	resolveTimeout   = 5 * time.Second
)

// Drop reasons reported to metrics.
const (
	dropMalformed   = "malformed"
	dropMissingMint = "missing_mint"
)

// EndpointURL builds ws(s)://host:8080/connect.
func EndpointURL(host string, secure bool) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(DefaultPort)) + ConnectPath
}

// MetadataFetcher loads off-chain token metadata. Implementations return nil
// on any failure.
type MetadataFetcher interface {
	Fetch(ctx context.Context, uri string) *domain.TokenMetadata
}

// Moderator decides whether a token's content is safe to show.
type Moderator interface {
	Check(ctx context.Context, token domain.TokenEvent, meta *domain.TokenMetadata) moderation.Decision
}

// URIResolver finds a mint's metadata uri on chain when the stream omits it.
type URIResolver interface {
	ResolveURI(ctx context.Context, mint string) (string, error)
}

// Options configures a Connector. Nil fields get defaults; Resolver,
// Recorder and Publisher are optional.
type Options struct {
	URL            string
	Fetcher        MetadataFetcher
	Resolver       URIResolver
	Moderator      Moderator
	Feed           *feed.Feed
	Recorder       storage.DecisionStore
	Publisher      messaging.Publisher
	OnStateChange  func(domain.ConnectionState)
	ReconnectDelay time.Duration
	Logger         *log.Logger
	Now            func() time.Time
}

// Connector keeps one websocket to the token stream alive, reconnecting after
// every disconnect, and enriches each received token in the background.
type Connector struct {
	url            string
	fetcher        MetadataFetcher
	resolver       URIResolver
	moderator      Moderator
	feed           *feed.Feed
	recorder       storage.DecisionStore
	publisher      messaging.Publisher
	onStateChange  func(domain.ConnectionState)
	reconnectDelay time.Duration
	logger         *log.Logger
	now            func() time.Time
	dialer         websocket.Dialer

	mu      sync.Mutex
	state   domain.ConnectionState
	conn    *websocket.Conn
	timer   *time.Timer
	started bool
	stopped bool

	// running counts connector goroutines Stop waits for. A goroutine inside
	// OnStateChange is not counted, so the callback may call Stop.
	running int
	idle    *sync.Cond

	// notifyMu serializes transitions so OnStateChange sees them in order.
	// Lock order: notifyMu before mu.
	notifyMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewConnector creates a Connector. Call Start to begin connecting.
func NewConnector(opts Options) *Connector {
	c := &Connector{
		url:            opts.URL,
		fetcher:        opts.Fetcher,
		resolver:       opts.Resolver,
		moderator:      opts.Moderator,
		feed:           opts.Feed,
		recorder:       opts.Recorder,
		publisher:      opts.Publisher,
		onStateChange:  opts.OnStateChange,
		reconnectDelay: opts.ReconnectDelay,
		logger:         opts.Logger,
		now:            opts.Now,
		dialer:         websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		state:          domain.StateDisconnected,
	}
	c.idle = sync.NewCond(&c.mu)
	if c.fetcher == nil {
		c.fetcher = metadata.NewFetcher()
	}
	if c.moderator == nil {
		c.moderator = moderation.NewChecker(moderation.CheckerOptions{})
	}
	if c.feed == nil {
		c.feed = feed.New(feed.DefaultCapacity)
	}
	if c.reconnectDelay <= 0 {
		c.reconnectDelay = DefaultReconnectDelay
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Feed returns the feed the connector prepends to.
func (c *Connector) Feed() *feed.Feed {
	return c.feed
}

// State returns the current connection state.
func (c *Connector) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins the connect loop. It returns immediately; connection
// progress is reported through OnStateChange. Cancelling ctx stops the
// connector.
func (c *Connector) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return errors.New("connector stopped")
	}
	if c.started {
		return errors.New("connector already started")
	}
	if c.url == "" {
		return errors.New("stream url required")
	}

	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)

	c.running++
	go c.connect()

	go func() {
		<-c.ctx.Done()
		c.Stop()
	}()

	return nil
}

// Stop closes the socket, cancels any pending reconnect and in-flight
// enrichment, and waits for background work to finish. No state change
// is reported after Stop. Safe to call more than once, including from
// OnStateChange.
func (c *Connector) Stop() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.cancel()

	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}

	c.mu.Lock()
	for c.running > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()
}

// done marks the end of a goroutine counted in running.
func (c *Connector) done() {
	c.mu.Lock()
	c.release()
	c.mu.Unlock()
}

// release decrements running. c.mu must be held.
func (c *Connector) release() {
	c.running--
	if c.running == 0 {
		c.idle.Broadcast()
	}
}

// connect dials once and, on success, runs the read loop until the
// connection drops.
func (c *Connector) connect() {
	defer c.done()

	if !c.setState(domain.StateConnecting) {
		return
	}

	conn, _, err := c.dialer.DialContext(c.ctx, c.url, nil)
	if err != nil {
		c.logger.Printf("[stream] dial %s: %v", c.url, err)
		c.disconnected(nil)
		return
	}
	conn.SetReadLimit(maxMessageBytes)

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	if !c.setState(domain.StateConnected) {
		return
	}
	c.logger.Printf("[stream] connected to %s", c.url)

	c.readLoop(conn)
}

// readLoop hands every message to handleMessage and returns on the first
// read error.
func (c *Connector) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !c.isStopped() {
				c.logger.Printf("[stream] read: %v", err)
			}
			c.disconnected(conn)
			return
		}
		c.handleMessage(message)
	}
}

// disconnected moves to the disconnected state and arms the single
// reconnect timer.
func (c *Connector) disconnected(conn *websocket.Conn) {
	if conn != nil {
		conn.Close()
	}

	c.mu.Lock()
	if conn != nil && c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()

	if !c.setState(domain.StateDisconnected) {
		return
	}

	c.mu.Lock()
	if c.stopped || c.timer != nil {
		c.mu.Unlock()
		return
	}
	c.timer = time.AfterFunc(c.reconnectDelay, c.reconnect)
	c.mu.Unlock()

	observability.RecordReconnectScheduled()
}

func (c *Connector) reconnect() {
	c.mu.Lock()
	c.timer = nil
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.running++
	c.mu.Unlock()

	c.connect()
}

// setState records a transition and notifies the observer. It reports false
// once the connector is stopped, including by the observer itself. The
// caller must be a goroutine counted in running.
func (c *Connector) setState(s domain.ConnectionState) bool {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return false
	}
	c.state = s
	c.release()
	c.mu.Unlock()

	observability.RecordStateTransition(s.String())
	if c.onStateChange != nil {
		c.onStateChange(s)
	}

	c.mu.Lock()
	c.running++
	stopped := c.stopped
	c.mu.Unlock()
	return !stopped
}

func (c *Connector) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// handleMessage parses one announcement and starts its enrichment. The read
// loop never waits on enrichment.
func (c *Connector) handleMessage(message []byte) {
	var ev domain.TokenEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		c.logger.Printf("[stream] parse message: %v", err)
		observability.RecordMessageDropped(dropMalformed)
		return
	}
	if ev.Mint == "" {
		c.logger.Printf("[stream] message without mint dropped")
		observability.RecordMessageDropped(dropMissingMint)
		return
	}

	received := c.now()
	ev.Timestamp = received.UnixMilli()
	ev.MetadataAccount, _ = solana.MetadataAddress(ev.Mint)
	observability.RecordMessageReceived(float64(received.Unix()))

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.running++
	c.mu.Unlock()

	go c.enrich(ev)
}

// enrich fetches metadata, moderates the token and prepends it to the feed.
// Tokens without a uri or whose metadata cannot be fetched are added as-is.
func (c *Connector) enrich(ev domain.TokenEvent) {
	defer c.done()
	start := time.Now()

	if ev.URI == "" && c.resolver != nil {
		ev.URI = c.resolveURI(ev.Mint)
	}

	var decision *moderation.Decision
	if ev.URI != "" {
		if meta := c.fetcher.Fetch(c.ctx, ev.URI); meta != nil {
			ev.Metadata = meta

			probe := ev
			probe.Description = meta.Description
			d := c.moderator.Check(c.ctx, probe, meta)
			decision = &d

			if d.Safe {
				ev.Logo = meta.Image
			} else {
				ev.Block()
			}
			c.logger.Printf("[stream] moderation %s (%s): safe=%t stage=%s", ev.Name, ev.Mint, d.Safe, d.Stage)
		}
	}

	if c.ctx.Err() != nil {
		return
	}

	n := c.feed.Prepend(ev)
	observability.UpdateFeedSize(n)
	observability.RecordEnrichment(time.Since(start).Seconds())

	c.record(ev, decision)
	c.publish(ev, decision)
}

func (c *Connector) resolveURI(mint string) string {
	ctx, cancel := context.WithTimeout(c.ctx, resolveTimeout)
	defer cancel()

	uri, err := c.resolver.ResolveURI(ctx, mint)
	if err != nil {
		if c.ctx.Err() == nil {
			c.logger.Printf("[stream] resolve uri for %s: %v", mint, err)
		}
		return ""
	}
	return uri
}

func (c *Connector) record(ev domain.TokenEvent, d *moderation.Decision) {
	if c.recorder == nil || d == nil {
		return
	}

	decidedAt := c.now().UnixMilli()
	rec := &domain.ModerationDecision{
		DecisionID: idhash.ComputeDecisionID(ev.Mint, d.ScanKey, d.Stage, decidedAt),
		Mint:       ev.Mint,
		Safe:       d.Safe,
		Stage:      d.Stage,
		ScanKey:    d.ScanKey,
		DecidedAt:  decidedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := c.recorder.Insert(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		c.logger.Printf("[stream] record decision for %s: %v", ev.Mint, err)
	}
}

func (c *Connector) publish(ev domain.TokenEvent, d *moderation.Decision) {
	if c.publisher == nil {
		return
	}

	msg := messaging.FeedMessage{Token: ev}
	if d != nil {
		msg.Checked = true
		msg.Safe = d.Safe
		msg.Stage = d.Stage
	}
	if err := c.publisher.PublishFeedEntry(msg); err != nil {
		observability.RecordPublishError()
		c.logger.Printf("[stream] publish %s: %v", ev.Mint, err)
	}
}
