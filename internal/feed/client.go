package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"unicorn-dashboard/internal/logging"
	"unicorn-dashboard/internal/observability"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("feed client closed")

// Config configures WebSocket client behavior.
type Config struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription acknowledgement.
	SubscribeTimeout time.Duration
	// Buffer is the capacity of the event channel.
	Buffer int
}

// DefaultConfig returns default WebSocket configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		SubscribeTimeout:  10 * time.Second,
		Buffer:            1024,
	}
}

// Client is a reconnecting feed subscriber.
type Client struct {
	endpoint string
	config   Config
	log      logrus.FieldLogger
	metrics  *observability.Metrics

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// events is created by the first Subscribe; channels are kept for
	// resubscription after reconnect.
	events   chan Event
	channels []EventType
	subMu    sync.Mutex

	// pending maps request ID to the channel waiting for its acknowledgement
	pending   map[uint64]chan error
	pendingMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewClient connects to endpoint. A nil config selects DefaultConfig;
// logger and metrics may be nil.
func NewClient(ctx context.Context, endpoint string, config *Config, logger logrus.FieldLogger, metrics *observability.Metrics) (*Client, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = logging.Discard()
	}

	c := &Client{
		endpoint: endpoint,
		config:   cfg,
		log:      logger.WithField("component", "feed"),
		metrics:  metrics,
		pending:  make(map[uint64]chan error),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	c.conn = conn
	return nil
}

// Subscribe requests the given event types (all when empty) and returns the
// event channel. The channel is closed by Close. Calling Subscribe again
// replaces the channel set and returns the same channel.
func (c *Client) Subscribe(ctx context.Context, channels ...EventType) (<-chan Event, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if len(channels) == 0 {
		channels = Channels
	}

	// The channel exists before the request goes out so events sent right
	// after the acknowledgement are kept.
	c.subMu.Lock()
	if c.events == nil {
		c.events = make(chan Event, c.config.Buffer)
	}
	events := c.events
	c.subMu.Unlock()

	if err := c.subscribe(ctx, channels); err != nil {
		return nil, err
	}

	c.subMu.Lock()
	c.channels = append([]EventType(nil), channels...)
	c.subMu.Unlock()
	return events, nil
}

// subscribe sends a subscribe request and waits for its acknowledgement.
func (c *Client) subscribe(ctx context.Context, channels []EventType) error {
	reqID := c.requestID.Add(1)
	ack := make(chan error, 1)
	c.pendingMu.Lock()
	c.pending[reqID] = ack
	c.pendingMu.Unlock()

	forget := func() {
		c.pendingMu.Lock()
		delete(c.pending, reqID)
		c.pendingMu.Unlock()
	}

	req := subscribeRequest{Type: "subscribe", ID: reqID, Channels: channels}
	if err := c.writeJSON(req); err != nil {
		forget()
		return fmt.Errorf("write subscribe: %w", err)
	}

	timer := time.NewTimer(c.config.SubscribeTimeout)
	defer timer.Stop()

	select {
	case err, ok := <-ack:
		if !ok {
			return ErrClosed
		}
		return err
	case <-timer.C:
		forget()
		return fmt.Errorf("subscription timeout after %s", c.config.SubscribeTimeout)
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		forget()
		return ctx.Err()
	}
}

func (c *Client) writeJSON(v any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	return c.conn.WriteJSON(v)
}

// Close closes the connection and the event channel.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	c.subMu.Lock()
	if c.events != nil {
		close(c.events)
	}
	c.subMu.Unlock()
	return nil
}

// readLoop reads messages and reconnects with exponential backoff on error.
func (c *Client) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			// A previous reconnect failed; try again with backoff.
			if !c.reconnecting.Swap(true) {
				c.wg.Add(1)
				go c.reconnect(nil, reconnectDelay)
				reconnectDelay = c.nextDelay(reconnectDelay)
			}
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			if !c.reconnecting.Swap(true) {
				c.log.WithError(err).WithField("delay", reconnectDelay).Warn("feed connection lost, reconnecting")
				c.wg.Add(1)
				go c.reconnect(conn, reconnectDelay)
			}

			reconnectDelay = c.nextDelay(reconnectDelay)

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

func (c *Client) nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > c.config.MaxReconnectDelay {
		d = c.config.MaxReconnectDelay
	}
	return d
}

// reconnect replaces the broken connection and resubscribes.
func (c *Client) reconnect(broken *websocket.Conn, delay time.Duration) {
	defer c.wg.Done()
	defer c.reconnecting.Store(false)

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}
	c.metrics.RecordFeedReconnect()

	c.connMu.Lock()
	if c.conn != nil && c.conn == broken {
		c.conn.Close()
		c.conn = nil
	}
	current := c.conn
	c.connMu.Unlock()
	if current != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		// The read loop retries on its next pass.
		c.log.WithError(err).Warn("feed reconnect failed")
		return
	}

	c.subMu.Lock()
	channels := append([]EventType(nil), c.channels...)
	c.subMu.Unlock()
	if len(channels) == 0 {
		return
	}

	// The acknowledgement is delivered by the read loop.
	go func() {
		subCtx, cancel := context.WithTimeout(context.Background(), c.config.SubscribeTimeout)
		defer cancel()
		if err := c.subscribe(subCtx, channels); err != nil && !errors.Is(err, ErrClosed) {
			c.log.WithError(err).Warn("feed resubscribe failed")
		}
	}()
}

// handleMessage routes acknowledgements, errors and events.
func (c *Client) handleMessage(message []byte) {
	received := time.Now()

	var env envelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.log.WithError(err).Debug("undecodable feed message")
		return
	}

	switch env.Type {
	case "subscribed":
		c.resolve(env.ID, nil)
		return
	case "error":
		c.log.WithFields(logrus.Fields{"id": env.ID, "message": env.Message}).Warn("feed error response")
		c.resolve(env.ID, fmt.Errorf("feed: %s", env.Message))
		return
	}

	var ev Event
	if err := json.Unmarshal(message, &ev); err != nil || !ev.Valid() {
		c.log.WithField("type", env.Type).Debug("ignoring malformed feed event")
		return
	}

	c.subMu.Lock()
	events := c.events
	c.subMu.Unlock()
	if events == nil {
		return
	}

	// Block until delivered; events are never dropped.
	select {
	case events <- ev:
		c.metrics.RecordFeedMessage(string(ev.Type), time.Since(received))
	case <-c.done:
	}
}

func (c *Client) resolve(id uint64, err error) {
	c.pendingMu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	if ok {
		ch <- err
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				// A dead connection surfaces in the read loop.
				_ = c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.connMu.Unlock()
		}
	}
}
