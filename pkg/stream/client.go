package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rakuworks/pdbot/pkg/logger"
)

const (
	reconnectBaseDelay = 2 * time.Second
	reconnectMaxDelay  = 60 * time.Second
)

// ConnectUser is the identity the client connects as.
type ConnectUser struct {
	ID     string
	Name   string
	Image  string
	Token  string
	APIKey string
}

// Client is the realtime chat transport: a websocket event stream for
// inbound events and a REST surface for outbound calls. Events are
// dispatched sequentially from a single read loop.
type Client struct {
	apiBase string
	wsBase  string
	http    *resty.Client

	mu        sync.Mutex
	user      ConnectUser
	conn      *websocket.Conn
	connected bool
	handlers  map[string][]Handler
	watched   map[string]ChannelRef
	cancel    context.CancelFunc
}

func NewClient(apiBase, wsBase string) *Client {
	return &Client{
		apiBase: apiBase,
		wsBase:  wsBase,
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
		handlers: make(map[string][]Handler),
		watched:  make(map[string]ChannelRef),
	}
}

// BotUserID returns the connected user's id, empty before Connect.
func (c *Client) BotUserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user.ID
}

// On registers a handler for an event type. Registration is expected at
// startup, before events flow.
func (c *Client) On(eventType string, h Handler) {
	c.mu.Lock()
	c.handlers[eventType] = append(c.handlers[eventType], h)
	c.mu.Unlock()
}

// Connect establishes the websocket session and starts the read loop. The
// loop reconnects with capped exponential backoff until ctx is cancelled or
// Close is called.
func (c *Client) Connect(ctx context.Context, user ConnectUser) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		logger.WarnC("stream", "Already connected")
		return nil
	}
	c.user = user
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("stream: connect: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.cancel = cancel
	c.mu.Unlock()

	go c.readLoop(loopCtx)

	logger.InfoCF("stream", "Connected", map[string]interface{}{"user_id": user.ID})
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()

	payload, err := json.Marshal(map[string]interface{}{
		"user_id": user.ID,
		"user_details": map[string]string{
			"id":    user.ID,
			"name":  user.Name,
			"image": user.Image,
		},
		"client_id": uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("api_key", user.APIKey)
	q.Set("authorization", user.Token)
	q.Set("stream-auth-type", "jwt")
	q.Set("json", string(payload))

	wsURL := c.wsBase + "/connect?" + q.Encode()
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client) readLoop(ctx context.Context) {
	delay := reconnectBaseDelay
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}

			// Reconnect replaces the connection and closes the old one, which
			// wakes this read with an error. Adopt the replacement instead of
			// dialing a competing socket.
			if c.connReplaced(conn) {
				delay = reconnectBaseDelay
				continue
			}

			logger.WarnCF("stream", "Socket read failed, reconnecting", map[string]interface{}{
				"error": err.Error(),
				"delay": delay.String(),
			})
			conn.Close()

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}

			fresh, dialErr := c.dial(ctx)
			if dialErr != nil {
				logger.ErrorCF("stream", "Reconnect failed", map[string]interface{}{
					"error": dialErr.Error(),
				})
				continue
			}
			c.mu.Lock()
			if c.conn != conn {
				// Reconnect won the race during the backoff window.
				c.mu.Unlock()
				fresh.Close()
				delay = reconnectBaseDelay
				continue
			}
			c.conn = fresh
			c.mu.Unlock()
			c.rewatch(ctx)
			delay = reconnectBaseDelay
			continue
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.DebugCF("stream", "Dropping undecodable event", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		if ev.Type == "" || ev.Type == EventHealthCheck {
			continue
		}
		c.dispatch(&ev)
	}
}

// connReplaced reports whether the read loop's connection is no longer the
// client's current one.
func (c *Client) connReplaced(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != conn
}

func (c *Client) dispatch(ev *Event) {
	c.mu.Lock()
	handlers := make([]Handler, len(c.handlers[ev.Type]))
	copy(handlers, c.handlers[ev.Type])
	c.mu.Unlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorCF("stream", "Event handler panicked", map[string]interface{}{
						"type":  ev.Type,
						"panic": fmt.Sprint(r),
					})
				}
			}()
			h(ev)
		}()
	}
}

func (c *Client) rewatch(ctx context.Context) {
	c.mu.Lock()
	refs := make([]ChannelRef, 0, len(c.watched))
	for _, ref := range c.watched {
		refs = append(refs, ref)
	}
	c.mu.Unlock()

	for _, ref := range refs {
		if err := c.WatchChannel(ctx, ref); err != nil {
			logger.WarnCF("stream", "Re-watch failed", map[string]interface{}{
				"cid":   ref.CID(),
				"error": err.Error(),
			})
		}
	}
}

// Reconnect tears down the session and dials again with updated credentials.
// Registered as a token-refresh listener so the realtime session follows the
// identity provider's token rotation.
func (c *Client) Reconnect(ctx context.Context, user ConnectUser) error {
	c.mu.Lock()
	old := c.conn
	c.user = user
	c.mu.Unlock()

	fresh, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("stream: reconnect: %w", err)
	}

	c.mu.Lock()
	c.conn = fresh
	c.mu.Unlock()
	if old != nil {
		old.Close()
	}
	c.rewatch(ctx)
	logger.InfoC("stream", "Session re-established with fresh credentials")
	return nil
}

// Close shuts the socket down and stops the read loop.
func (c *Client) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}
