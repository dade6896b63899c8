// Package listener is a client of the Centrifugo v1 websocket protocol.
// It connects with an HMAC token, subscribes to one channel and hands the
// data of every published message to a handler.
package listener

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	methodConnect   = "connect"
	methodSubscribe = "subscribe"
	methodPublish   = "publish"
	methodMessage   = "message"

	replyTimeout = 10 * time.Second
)

var (
	ErrNotConnected = errors.New("not connected to centrifugo")
	ErrRejected     = errors.New("centrifugo rejected the command")
)

// Handler receives the data of a channel message.
type Handler func(ctx context.Context, data json.RawMessage) error

type Config struct {
	URL            string
	Channel        string
	Secret         string
	ReconnectDelay time.Duration
}

type request struct {
	UID    string `json:"uid"`
	Method string `json:"method"`
	Params params `json:"params"`
}

type params struct {
	User      string          `json:"user,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Token     string          `json:"token,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type response struct {
	UID    string `json:"uid"`
	Method string `json:"method"`
	Error  string `json:"error"`
	Body   *body  `json:"body"`
}

type body struct {
	UID     string          `json:"uid"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	now    func() time.Time
	logger *zap.Logger

	// mu guards conn and serializes writes to it.
	mu   sync.Mutex
	conn *websocket.Conn
}

func New(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		now:    time.Now,
		logger: logger.Named("listener"),
	}
}

// Token signs user+timestamp with secret: HMAC-SHA256 as lowercase hex.
func Token(secret, user, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(user + timestamp))

	return hex.EncodeToString(mac.Sum(nil))
}

// Connect dials the server and authenticates with a fresh user nonce.
// A previous connection is closed.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dialing centrifugo: %w", err)
	}

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.mu.Unlock()

	user := uuid.NewString()
	timestamp := strconv.FormatInt(c.now().Unix(), 10)

	err = c.call(conn, methodConnect, params{
		User:      user,
		Timestamp: timestamp,
		Token:     Token(c.cfg.Secret, user, timestamp),
	})
	if err != nil {
		c.drop(conn)
		return err
	}

	c.logger.Info("connected", zap.String("url", c.cfg.URL), zap.String("user", user))

	return nil
}

func (c *Client) Subscribe(_ context.Context, channel string) error {
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}

	if err := c.call(conn, methodSubscribe, params{Channel: channel}); err != nil {
		return err
	}

	c.logger.Info("subscribed", zap.String("channel", channel))

	return nil
}

// Publish sends data to channel. The reply is not awaited: it arrives on
// the receive loop, which ignores everything but channel messages.
func (c *Client) Publish(_ context.Context, channel string, data json.RawMessage) error {
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}

	return c.send(conn, methodPublish, params{Channel: channel, Data: data})
}

// Listen runs the receive loop until ctx is done. Every drop is followed
// by one connect and subscribe; failed attempts are retried after
// ReconnectDelay. Malformed messages and handler errors are logged and
// the loop goes on.
func (c *Client) Listen(ctx context.Context, handler Handler) error {
	stop := context.AfterFunc(ctx, func() {
		if conn := c.current(); conn != nil {
			_ = conn.Close()
		}
	})
	defer stop()

	for {
		if err := ctx.Err(); err != nil {
			c.Close()
			return err
		}

		conn := c.current()
		if conn == nil {
			if err := c.reconnect(ctx); err != nil {
				c.logger.Error("reconnect failed", zap.Error(err), zap.Duration("retry_in", c.cfg.ReconnectDelay))

				select {
				case <-ctx.Done():
				case <-time.After(c.cfg.ReconnectDelay):
				}
			}

			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.drop(conn)

			if ctx.Err() == nil {
				c.logger.Warn("disconnected, reconnecting", zap.Error(err))
			}

			continue
		}

		c.dispatch(ctx, data, handler)
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) reconnect(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	if err := c.Subscribe(ctx, c.cfg.Channel); err != nil {
		c.drop(c.current())
		return err
	}

	// Closes a connection made after ctx was cancelled.
	if ctx.Err() != nil {
		c.drop(c.current())
	}

	return nil
}

func (c *Client) dispatch(ctx context.Context, data []byte, handler Handler) {
	var msg response
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Error("malformed message", zap.Error(err), zap.ByteString("data", data))
		return
	}

	if msg.Method != methodMessage || msg.Body == nil {
		c.logger.Debug("skipping reply", zap.String("method", msg.Method), zap.String("uid", msg.UID))
		return
	}

	c.logger.Debug("message received", zap.String("channel", msg.Body.Channel), zap.String("uid", msg.Body.UID))

	if err := handler(ctx, msg.Body.Data); err != nil {
		c.logger.Error("handling message", zap.Error(err), zap.String("uid", msg.Body.UID))
	}
}

// call sends a command and waits for its reply on conn. It must not be
// used while Listen is reading from the same connection.
func (c *Client) call(conn *websocket.Conn, method string, p params) error {
	if err := c.send(conn, method, p); err != nil {
		return err
	}

	if err := conn.SetReadDeadline(time.Now().Add(replyTimeout)); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer conn.SetReadDeadline(time.Time{})

	var reply response
	if err := conn.ReadJSON(&reply); err != nil {
		return fmt.Errorf("reading %s reply: %w", method, err)
	}

	if reply.Error != "" {
		return fmt.Errorf("%w: %s: %s", ErrRejected, method, reply.Error)
	}

	return nil
}

func (c *Client) send(conn *websocket.Conn, method string, p params) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := conn.WriteJSON(request{UID: uuid.NewString(), Method: method, Params: p}); err != nil {
		return fmt.Errorf("sending %s: %w", method, err)
	}

	return nil
}

func (c *Client) current() *websocket.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn
}

// drop closes conn and forgets it unless it was already replaced.
func (c *Client) drop(conn *websocket.Conn) {
	if conn == nil {
		return
	}

	_ = conn.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == conn {
		c.conn = nil
	}
}
