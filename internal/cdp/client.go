package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Sentinel errors for the control channel.
var (
	ErrClientClosed = errors.New("cdp: control channel is closed")
)

const handshakeTimeout = 10 * time.Second

// EventHandler receives protocol events. Handlers run on the read loop
// goroutine and must not block.
type EventHandler func(method, sessionID string, params json.RawMessage)

// Client is one open control-channel connection to a browser's DevTools
// endpoint. It correlates JSON commands with their responses and fans
// protocol events out to subscribers. Safe for concurrent use.
type Client struct {
	conn   *websocket.Conn
	logger *zap.Logger

	// writeMu serializes frame writes; gorilla connections allow only one
	// concurrent writer.
	writeMu sync.Mutex

	nextID    atomic.Int64
	pendingMu sync.Mutex
	pending   map[int64]chan *message

	handlersMu    sync.RWMutex
	handlers      map[int64]EventHandler
	nextHandlerID int64

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens the control channel to wsURL. A nil logger disables logging.
func Dial(ctx context.Context, wsURL string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("cdp: dialing %s: %w", wsURL, err)
	}
	c := &Client{
		conn:     conn,
		logger:   logger,
		pending:  make(map[int64]chan *message),
		handlers: make(map[int64]EventHandler),
		closed:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Call sends one command and blocks until its response, ctx cancellation, or
// channel shutdown. sessionID may be empty for browser-level commands.
// A non-nil result receives the unmarshalled response payload.
func (c *Client) Call(ctx context.Context, sessionID, method string, params, result any) error {
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("cdp: encoding %s params: %w", method, err)
		}
		raw = b
	}

	id := c.nextID.Add(1)
	ch := make(chan *message, 1)

	c.pendingMu.Lock()
	select {
	case <-c.closed:
		c.pendingMu.Unlock()
		return ErrClientClosed
	default:
	}
	c.pending[id] = ch
	c.pendingMu.Unlock()

	msg := message{ID: id, SessionID: sessionID, Method: method, Params: raw}
	c.writeMu.Lock()
	err := c.conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		c.dropPending(id)
		return fmt.Errorf("cdp: sending %s: %w", method, err)
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return fmt.Errorf("cdp: %s: %w", method, resp.Error)
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("cdp: decoding %s response: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		c.dropPending(id)
		return ctx.Err()
	case <-c.closed:
		return ErrClientClosed
	}
}

// OnEvent registers an event handler and returns its removal function.
func (c *Client) OnEvent(fn EventHandler) (cancel func()) {
	c.handlersMu.Lock()
	c.nextHandlerID++
	id := c.nextHandlerID
	c.handlers[id] = fn
	c.handlersMu.Unlock()

	return func() {
		c.handlersMu.Lock()
		delete(c.handlers, id)
		c.handlersMu.Unlock()
	}
}

// Close shuts the channel down and fails every pending call. Idempotent;
// secondary errors during teardown are logged, not returned.
func (c *Client) Close() error {
	c.shutdown(nil)
	return nil
}

func (c *Client) shutdown(cause error) {
	c.closeOnce.Do(func() {
		close(c.closed)
		if cause != nil {
			c.logger.Debug("control channel closed", zap.Error(cause))
		}

		c.writeMu.Lock()
		err := c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		if err != nil {
			c.logger.Debug("sending close frame", zap.Error(err))
		}
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("closing websocket", zap.Error(err))
		}

		c.pendingMu.Lock()
		c.pending = make(map[int64]chan *message)
		c.pendingMu.Unlock()
	})
}

func (c *Client) dropPending(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// readLoop dispatches incoming frames: responses to their pending call,
// events to every registered handler. Runs until the connection dies.
func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
			default:
				c.shutdown(err)
			}
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("discarding malformed frame", zap.Error(err))
			continue
		}

		if msg.ID != 0 {
			c.pendingMu.Lock()
			ch, ok := c.pending[msg.ID]
			if ok {
				delete(c.pending, msg.ID)
			}
			c.pendingMu.Unlock()
			if ok {
				ch <- &msg
			}
			continue
		}

		if msg.Method == "" {
			continue
		}
		c.handlersMu.RLock()
		handlers := make([]EventHandler, 0, len(c.handlers))
		for _, fn := range c.handlers {
			handlers = append(handlers, fn)
		}
		c.handlersMu.RUnlock()
		for _, fn := range handlers {
			fn(msg.Method, msg.SessionID, msg.Params)
		}
	}
}
