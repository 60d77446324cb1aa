package socket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Message is the JSON frame exchanged with clients.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessage encodes data into a Message for event.
func NewMessage(event string, data any) (Message, error) {
	msg := Message{Event: event}
	if data == nil {
		return msg, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return Message{}, errors.Join(ErrInvalidMessage, err)
	}
	msg.Data = b
	return msg, nil
}

// EventHandler handles one client event on a connection.
type EventHandler func(c *Conn, data json.RawMessage) error

// Conn is one client connected to a namespace.
type Conn struct {
	id  string
	ns  *Namespace
	req *http.Request
	ws  *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	values   map[string]any
	handlers map[string][]EventHandler
}

func newConn(ns *Namespace, r *http.Request, buffer int) *Conn {
	return &Conn{
		id:       uuid.NewString(),
		ns:       ns,
		req:      r,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		values:   make(map[string]any),
		handlers: make(map[string][]EventHandler),
	}
}

// ID returns the connection ID.
func (c *Conn) ID() string { return c.id }

// Namespace returns the namespace the client connected to.
func (c *Conn) Namespace() *Namespace { return c.ns }

// Request returns the handshake request.
func (c *Conn) Request() *http.Request { return c.req }

// Set stores a value on the connection, e.g. the authenticated user.
func (c *Conn) Set(key string, v any) {
	c.mu.Lock()
	c.values[key] = v
	c.mu.Unlock()
}

// Get returns a value stored with Set.
func (c *Conn) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// On registers a handler for a client event on this connection.
func (c *Conn) On(event string, h EventHandler) *Conn {
	c.mu.Lock()
	c.handlers[event] = append(c.handlers[event], h)
	c.mu.Unlock()
	return c
}

// Emit sends an event to this client.
func (c *Conn) Emit(event string, data any) error {
	msg, err := NewMessage(event, data)
	if err != nil {
		return err
	}
	return c.write(msg)
}

func (c *Conn) write(msg Message) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Join(ErrInvalidMessage, err)
	}
	return c.enqueue(b)
}

func (c *Conn) enqueue(b []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// Close disconnects the client.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

// Closed reports whether the connection was closed.
func (c *Conn) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Conn) dispatch(msg Message) {
	c.mu.RLock()
	local := append([]EventHandler(nil), c.handlers[msg.Event]...)
	c.mu.RUnlock()

	for _, h := range append(local, c.ns.handlersFor(msg.Event)...) {
		if err := h(c, msg.Data); err != nil {
			c.ns.server.logger.Warn("socket event handler failed",
				slog.String("namespace", c.ns.name),
				slog.String("event", msg.Event),
				slog.Any("error", err),
			)
			_ = c.Emit("error", map[string]string{"message": err.Error()})
		}
	}
}

// readPump reads frames until the client goes away or the conn is closed.
func (c *Conn) readPump(cfg Config) {
	defer c.Close()

	c.ws.SetReadLimit(cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.ns.server.logger.Debug("socket read failed", slog.String("conn", c.id), slog.Any("error", err))
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
			_ = c.Emit("error", map[string]string{"message": ErrInvalidMessage.Error()})
			continue
		}
		c.dispatch(msg)
	}
}

// writePump owns every write to the websocket.
func (c *Conn) writePump(cfg Config) {
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case b := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
