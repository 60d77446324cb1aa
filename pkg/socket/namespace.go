package socket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
)

// MiddlewareFunc runs during the handshake, before the connection is
// upgraded. Returning an error rejects the client with 401.
// Values stored with Conn.Set are kept on the connection.
type MiddlewareFunc func(c *Conn) error

// ConnectHandler is called once for every accepted connection.
type ConnectHandler func(c *Conn) error

// Namespace is a named channel clients connect to at <path>/<name>.
type Namespace struct {
	name   string
	server *Server

	mu        sync.RWMutex
	mws       []MiddlewareFunc
	onConnect []ConnectHandler
	handlers  map[string][]EventHandler
	conns     map[string]*Conn
}

func newNamespace(s *Server, name string) *Namespace {
	return &Namespace{
		name:     name,
		server:   s,
		handlers: make(map[string][]EventHandler),
		conns:    make(map[string]*Conn),
	}
}

// Name returns the namespace name.
func (ns *Namespace) Name() string { return ns.name }

// Use adds handshake middleware.
func (ns *Namespace) Use(mw ...MiddlewareFunc) *Namespace {
	ns.mu.Lock()
	ns.mws = append(ns.mws, mw...)
	ns.mu.Unlock()
	return ns
}

// OnConnect adds a handler called for each new connection.
func (ns *Namespace) OnConnect(h ConnectHandler) *Namespace {
	ns.mu.Lock()
	ns.onConnect = append(ns.onConnect, h)
	ns.mu.Unlock()
	return ns
}

// On registers a handler for a client event on every connection.
func (ns *Namespace) On(event string, h EventHandler) *Namespace {
	ns.mu.Lock()
	ns.handlers[event] = append(ns.handlers[event], h)
	ns.mu.Unlock()
	return ns
}

// Len returns the number of connected clients.
func (ns *Namespace) Len() int {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return len(ns.conns)
}

// Emit broadcasts an event to every client of the namespace, including
// clients connected to other instances when a broker is configured.
func (ns *Namespace) Emit(ctx context.Context, event string, data any) error {
	msg, err := NewMessage(event, data)
	if err != nil {
		return err
	}
	ns.broadcast(msg)

	if ns.server.broker == nil {
		return nil
	}
	return ns.server.broker.Publish(ctx, Envelope{
		Origin:    ns.server.id,
		Namespace: ns.name,
		Message:   msg,
	})
}

// broadcast delivers msg to local clients only.
func (ns *Namespace) broadcast(msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	ns.mu.RLock()
	conns := make([]*Conn, 0, len(ns.conns))
	for _, c := range ns.conns {
		conns = append(conns, c)
	}
	ns.mu.RUnlock()

	for _, c := range conns {
		if err := c.enqueue(b); err != nil {
			ns.server.logger.Debug("socket broadcast dropped",
				slog.String("namespace", ns.name),
				slog.String("conn", c.id),
				slog.Any("error", err),
			)
		}
	}
}

func (ns *Namespace) handlersFor(event string) []EventHandler {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return append([]EventHandler(nil), ns.handlers[event]...)
}

func (ns *Namespace) add(c *Conn) {
	ns.mu.Lock()
	ns.conns[c.id] = c
	ns.mu.Unlock()
}

func (ns *Namespace) remove(c *Conn) {
	ns.mu.Lock()
	delete(ns.conns, c.id)
	ns.mu.Unlock()
}

func (ns *Namespace) closeAll() {
	ns.mu.RLock()
	conns := make([]*Conn, 0, len(ns.conns))
	for _, c := range ns.conns {
		conns = append(conns, c)
	}
	ns.mu.RUnlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

// serve authenticates the handshake, upgrades and runs the pumps.
func (ns *Namespace) serve(w http.ResponseWriter, r *http.Request) {
	s := ns.server
	c := newConn(ns, r, s.cfg.SendBuffer)

	ns.mu.RLock()
	mws := append([]MiddlewareFunc(nil), ns.mws...)
	onConnect := append([]ConnectHandler(nil), ns.onConnect...)
	ns.mu.RUnlock()

	for _, mw := range mws {
		if err := mw(c); err != nil {
			s.logger.Debug("socket handshake rejected",
				slog.String("namespace", ns.name),
				slog.Any("error", err),
			)
			http.Error(w, ErrUnauthorized.Error(), http.StatusUnauthorized)
			return
		}
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		return
	}
	c.ws = ws

	ns.add(c)
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.writePump(s.cfg)
	}()
	go func() {
		defer s.wg.Done()
		defer ns.remove(c)
		c.readPump(s.cfg)
	}()

	for _, h := range onConnect {
		if err := h(c); err != nil {
			s.logger.Warn("socket connect handler failed",
				slog.String("namespace", ns.name),
				slog.Any("error", err),
			)
			_ = c.Close()
			return
		}
	}
}
