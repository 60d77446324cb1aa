package socket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Mounter attaches an http.Handler at a path pattern.
// The application webserver implements it.
type Mounter interface {
	Mount(pattern string, h http.Handler)
}

// Server is a namespaced WebSocket server.
type Server struct {
	id       string
	cfg      Config
	logger   *slog.Logger
	broker   Broker
	upgrader websocket.Upgrader

	mu         sync.RWMutex
	namespaces map[string]*Namespace
	started    bool
	closed     bool
	cancel     context.CancelFunc

	wg sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBroker fans emitted events out to other server instances.
func WithBroker(b Broker) Option {
	return func(s *Server) {
		s.broker = b
	}
}

// NewServer creates a Server. Namespaces can be declared before Start.
func NewServer(cfg Config, opts ...Option) *Server {
	s := &Server{
		id:         uuid.NewString(),
		cfg:        cfg.withDefaults(),
		logger:     slog.Default(),
		namespaces: make(map[string]*Namespace),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Path returns the path prefix the server is mounted at.
func (s *Server) Path() string { return s.cfg.Path }

// Namespace returns the namespace called name, creating it on first use.
// The empty name and "/" both refer to the root namespace.
func (s *Server) Namespace(name string) *Namespace {
	name = strings.Trim(name, "/")
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, ok := s.namespaces[name]
	if !ok {
		ns = newNamespace(s, name)
		s.namespaces[name] = ns
	}
	return ns
}

// Start mounts the server on m and starts consuming the broker.
func (s *Server) Start(ctx context.Context, m Mounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}

	m.Mount(s.cfg.Path, s)

	if s.broker != nil {
		bctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancel = cancel
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.broker.Subscribe(bctx, s.deliver); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("socket broker subscription ended", slog.Any("error", err))
			}
		}()
	}

	s.started = true
	s.logger.Info("socket server started", slog.String("path", s.cfg.Path))
	return nil
}

// Stop disconnects every client and closes the broker.
// It waits for connection goroutines until ctx is done. Calling Stop again
// is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	namespaces := make([]*Namespace, 0, len(s.namespaces))
	for _, ns := range s.namespaces {
		namespaces = append(namespaces, ns)
	}
	cancel := s.cancel
	s.mu.Unlock()

	for _, ns := range namespaces {
		ns.closeAll()
	}
	if cancel != nil {
		cancel()
	}

	var errs []error
	if s.broker != nil {
		if err := s.broker.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}
	return errors.Join(errs...)
}

// Healthcheck reports whether the server accepts connections.
func (s *Server) Healthcheck(ctx context.Context) error {
	s.mu.RLock()
	started, closed := s.started, s.closed
	s.mu.RUnlock()
	if closed || !started {
		return ErrServerClosed
	}
	if hc, ok := s.broker.(interface{ Healthcheck(context.Context) error }); ok {
		return hc.Healthcheck(ctx)
	}
	return nil
}

// ServeHTTP routes the handshake to the namespace named by the path
// segment after the server path.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	closed := s.closed
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, s.cfg.Path), "/")
	ns, ok := s.namespaces[name]
	s.mu.RUnlock()

	if closed {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.Error(w, ErrUnknownNamespace.Error(), http.StatusNotFound)
		return
	}
	ns.serve(w, r)
}

// deliver broadcasts envelopes published by other instances.
func (s *Server) deliver(env Envelope) {
	if env.Origin == s.id {
		return
	}
	s.mu.RLock()
	ns, ok := s.namespaces[env.Namespace]
	s.mu.RUnlock()
	if ok {
		ns.broadcast(env.Message)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && slices.Contains(s.cfg.AllowedOrigins, u.Host)
}
