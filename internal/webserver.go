package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/rapid/pkg/health"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultPort              = 9090
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// WebserverConfig is decoded from the "webserver" config section.
type WebserverConfig struct {
	Address string `yaml:"address"`
	// Port is a number, "auto" for any free port, or a list of preferred
	// ports tried in order.
	Port            any           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
}

// DefaultWebserverConfig returns the settings used for missing keys.
func DefaultWebserverConfig() WebserverConfig {
	return WebserverConfig{
		Port:            defaultPort,
		ShutdownTimeout: defaultShutdownTimeout,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		IdleTimeout:     defaultIdleTimeout,
	}
}

// Ports returns the candidate ports in preference order. 0 means any.
func (c WebserverConfig) Ports() ([]int, error) {
	return parsePorts(c.Port)
}

func parsePorts(v any) ([]int, error) {
	switch p := v.(type) {
	case nil:
		return []int{defaultPort}, nil
	case int:
		if p < 0 || p > 65535 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPort, p)
		}
		return []int{p}, nil
	case int64:
		return parsePorts(int(p))
	case float64:
		return parsePorts(int(p))
	case string:
		s := strings.TrimSpace(p)
		if s == "" {
			return []int{defaultPort}, nil
		}
		if strings.EqualFold(s, "auto") {
			return []int{0}, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPort, s)
		}
		return parsePorts(n)
	case []int:
		out := make([]int, 0, len(p))
		for _, item := range p {
			ports, err := parsePorts(item)
			if err != nil {
				return nil, err
			}
			out = append(out, ports...)
		}
		return out, nil
	case []any:
		out := make([]int, 0, len(p))
		for _, item := range p {
			ports, err := parsePorts(item)
			if err != nil {
				return nil, err
			}
			out = append(out, ports...)
		}
		if len(out) == 0 {
			return []int{defaultPort}, nil
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidPort, v)
	}
}

// HTTPServer is the default Webserver, a chi router served by net/http.
// The API router is mounted under /api, health endpoints under /health.
type HTTPServer struct {
	app   *App
	cfg   WebserverConfig
	ports []int

	mu          sync.Mutex
	middlewares []Middleware
	root        chi.Router
	api         Router
	server      *http.Server
	port        int
	errCh       chan error
	started     bool
	stopped     bool
}

// NewHTTPServer creates an HTTPServer for app.
func NewHTTPServer(app *App, cfg WebserverConfig) (*HTTPServer, error) {
	ports, err := cfg.Ports()
	if err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &HTTPServer{
		app:   app,
		cfg:   cfg,
		ports: ports,
		errCh: make(chan error, 1),
	}, nil
}

// ShutdownTimeout returns the graceful shutdown budget.
func (s *HTTPServer) ShutdownTimeout() time.Duration { return s.cfg.ShutdownTimeout }

// Use queues middleware. It must be called before Start; later calls are
// ignored because chi rejects middleware after routes.
func (s *HTTPServer) Use(mw ...Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.app.logger.Warn("webserver middleware added after start is ignored")
		return
	}
	s.middlewares = append(s.middlewares, mw...)
}

// Start builds the router tree.
func (s *HTTPServer) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}

	r := chi.NewRouter()
	for _, mw := range s.middlewares {
		r.Use(s.app.adaptMiddleware(mw))
	}
	r.NotFound(s.app.adaptHandler(func(c Context) error {
		return ErrNotFound("Not found.")
	}))
	r.MethodNotAllowed(s.app.adaptHandler(func(c Context) error {
		return NewHTTPError(http.StatusMethodNotAllowed, "Method not allowed.")
	}))
	r.Mount("/health", health.Routes(s.app.healthChecksFor, health.WithLogger(s.app.logger)))

	api := chi.NewRouter()
	r.Mount("/api", api)

	s.root = r
	s.api = newRouterAdapter(api, s.app)
	s.started = true
	return nil
}

// Listen binds the first available candidate port and serves in the
// background. Serve failures are reported on Errors.
func (s *HTTPServer) Listen(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	if s.server != nil {
		return ErrAlreadyStarted
	}

	ln, err := s.listen()
	if err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           s.root,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(s.app.logger.Handler(), slog.LevelError),
	}
	s.port = ln.Addr().(*net.TCPAddr).Port

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- err
		}
		close(s.errCh)
	}()

	s.app.logger.Info("webserver listening",
		slog.String("address", ln.Addr().String()),
		slog.Int("port", s.port),
	)
	return nil
}

func (s *HTTPServer) listen() (net.Listener, error) {
	var errs []error
	for _, port := range s.ports {
		ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Address, strconv.Itoa(port)))
		if err == nil {
			return ln, nil
		}
		s.app.logger.Debug("port unavailable", slog.Int("port", port), slog.Any("error", err))
		errs = append(errs, err)
	}
	return nil, errors.Join(append([]error{ErrNoPortAvailable}, errs...)...)
}

// Stop shuts the server down gracefully. It is safe to call more than once.
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.server == nil {
		s.stopped = true
		return nil
	}
	s.stopped = true

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	return s.server.Shutdown(ctx)
}

// Errors returns a channel receiving a serve failure, closed once serving ends.
func (s *HTTPServer) Errors() <-chan error { return s.errCh }

// Router returns the API router, or nil before Start.
func (s *HTTPServer) Router() Router {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.api
}

// Port returns the bound port, or 0 before Listen.
func (s *HTTPServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Handler returns the root handler, or nil before Start.
func (s *HTTPServer) Handler() http.Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root == nil {
		return nil
	}
	return s.root
}

// Mount attaches h on the root router, outside /api.
func (s *HTTPServer) Mount(pattern string, h http.Handler) {
	s.mu.Lock()
	r := s.root
	s.mu.Unlock()
	if r == nil {
		s.app.logger.Warn("webserver mount before start is ignored", slog.String("pattern", pattern))
		return
	}
	r.Mount(pattern, h)
}
