package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/rapid/internal"
)

// DefaultCORSMaxAge is the default preflight cache duration.
const DefaultCORSMaxAge = 12 * time.Hour

// CORSConfig configures the CORS middleware. It is also the shape of the
// webserver.cors config section.
type CORSConfig struct {
	// AllowOrigins lists allowed origins. "*" allows any origin.
	AllowOrigins []string `yaml:"allowOrigins"`

	// AllowOriginFunc overrides AllowOrigins when set.
	AllowOriginFunc func(origin string) bool `yaml:"-"`

	AllowMethods  []string `yaml:"allowMethods"`
	AllowHeaders  []string `yaml:"allowHeaders"`
	ExposeHeaders []string `yaml:"exposeHeaders"`

	// AllowCredentials echoes the request origin instead of "*".
	AllowCredentials bool `yaml:"allowCredentials"`

	MaxAge time.Duration `yaml:"maxAge"`
}

// DefaultCORSConfig allows any origin with the common API methods.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       DefaultCORSMaxAge,
	}
}

// CORSOption configures CORSConfig.
type CORSOption func(*CORSConfig)

// WithAllowOrigins sets the allowed origins.
func WithAllowOrigins(origins ...string) CORSOption {
	return func(cfg *CORSConfig) { cfg.AllowOrigins = origins }
}

// WithAllowOriginFunc sets a dynamic origin check that replaces AllowOrigins.
func WithAllowOriginFunc(fn func(origin string) bool) CORSOption {
	return func(cfg *CORSConfig) { cfg.AllowOriginFunc = fn }
}

// WithAllowMethods sets the allowed HTTP methods.
func WithAllowMethods(methods ...string) CORSOption {
	return func(cfg *CORSConfig) { cfg.AllowMethods = methods }
}

// WithAllowHeaders sets the allowed request headers.
func WithAllowHeaders(headers ...string) CORSOption {
	return func(cfg *CORSConfig) { cfg.AllowHeaders = headers }
}

// WithExposeHeaders sets the headers exposed to the client.
func WithExposeHeaders(headers ...string) CORSOption {
	return func(cfg *CORSConfig) { cfg.ExposeHeaders = headers }
}

// WithAllowCredentials allows cookies and authorization headers.
func WithAllowCredentials() CORSOption {
	return func(cfg *CORSConfig) { cfg.AllowCredentials = true }
}

// WithMaxAge sets the preflight cache duration.
func WithMaxAge(d time.Duration) CORSOption {
	return func(cfg *CORSConfig) { cfg.MaxAge = d }
}

// CORS returns middleware that adds Cross-Origin Resource Sharing headers
// and answers preflight requests with 204.
func CORS(opts ...CORSOption) internal.Middleware {
	cfg := DefaultCORSConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newCORS(cfg)
}

// CORSFromConfig is CORS configured by the webserver.cors config section.
// Missing fields keep their defaults. Without the section it does nothing.
func CORSFromConfig() internal.Middleware {
	var (
		once sync.Once
		mw   internal.Middleware
	)
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			once.Do(func() {
				conf := c.App().Config()
				if !conf.Has("webserver.cors") {
					return
				}
				cfg := DefaultCORSConfig()
				if err := conf.Decode("webserver.cors", &cfg); err != nil {
					c.LogError("invalid cors config, cors disabled", "error", err)
					return
				}
				mw = newCORS(cfg)
			})
			if mw == nil {
				return next(c)
			}
			return mw(next)(c)
		}
	}
}

func newCORS(cfg CORSConfig) internal.Middleware {
	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))
	wildcard := slices.Contains(cfg.AllowOrigins, "*")

	allowed := func(origin string) bool {
		if cfg.AllowOriginFunc != nil {
			return cfg.AllowOriginFunc(origin)
		}
		return wildcard || slices.Contains(cfg.AllowOrigins, origin)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			origin := c.Header("Origin")
			if origin == "" || !allowed(origin) {
				return next(c)
			}

			h := c.Response().Header()
			h.Add("Vary", "Origin")
			if cfg.AllowCredentials || !wildcard {
				h.Set("Access-Control-Allow-Origin", origin)
			} else {
				h.Set("Access-Control-Allow-Origin", "*")
			}
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if exposeHeaders != "" {
				h.Set("Access-Control-Expose-Headers", exposeHeaders)
			}

			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
