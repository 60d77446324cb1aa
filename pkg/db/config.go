package db

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds PostgreSQL connection and migration settings.
// It is decoded from the "database" section of the application config.
type Config struct {
	// Disabled turns off every database phase of the application lifecycle.
	Disabled bool `yaml:"disabled"`

	// URL takes precedence over the discrete connection fields when set.
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`

	// MigrationsDir is resolved against the application root.
	MigrationsDir   string `yaml:"migrationsDir"`
	MigrationsTable string `yaml:"migrationsTable"`

	// RandomizeTestName appends a random suffix to the test database name
	// so parallel test runs never share a database.
	RandomizeTestName bool `yaml:"randomizeTestName"`
	// DropWhenFinished drops the database when the application stops.
	DropWhenFinished bool `yaml:"dropWhenFinished"`

	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`

	// Retries smooth over a database that is still booting.
	RetryAttempts int           `yaml:"retryAttempts"`
	RetryInterval time.Duration `yaml:"retryInterval"`
}

// DefaultConfig returns the settings used for keys missing from the config.
func DefaultConfig() Config {
	return Config{
		Host:              "localhost",
		Port:              5432,
		User:              "postgres",
		Name:              "rapid_app",
		SSLMode:           "disable",
		MigrationsDir:     "migrations",
		MigrationsTable:   "schema_migrations",
		MaxConns:          10,
		MinConns:          2,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   10 * time.Minute,
		MaxConnLifetime:   30 * time.Minute,
		RetryAttempts:     3,
		RetryInterval:     time.Second,
	}
}

// ConnString returns the connection URL for the configured database.
func (c Config) ConnString() string {
	return c.connStringFor(c.Name)
}

// connStringFor returns the connection URL with the database name replaced.
func (c Config) connStringFor(name string) string {
	if c.URL != "" {
		u, err := url.Parse(c.URL)
		if err != nil {
			return c.URL
		}
		if name != "" {
			u.Path = "/" + name
		}
		return u.String()
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + name,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}

// DatabaseName returns the database the config points at.
// The name from URL wins over Name when both are set.
func (c Config) DatabaseName() string {
	if c.URL != "" {
		if u, err := url.Parse(c.URL); err == nil {
			if n := strings.TrimPrefix(u.Path, "/"); n != "" {
				return n
			}
		}
	}
	return c.Name
}

// ForTest returns a copy of c pointing at the test database:
// "<name>_test", or "<name>_test_<random>" when RandomizeTestName is set.
func (c Config) ForTest() Config {
	name := c.DatabaseName() + "_test"
	if c.RandomizeTestName {
		name += "_" + strings.ReplaceAll(uuid.NewString(), "-", "_")
	}
	c.Name = name
	if c.URL != "" {
		c.URL = c.connStringFor(name)
	}
	return c
}

func (c Config) String() string {
	return fmt.Sprintf("postgres database %q", c.DatabaseName())
}
