package socket

import "time"

// Config holds socket server settings, decoded from the "socket" section
// of the application config.
type Config struct {
	Enabled        bool          `yaml:"enabled"`
	Path           string        `yaml:"path"`
	RedisURL       string        `yaml:"redisUrl"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
	ReadLimit      int64         `yaml:"readLimit"`
	SendBuffer     int           `yaml:"sendBuffer"`
	PingInterval   time.Duration `yaml:"pingInterval"`
	PongWait       time.Duration `yaml:"pongWait"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
}

// DefaultConfig returns the settings used for zero fields.
func DefaultConfig() Config {
	return Config{
		Path:         "/socket",
		ReadLimit:    64 << 10,
		SendBuffer:   64,
		PingInterval: 25 * time.Second,
		PongWait:     60 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Path == "" {
		c.Path = d.Path
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = d.ReadLimit
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = max(d.PongWait, 2*c.PingInterval)
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	return c
}
