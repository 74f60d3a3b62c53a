package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server  Server
	Runtime Runtime
	Logging Logging
}

type Server struct {
	// Addr is the listen address (see --addr).
	Addr string

	// CORSOrigins are the origins allowed to call the API (see --cors-origin).
	// Defaults cover the local frontend.
	CORSOrigins []string

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM
	// (see --shutdown-timeout).
	ShutdownTimeout time.Duration
}

type Runtime struct {
	// Concurrency is the audit fan-out ceiling: the maximum number of work
	// units executing at once within one audit run (see --concurrency).
	// Must be >= 1.
	Concurrency int
}

type Logging struct {
	// Level is the minimum log level: debug, info, warn, error (see --log-level).
	Level string

	// Pretty switches logs from JSON to a human console format (see --log-pretty).
	Pretty bool
}

func New() *Config {
	return &Config{
		Server: Server{
			Addr: ":8000",
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			},
			ShutdownTimeout: 10 * time.Second,
		},
		Runtime: Runtime{
			Concurrency: 5,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server address must not be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be > 0, got %s", c.Server.ShutdownTimeout)
	}
	if c.Runtime.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Runtime.Concurrency)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q (allowed: debug, info, warn, error)", c.Logging.Level)
	}
	for _, origin := range c.Server.CORSOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("CORS origin must not be empty")
		}
	}
	return nil
}
