package client

import (
	"time"

	"github.com/mytestbed/oml/internal/options"
)

// Config is a client session's static configuration (spec.md §6
// "Configuration"), built from functional options or from ParseArgs.
type Config struct {
	AppName  string
	Domain   string
	SenderID string
	URIs     []string

	DefaultSamples  int
	DefaultInterval time.Duration

	// Overrides holds per-measurement-point sampling overrides read by
	// LoadConfigFile; nil when built through functional options only.
	Overrides map[string]MPOverride

	LogFile  string
	LogLevel string

	// StartTime overrides the session's wall-clock start time; zero means
	// "use the actual start time" (Session.Start fills it in).
	StartTime time.Time
}

// Option configures a Config.
type Option = options.Option[*Config]

func WithDomain(domain string) Option {
	return options.NoError[*Config](func(c *Config) { c.Domain = domain })
}

func WithSenderID(id string) Option {
	return options.NoError[*Config](func(c *Config) { c.SenderID = id })
}

func WithAppName(name string) Option {
	return options.NoError[*Config](func(c *Config) { c.AppName = name })
}

func WithCollectURIs(uris ...string) Option {
	return options.NoError[*Config](func(c *Config) { c.URIs = append(c.URIs, uris...) })
}

func WithDefaultSamples(n int) Option {
	return options.NoError[*Config](func(c *Config) { c.DefaultSamples = n })
}

func WithDefaultInterval(d time.Duration) Option {
	return options.NoError[*Config](func(c *Config) { c.DefaultInterval = d })
}

func WithLogFile(path string) Option {
	return options.NoError[*Config](func(c *Config) { c.LogFile = path })
}

func WithLogLevel(level string) Option {
	return options.NoError[*Config](func(c *Config) { c.LogLevel = level })
}

func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{DefaultSamples: 1}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}
