package fetcher

import "time"

// Default configuration values.
const (
	defaultUserAgent      = "webetl/1.0"
	defaultRequestTimeout = 10 * time.Second
	defaultMaxBodySize    = 20 << 20
)

// Config holds HTTP fetch settings.
type Config struct {
	UserAgent      string        `mapstructure:"user_agent"      yaml:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// MaxBodySize truncates larger responses, in bytes.
	MaxBodySize int `mapstructure:"max_body_size" yaml:"max_body_size"`
}

// WithDefaults returns a copy of the config with default values applied for zero-value fields.
func (c Config) WithDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = defaultMaxBodySize
	}
	return c
}
