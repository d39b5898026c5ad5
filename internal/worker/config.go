// Package worker provides the bounded task pool shared by navigation and extraction.
package worker

import (
	"errors"
	"fmt"
)

const (
	// DefaultPoolSize is the default number of tasks in flight.
	DefaultPoolSize = 10

	// MinPoolSize is the minimum allowed pool size.
	MinPoolSize = 1

	// MaxPoolSize is the maximum allowed pool size.
	MaxPoolSize = 100
)

var errPoolSizeRange = errors.New("pool size out of range")

// Config holds configuration for the worker pool.
type Config struct {
	// PoolSize is the number of concurrent tasks.
	PoolSize int `mapstructure:"concurrency" yaml:"concurrency"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{PoolSize: DefaultPoolSize}
}

// Validate checks that the pool size is within bounds.
func (c Config) Validate() error {
	if c.PoolSize < MinPoolSize || c.PoolSize > MaxPoolSize {
		return fmt.Errorf("%w: %d (want %d..%d)", errPoolSizeRange, c.PoolSize, MinPoolSize, MaxPoolSize)
	}
	return nil
}
