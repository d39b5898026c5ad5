// Package transform runs the per-entry LLM steps that turn raw documents into
// the silver layer.
package transform

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ErrInvalidConfig is returned for a transform block that cannot be decoded.
var ErrInvalidConfig = errors.New("invalid transform config")

// Config is a job's transform block.
type Config struct {
	LLM []Step `mapstructure:"LLM"`
}

// Step asks a model to derive Output from the Input fields of an entry.
type Step struct {
	Name   string   `mapstructure:"name"`
	Input  []string `mapstructure:"input"`
	Output string   `mapstructure:"output"`
	Model  string   `mapstructure:"model"`
	Prompt string   `mapstructure:"prompt"`
}

// DecodeConfig decodes a job's transform block. A nil block yields a nil config.
func DecodeConfig(block any) (*Config, error) {
	if block == nil {
		return nil, nil
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(block); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	for i, step := range cfg.LLM {
		if step.Output == "" {
			return nil, fmt.Errorf("%w: step %d has no output", ErrInvalidConfig, i+1)
		}
		if step.Name == "" {
			cfg.LLM[i].Name = step.Output
		}
	}
	return &cfg, nil
}

// HasSteps reports whether the config asks for any LLM work.
func (c *Config) HasSteps() bool {
	return c != nil && len(c.LLM) > 0
}
