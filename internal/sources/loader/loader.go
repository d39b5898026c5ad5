// Package loader compiles a sources.yml file into extraction jobs.
package loader

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/jonesrussell/webetl/internal/domain"
)

var (
	// ErrNoSources indicates no sources were found in the configuration.
	ErrNoSources = errors.New("no sources found in configuration")
	// ErrSourceNotFound is returned when a requested source name is not declared.
	ErrSourceNotFound = errors.New("source not found")
	// ErrInvalidSourceFormat indicates the source format is invalid.
	ErrInvalidSourceFormat = errors.New("invalid source format")
	// ErrMissingRequiredField indicates a required field is missing.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrDuplicateSource is returned when two sources share a name.
	ErrDuplicateSource = errors.New("duplicate source name")
)

// Downstream block names copied onto each job.
const (
	TransformBlock = "transform"
	LoadBlock      = "load"
)

// Validator checks a compiled job's content types and selectors.
type Validator interface {
	ValidateJob(job domain.Job) error
}

// sourceConfig is one entry of the sources file.
type sourceConfig struct {
	Name      string           `mapstructure:"name"`
	Start     string           `mapstructure:"start"`
	Navigate  []navigateConfig `mapstructure:"navigate"`
	Extract   extractConfig    `mapstructure:"extract"`
	Transform map[string]any   `mapstructure:"transform"`
	Load      map[string]any   `mapstructure:"load"`
}

type navigateConfig struct {
	FType       string   `mapstructure:"ftype"`
	Selector    string   `mapstructure:"selector"`
	MustContain []string `mapstructure:"must_contain"`
}

type extractConfig struct {
	FType  string        `mapstructure:"ftype"`
	Fields []fieldConfig `mapstructure:"fields"`
}

type fieldConfig struct {
	Name     string `mapstructure:"name"`
	Selector string `mapstructure:"selector"`
}

// sourcesFile represents the structure of a sources YAML file.
type sourcesFile struct {
	Source []map[string]any `yaml:"source"`
}

// Loader handles loading and validating source configurations.
type Loader struct {
	path      string
	validator Validator
	now       func() time.Time
}

// NewLoader creates a loader for the file at path. A nil validator skips
// selector checks.
func NewLoader(path string, validator Validator) *Loader {
	return &Loader{
		path:      path,
		validator: validator,
		now:       time.Now,
	}
}

// Load reads the sources file and compiles it into jobs. A non-empty name
// selects that single source.
func (l *Loader) Load(name string) ([]domain.Job, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return l.Parse(data, name)
}

// Parse compiles sources from YAML bytes.
func (l *Loader) Parse(data []byte, name string) ([]domain.Job, error) {
	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Source) == 0 {
		return nil, ErrNoSources
	}

	configs := make([]sourceConfig, 0, len(file.Source))
	seen := make(map[string]struct{}, len(file.Source))
	for i, raw := range file.Source {
		cfg, err := convertToConfig(raw)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i+1, err)
		}
		if cfg.Name == "" {
			return nil, fmt.Errorf("source %d: %w: name", i+1, ErrMissingRequiredField)
		}
		if _, dup := seen[cfg.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, cfg.Name)
		}
		seen[cfg.Name] = struct{}{}
		configs = append(configs, cfg)
	}

	if name != "" {
		if _, ok := seen[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, name)
		}
	}

	compiledAt := l.now().UTC()
	jobs := make([]domain.Job, 0, len(configs))
	for _, cfg := range configs {
		if name != "" && cfg.Name != name {
			continue
		}
		job, err := compile(cfg, compiledAt)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}
		if l.validator != nil {
			if err := l.validator.ValidateJob(job); err != nil {
				return nil, err
			}
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// convertToConfig converts a raw source map to a sourceConfig.
func convertToConfig(src map[string]any) (sourceConfig, error) {
	var cfg sourceConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return sourceConfig{}, fmt.Errorf("failed to create decoder: %w", err)
	}

	if decodeErr := decoder.Decode(src); decodeErr != nil {
		return sourceConfig{}, fmt.Errorf("%w: %w", ErrInvalidSourceFormat, decodeErr)
	}
	return cfg, nil
}

func compile(cfg sourceConfig, compiledAt time.Time) (domain.Job, error) {
	if err := validateStart(cfg.Start); err != nil {
		return domain.Job{}, err
	}
	if cfg.Extract.FType == "" {
		return domain.Job{}, fmt.Errorf("%w: extract.ftype", ErrMissingRequiredField)
	}

	contentType, err := domain.ParseContentType(cfg.Extract.FType)
	if err != nil {
		return domain.Job{}, fmt.Errorf("extract: %w", err)
	}

	job := domain.Job{
		Name:        cfg.Name,
		Seed:        strings.TrimSpace(cfg.Start),
		ContentType: contentType,
		CompiledAt:  compiledAt,
	}

	for i, nav := range cfg.Navigate {
		stepType, parseErr := domain.ParseContentType(nav.FType)
		if parseErr != nil {
			return domain.Job{}, fmt.Errorf("navigate %d: %w", i+1, parseErr)
		}
		if nav.Selector == "" {
			return domain.Job{}, fmt.Errorf("navigate %d: %w: selector", i+1, ErrMissingRequiredField)
		}
		job.Steps = append(job.Steps, domain.NavigationStep{
			ContentType: stepType,
			Selector:    nav.Selector,
			MustContain: nav.MustContain,
		})
	}

	for _, f := range cfg.Extract.Fields {
		if f.Name == "" {
			return domain.Job{}, fmt.Errorf("extract field: %w: name", ErrMissingRequiredField)
		}
		job.Fields = append(job.Fields, domain.Field{Name: f.Name, Selector: f.Selector})
	}

	if len(cfg.Transform) > 0 || len(cfg.Load) > 0 {
		job.Downstream = make(map[string]any, 2)
		if len(cfg.Transform) > 0 {
			job.Downstream[TransformBlock] = cfg.Transform
		}
		if len(cfg.Load) > 0 {
			job.Downstream[LoadBlock] = cfg.Load
		}
	}

	return job, nil
}

func validateStart(start string) error {
	start = strings.TrimSpace(start)
	if start == "" {
		return fmt.Errorf("%w: start", ErrMissingRequiredField)
	}
	u, err := url.Parse(start)
	if err != nil {
		return fmt.Errorf("%w: start: %w", ErrInvalidSourceFormat, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: start must be an absolute http(s) URL: %q", ErrInvalidSourceFormat, start)
	}
	return nil
}
