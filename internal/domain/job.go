package domain

import (
	"slices"
	"time"
)

// Field is a named selector evaluated by the terminal extraction pass.
type Field struct {
	Name     string `json:"name"     yaml:"name"`
	Selector string `json:"selector" yaml:"selector"`
}

// NavigationStep is one hop of a link-discovery chain. The selector yields
// candidate outbound links from each page visited at this step.
type NavigationStep struct {
	ContentType ContentType `json:"ftype"                  yaml:"ftype"`
	Selector    string      `json:"selector"               yaml:"selector"`
	MustContain []string    `json:"must_contain,omitempty" yaml:"must_contain,omitempty"`
}

// Job is one compiled source: where to start, how to navigate, and what to extract.
// A Job is read-only for the duration of a run.
type Job struct {
	// Name is the unique source name and the ledger partition key.
	Name string `json:"name"`
	// Seed is the first URL visited.
	Seed string `json:"start"`
	// Steps are visited in order. No steps means the seed itself is extracted.
	Steps []NavigationStep `json:"navigate,omitempty"`
	// ContentType selects the extractor for the final URL set.
	ContentType ContentType `json:"extract_ftype"`
	// Fields are evaluated against every final page.
	Fields []Field `json:"extract,omitempty"`
	// Downstream carries the transform and load blocks untouched.
	Downstream map[string]any `json:"downstream,omitempty"`
	// CompiledAt is when the source description was compiled into this Job.
	CompiledAt time.Time `json:"compiled_at"`
}

// HasNavigation reports whether the job visits any pages before extraction.
func (j Job) HasNavigation() bool {
	return len(j.Steps) > 0
}

// DownstreamBlock returns the named downstream block, or nil if absent.
func (j Job) DownstreamBlock(name string) any {
	if j.Downstream == nil {
		return nil
	}
	return j.Downstream[name]
}

// Clone returns a deep copy of the job's slices so callers can't mutate a shared Job.
func (j Job) Clone() Job {
	out := j
	out.Steps = make([]NavigationStep, len(j.Steps))
	for i, step := range j.Steps {
		step.MustContain = slices.Clone(step.MustContain)
		out.Steps[i] = step
	}
	out.Fields = slices.Clone(j.Fields)
	return out
}

// FetchRecord marks that a source successfully harvested a URL.
type FetchRecord struct {
	URL        string    `json:"url"`
	SourceName string    `json:"source_name"`
	FetchedAt  time.Time `json:"fetch_timestamp"`
}
