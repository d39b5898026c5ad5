// Package storage keeps the per-day run layers under the data directory:
//
//	jobs/<date>/<name>.json
//	raw|silver|gold/<date>/<name>.json
//	gold/<date>/<name>.xml
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jonesrussell/webetl/internal/domain"
)

// DateLayout names the per-day directories.
const DateLayout = "2006-01-02"

const (
	jobsDir  = "jobs"
	dirPerm  = 0o755
	filePerm = 0o644
)

// Layer is a stage output directory.
type Layer string

// Layers, in pipeline order.
const (
	LayerRaw    Layer = "raw"
	LayerSilver Layer = "silver"
	LayerGold   Layer = "gold"
)

var (
	// ErrNotFound is returned when a requested job or document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidLayer is returned for a layer other than raw, silver or gold.
	ErrInvalidLayer = errors.New("invalid layer")
	// ErrInvalidName is returned for names that would escape their directory.
	ErrInvalidName = errors.New("invalid name")
)

// Store reads and writes run data under a root directory.
type Store struct {
	root string
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the data directory.
func (s *Store) Root() string {
	return s.root
}

// Day formats t as a directory name.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDay validates a YYYY-MM-DD directory name. An empty string means today.
func ParseDay(day string, now time.Time) (string, error) {
	if day == "" {
		return Day(now), nil
	}
	if _, err := time.Parse(DateLayout, day); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", day, err)
	}
	return day, nil
}

// SaveJob writes the job hand-off file for day.
func (s *Store) SaveJob(day string, job domain.Job) (string, error) {
	path, err := s.path(jobsDir, day, job.Name, ".json")
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode job %s: %w", job.Name, err)
	}
	return path, writeAtomic(path, data)
}

// LoadJob reads a job hand-off file.
func (s *Store) LoadJob(day, name string) (domain.Job, error) {
	path, err := s.path(jobsDir, day, name, ".json")
	if err != nil {
		return domain.Job{}, err
	}

	var job domain.Job
	if err := readJSON(path, &job); err != nil {
		return domain.Job{}, err
	}
	return job, nil
}

// ListJobs returns every job saved for day, ordered by name.
func (s *Store) ListJobs(day string) ([]domain.Job, error) {
	names, err := s.list(filepath.Join(s.root, jobsDir, day), ".json")
	if err != nil {
		return nil, err
	}

	jobs := make([]domain.Job, 0, len(names))
	for _, name := range names {
		job, loadErr := s.LoadJob(day, name)
		if loadErr != nil {
			return nil, loadErr
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// SaveDocument writes a result document into layer.
func (s *Store) SaveDocument(layer Layer, day, name string, doc domain.Document) (string, error) {
	if err := layer.validate(); err != nil {
		return "", err
	}
	path, err := s.path(string(layer), day, name, ".json")
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s document %s: %w", layer, name, err)
	}
	return path, writeAtomic(path, data)
}

// LoadDocument reads a result document from layer.
func (s *Store) LoadDocument(layer Layer, day, name string) (domain.Document, error) {
	if err := layer.validate(); err != nil {
		return domain.Document{}, err
	}
	path, err := s.path(string(layer), day, name, ".json")
	if err != nil {
		return domain.Document{}, err
	}

	var doc domain.Document
	if err := readJSON(path, &doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// ListDocuments returns the names of the JSON documents in layer for day.
func (s *Store) ListDocuments(layer Layer, day string) ([]string, error) {
	if err := layer.validate(); err != nil {
		return nil, err
	}
	return s.list(filepath.Join(s.root, string(layer), day), ".json")
}

// SaveXML writes the gold XML output for a source.
func (s *Store) SaveXML(day, name string, data []byte) (string, error) {
	path, err := s.path(string(LayerGold), day, name, ".xml")
	if err != nil {
		return "", err
	}
	return path, writeAtomic(path, data)
}

func (s *Store) path(dir, day, name, ext string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, err := time.Parse(DateLayout, day); err != nil {
		return "", fmt.Errorf("invalid date %q: %w", day, err)
	}
	return filepath.Join(s.root, dir, day, name+ext), nil
}

func (s *Store) list(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ext {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

func (l Layer) validate() error {
	switch l {
	case LayerRaw, LayerSilver, LayerGold:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLayer, string(l))
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// writeAtomic writes data to a temp file beside path and renames it into place,
// so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename into %s: %w", path, err)
	}
	return nil
}
