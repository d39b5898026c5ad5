// Package load writes the gold layer: silver documents reshaped into the XML
// and JSON outputs each job declares.
package load

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/jonesrussell/webetl/internal/domain"
	"github.com/jonesrussell/webetl/internal/logger"
	"github.com/jonesrussell/webetl/internal/sources/loader"
	"github.com/jonesrussell/webetl/internal/storage"
)

// ErrInvalidConfig is returned for a load block that cannot be decoded.
var ErrInvalidConfig = errors.New("invalid load config")

// Config is a job's load block.
type Config struct {
	XML  *Output `mapstructure:"xml"`
	JSON *Output `mapstructure:"json"`
}

// Output lists the fields to publish and what to call them.
type Output struct {
	Fields []FieldMapping `mapstructure:"fields"`
}

// FieldMapping renames a silver field. An empty Name keeps the field name.
type FieldMapping struct {
	Field string `mapstructure:"field"`
	Name  string `mapstructure:"name"`
}

// OutputName returns the published name of the field.
func (m FieldMapping) OutputName() string {
	if m.Name == "" {
		return m.Field
	}
	return m.Name
}

// DecodeConfig decodes a job's load block. A nil block yields a nil config.
func DecodeConfig(block any) (*Config, error) {
	if block == nil {
		return nil, nil
	}

	var cfg Config
	if err := mapstructure.WeakDecode(block, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, out := range []*Output{cfg.XML, cfg.JSON} {
		if out == nil {
			continue
		}
		for i, f := range out.Fields {
			if f.Field == "" {
				return nil, fmt.Errorf("%w: mapping %d has no field", ErrInvalidConfig, i+1)
			}
		}
	}
	return &cfg, nil
}

// Loader publishes a day's silver documents.
type Loader struct {
	store  *storage.Store
	logger logger.Logger
}

// NewLoader creates a loader.
func NewLoader(store *storage.Store, log logger.Logger) *Loader {
	return &Loader{store: store, logger: log}
}

// Run publishes every silver document for day and returns how many gold files
// were written.
func (l *Loader) Run(ctx context.Context, day string) (int, error) {
	log := l.logger.With(logger.String("date", day))

	names, err := l.store.ListDocuments(storage.LayerSilver, day)
	if err != nil {
		return 0, fmt.Errorf("list silver documents: %w", err)
	}

	written := 0
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, err := l.loadSource(log.With(logger.String("source", name)), day, name)
		if err != nil {
			return written, err
		}
		written += n
	}

	log.Info("load complete", logger.Int("sources", len(names)), logger.Int("written", written))
	return written, nil
}

func (l *Loader) loadSource(log logger.Logger, day, name string) (int, error) {
	job, err := l.store.LoadJob(day, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Warn("no job found")
			return 0, nil
		}
		return 0, err
	}

	cfg, err := DecodeConfig(job.DownstreamBlock(loader.LoadBlock))
	if err != nil {
		return 0, fmt.Errorf("source %s: %w", name, err)
	}
	if cfg == nil || (cfg.XML == nil && cfg.JSON == nil) {
		log.Info("no load configuration, skipping")
		return 0, nil
	}

	silver, err := l.store.LoadDocument(storage.LayerSilver, day, name)
	if err != nil {
		return 0, err
	}

	written := 0
	if cfg.XML != nil {
		data, err := RenderXML(log, silver, cfg.XML.Fields)
		if err != nil {
			return written, fmt.Errorf("source %s: render xml: %w", name, err)
		}
		path, err := l.store.SaveXML(day, name, data)
		if err != nil {
			return written, err
		}
		log.Info("xml written", logger.String("path", path))
		written++
	}

	if cfg.JSON != nil {
		path, err := l.store.SaveDocument(storage.LayerGold, day, name, RenderJSON(log, silver, cfg.JSON.Fields))
		if err != nil {
			return written, err
		}
		log.Info("json written", logger.String("path", path))
		written++
	}

	return written, nil
}

// RenderXML renders doc as
//
//	<feed extraction_date=".."><item><name>value</name>...</item>...</feed>
//
// with one item per entry. Pages are emitted in URL order.
func RenderXML(log logger.Logger, doc domain.Document, fields []FieldMapping) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	feed := xml.StartElement{
		Name: xml.Name{Local: "feed"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "extraction_date"}, Value: doc.ExtractionDate}},
	}
	if err := enc.EncodeToken(feed); err != nil {
		return nil, err
	}

	for _, pageURL := range sortedURLs(doc) {
		for _, entry := range doc.Result[pageURL] {
			item := xml.StartElement{Name: xml.Name{Local: "item"}}
			if err := enc.EncodeToken(item); err != nil {
				return nil, err
			}
			for _, f := range fields {
				value, ok := entry[f.Field]
				if !ok {
					log.Warn("field not found in entry", logger.String("field", f.Field), logger.String("url", pageURL))
					continue
				}
				if err := enc.EncodeElement(value, xml.StartElement{Name: xml.Name{Local: f.OutputName()}}); err != nil {
					return nil, err
				}
			}
			if err := enc.EncodeToken(item.End()); err != nil {
				return nil, err
			}
		}
	}

	if err := enc.EncodeToken(feed.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RenderJSON keeps only the mapped fields of every entry, renamed.
func RenderJSON(log logger.Logger, doc domain.Document, fields []FieldMapping) domain.Document {
	out := domain.Document{
		Source:         doc.Source,
		ExtractionDate: doc.ExtractionDate,
		Result:         make(map[string][]map[string]string, len(doc.Result)),
	}

	for pageURL, entries := range doc.Result {
		mapped := make([]map[string]string, 0, len(entries))
		for _, entry := range entries {
			record := make(map[string]string, len(fields))
			for _, f := range fields {
				value, ok := entry[f.Field]
				if !ok {
					log.Warn("field not found in entry", logger.String("field", f.Field), logger.String("url", pageURL))
					continue
				}
				record[f.OutputName()] = value
			}
			mapped = append(mapped, record)
		}
		out.Result[pageURL] = mapped
	}

	return out
}

func sortedURLs(doc domain.Document) []string {
	urls := make([]string, 0, len(doc.Result))
	for u := range doc.Result {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
