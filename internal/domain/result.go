package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ExtractionDateLayout is the ISO-8601 layout used for extraction_date.
const ExtractionDateLayout = time.RFC3339

// Extraction is a single extracted field value. Value is trimmed and never empty.
// Entry is the zero-based feed entry that produced the value; HTML and PDF pages
// always use entry 0.
type Extraction struct {
	Name  string
	Value string
	Entry int
}

// PageResult holds the extractions for one fetched URL, in field-declaration
// order (entry-major for feeds).
type PageResult struct {
	URL         string
	Extractions []Extraction
}

// Entries groups the page's extractions into one record per entry, preserving
// entry order. A page with no extractions has no entries.
func (p PageResult) Entries() []map[string]string {
	entries := make([]map[string]string, 0, 1)
	index := make(map[int]int)
	for _, ex := range p.Extractions {
		pos, ok := index[ex.Entry]
		if !ok {
			pos = len(entries)
			index[ex.Entry] = pos
			entries = append(entries, make(map[string]string))
		}
		entries[pos][ex.Name] = ex.Value
	}
	return entries
}

// SourceResult is every PageResult one Job produced in one run. Page order is
// the order in which fetches completed; consumers key by URL.
type SourceResult struct {
	Source      string
	ExtractedAt time.Time
	Pages       []PageResult
}

// NewSourceResult creates an empty result for a source.
func NewSourceResult(source string, extractedAt time.Time) *SourceResult {
	return &SourceResult{
		Source:      source,
		ExtractedAt: extractedAt,
		Pages:       []PageResult{},
	}
}

// Empty reports whether the result holds no pages.
func (r *SourceResult) Empty() bool {
	return r == nil || len(r.Pages) == 0
}

// Document is the serialized hand-off shape consumed by the transform and load stages:
// {"source": ..., "extraction_date": ..., "result": {url: [{field: value}, ...]}}.
type Document struct {
	Source         string                         `json:"source"`
	ExtractionDate string                         `json:"extraction_date"`
	Result         map[string][]map[string]string `json:"result"`
}

// Document converts the result into its serialized hand-off shape.
func (r *SourceResult) Document() Document {
	doc := Document{
		Source:         r.Source,
		ExtractionDate: r.ExtractedAt.Format(ExtractionDateLayout),
		Result:         make(map[string][]map[string]string, len(r.Pages)),
	}
	for _, page := range r.Pages {
		doc.Result[page.URL] = page.Entries()
	}
	return doc
}

// Merge returns a copy of d with every URL of newer added, replacing any entry
// d already holds for the same URL. Source and ExtractionDate come from newer.
func (d Document) Merge(newer Document) Document {
	merged := Document{
		Source:         newer.Source,
		ExtractionDate: newer.ExtractionDate,
		Result:         make(map[string][]map[string]string, len(d.Result)+len(newer.Result)),
	}
	for u, entries := range d.Result {
		merged.Result[u] = entries
	}
	for u, entries := range newer.Result {
		merged.Result[u] = entries
	}
	return merged
}

// MarshalJSON encodes the result as a Document.
func (r *SourceResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document())
}

// UnmarshalJSON decodes a Document. Field order inside an entry is not part of
// the serialized form, so decoded extractions are ordered by field name. Pages
// are ordered by URL.
func (r *SourceResult) UnmarshalJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	result, err := doc.SourceResult()
	if err != nil {
		return err
	}

	*r = *result
	return nil
}

// SourceResult rebuilds a SourceResult from a Document.
func (d Document) SourceResult() (*SourceResult, error) {
	extractedAt, err := time.Parse(ExtractionDateLayout, d.ExtractionDate)
	if err != nil {
		return nil, fmt.Errorf("parse extraction_date: %w", err)
	}

	urls := make([]string, 0, len(d.Result))
	for u := range d.Result {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	result := NewSourceResult(d.Source, extractedAt)
	for _, u := range urls {
		page := PageResult{URL: u}
		for entry, record := range d.Result[u] {
			names := make([]string, 0, len(record))
			for name := range record {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				page.Extractions = append(page.Extractions, Extraction{Name: name, Value: record[name], Entry: entry})
			}
		}
		result.Pages = append(result.Pages, page)
	}

	return result, nil
}
