// Package domain provides domain models used across the application.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedContentType is returned when a source declares a content type
// that has no fetcher/selector pair. It is a configuration error and aborts the run.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// ContentType identifies how a page is fetched and queried.
type ContentType int

const (
	// ContentTypeHTML is an HTML page queried with XPath.
	ContentTypeHTML ContentType = iota + 1
	// ContentTypeRSS is an RSS or Atom feed queried by entry attribute name.
	ContentTypeRSS
	// ContentTypePDF is a PDF document whose page text is concatenated.
	ContentTypePDF
)

var contentTypeNames = map[ContentType]string{
	ContentTypeHTML: "html",
	ContentTypeRSS:  "rss",
	ContentTypePDF:  "pdf",
}

// ContentTypes lists every supported content type.
func ContentTypes() []ContentType {
	return []ContentType{ContentTypeHTML, ContentTypeRSS, ContentTypePDF}
}

// ParseContentType converts a configured name (html, rss, pdf) into a ContentType.
func ParseContentType(name string) (ContentType, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for ct, ctName := range contentTypeNames {
		if ctName == normalized {
			return ct, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedContentType, name)
}

// String returns the configured name of the content type.
func (c ContentType) String() string {
	if name, ok := contentTypeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ContentType(%d)", int(c))
}

// Valid reports whether c is one of the supported content types.
func (c ContentType) Valid() bool {
	_, ok := contentTypeNames[c]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (c ContentType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedContentType, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *ContentType) UnmarshalText(text []byte) error {
	parsed, err := ParseContentType(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
