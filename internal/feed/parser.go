// Package feed provides RSS and Atom feed parsing and entry attribute lookup.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// httpPrefix is the scheme prefix used to determine if a GUID is a valid URL.
const httpPrefix = "http"

// Parse parses an RSS or Atom feed body. A malformed feed returns an error.
func Parse(ctx context.Context, body []byte) (*gofeed.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return parsed, nil
}

// Lookup resolves a named attribute of a feed entry. Unknown names fall back to
// the entry's custom elements and then to namespaced extensions written as
// prefix:name. It returns "" when the attribute is absent.
func Lookup(item *gofeed.Item, name string) string {
	if item == nil {
		return ""
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "title":
		return item.Title
	case "link":
		return extractLink(item)
	case "description", "summary":
		return item.Description
	case "content":
		return item.Content
	case "id", "guid":
		return item.GUID
	case "published", "pubdate":
		return firstNonEmpty(item.Published, formatTime(item.PublishedParsed))
	case "updated":
		return firstNonEmpty(item.Updated, formatTime(item.UpdatedParsed))
	case "author":
		return authorName(item)
	case "categories", "tags":
		return strings.Join(item.Categories, ", ")
	}

	if v, ok := item.Custom[name]; ok {
		return v
	}

	return extensionValue(item, name)
}

// extractLink returns the best available URL from a feed entry.
// It prefers the explicit Link field, then the first alternate link, then a
// GUID that looks like an HTTP URL.
func extractLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}

	for _, l := range entry.Links {
		if l != "" {
			return l
		}
	}

	if strings.HasPrefix(entry.GUID, httpPrefix) {
		return entry.GUID
	}

	return ""
}

func authorName(entry *gofeed.Item) string {
	for _, p := range entry.Authors {
		if p == nil {
			continue
		}
		if v := firstNonEmpty(p.Name, p.Email); v != "" {
			return v
		}
	}
	return ""
}

func extensionValue(entry *gofeed.Item, name string) string {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok || entry.Extensions == nil {
		return ""
	}

	for _, ext := range entry.Extensions[prefix][local] {
		if ext.Value != "" {
			return ext.Value
		}
	}
	return ""
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
