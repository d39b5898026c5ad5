package testutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// SiteArticles is the number of articles linked from the fixture home page.
const SiteArticles = 3

// PDFText is the text rendered on the fixture PDF.
const PDFText = "This is a pdf"

// Site is an httptest fixture:
//
//	/                  home page listing SiteArticles articles under //ul/li/a
//	/article_N.html    article whose fourth paragraph links to /appendix_N.html
//	/appendix_N.html   page with an h1 title and a div#article-body body
//	/feed.xml          RSS feed with three entries
//	/report.pdf        one-page PDF showing PDFText
//	/broken            always 500
type Site struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// NewSite starts the fixture site and closes it when the test ends.
func NewSite(t testing.TB) *Site {
	t.Helper()

	s := &Site{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)

	return s
}

// URL returns the absolute URL of path on the site.
func (s *Site) URL(path string) string {
	return s.Server.URL + path
}

// Hits returns how many times path has been requested.
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests served for paths with the given prefix.
func (s *Site) TotalHits(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for path, n := range s.hits {
		if strings.HasPrefix(path, prefix) {
			total += n
		}
	}
	return total
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()

	var (
		n    int
		body string
	)
	switch {
	case r.URL.Path == "/":
		body = homePage()
	case r.URL.Path == "/feed.xml":
		w.Header().Set("Content-Type", "application/rss+xml")
		body = feedDocument()
	case r.URL.Path == "/report.pdf":
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(BuildPDF(PDFText, s.URL("/appendix_1.html")))
		return
	case scan(r.URL.Path, "/article_%d.html", &n):
		body = articlePage(n)
	case scan(r.URL.Path, "/appendix_%d.html", &n):
		body = appendixPage(n)
	case r.URL.Path == "/broken":
		http.Error(w, "broken", http.StatusInternalServerError)
		return
	default:
		http.NotFound(w, r)
		return
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	_, _ = w.Write([]byte(body))
}

func scan(path, format string, n *int) bool {
	_, err := fmt.Sscanf(path, format, n)
	return err == nil && *n >= 1 && *n <= SiteArticles
}

func homePage() string {
	var b strings.Builder
	b.WriteString("<html><head><title>Home</title></head><body>\n<nav><a href=\"/about.html\">About</a></nav>\n<ul>\n")
	for i := 1; i <= SiteArticles; i++ {
		fmt.Fprintf(&b, "<li><a href=\"article_%d.html\">Article %d</a></li>\n", i, i)
	}
	b.WriteString("<li><a href=\"/contact.html\">Contact</a></li>\n</ul>\n</body></html>")
	return b.String()
}

func articlePage(n int) string {
	return fmt.Sprintf(`<html><body>
<div id="article-body">
<p>First paragraph %[1]d.</p>
<p>Second paragraph.</p>
<p>Third paragraph.</p>
<p>See the <a href="/appendix_%[1]d.html#top">appendix</a>.</p>
</div>
</body></html>`, n)
}

func appendixPage(n int) string {
	return fmt.Sprintf(`<html><body>
<h1>
   Appendix %[1]d
</h1>
<h1>Secondary heading</h1>
<div id="article-body">  Appendix body %[1]d.  </div>
</body></html>`, n)
}

func feedDocument() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Fixture feed</title>
`)
	for i := 1; i <= SiteArticles; i++ {
		fmt.Fprintf(&b, `<item><title>Entry %[1]d</title><link>/article_%[1]d.html</link><description>Description %[1]d</description></item>
`, i)
	}
	b.WriteString("</channel></rss>")
	return b.String()
}
