package frontier_test

import (
	"testing"

	"github.com/jonesrussell/webetl/internal/frontier"
)

func TestResolve(t *testing.T) {
	const page = "https://example.com/news/index.html"

	tests := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{"relative", "story.html", "https://example.com/news/story.html", false},
		{"root relative", "/about", "https://example.com/about", false},
		{"absolute", "http://other.example/x", "http://other.example/x", false},
		{"protocol relative", "//cdn.example/a.pdf", "https://cdn.example/a.pdf", false},
		{"fragment dropped", "story.html#comments", "https://example.com/news/story.html", false},
		{"parent dir", "../img/a b.png", "https://example.com/img/a%20b.png", false},
		{"existing escape kept", "/search?q=a%20b", "https://example.com/search?q=a%20b", false},
		{"stray percent escaped", "/100%", "https://example.com/100%25", false},
		{"reserved kept", "/p?a=1&b=(2)", "https://example.com/p?a=1&b=(2)", false},
		{"unicode escaped", "/café", "https://example.com/caf%C3%A9", false},
		{"surrounding space", "  story.html ", "https://example.com/news/story.html", false},
		{"empty", "", "", true},
		{"blank", "   ", "", true},
		{"mailto", "mailto:someone@example.com", "", true},
		{"javascript", "javascript:void(0)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := frontier.Resolve(page, tt.link)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Resolve(%q) expected error, got %q", tt.link, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.link, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.link, got, tt.want)
			}
		})
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain/path", "plain/path"},
		{"a b", "a%20b"},
		{"%2F", "%2F"},
		{"%zz", "%25zz"},
		{"%", "%25"},
		{"x\"y", "x%22y"},
	}

	for _, tt := range tests {
		if got := frontier.Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
