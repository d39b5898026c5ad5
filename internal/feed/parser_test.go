package feed_test

import (
	"context"
	"testing"

	"github.com/jonesrussell/webetl/internal/feed"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Test RSS</title>
    <item>
      <title>First Article</title>
      <link>https://example.com/first</link>
      <description>First summary</description>
      <pubDate>Mon, 01 Jan 2024 12:00:00 +0000</pubDate>
      <category>news</category>
      <category>local</category>
      <dc:creator>Jane Doe</dc:creator>
      <priority>high</priority>
    </item>
    <item>
      <title>Second Article</title>
      <guid>https://example.com/second</guid>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom</title>
  <entry>
    <id>urn:alpha</id>
    <title>Alpha Entry</title>
    <link href="https://example.com/alpha"/>
    <summary>Alpha summary</summary>
    <updated>2024-01-01T12:00:00Z</updated>
    <author><name>Ann</name></author>
  </entry>
</feed>`

func TestParse_RSS(t *testing.T) {
	t.Parallel()

	parsed, err := feed.Parse(context.Background(), []byte(rssFixture))
	requireNoError(t, err)
	requireLen(t, parsed.Items, 2)

	first := parsed.Items[0]
	assertEqual(t, "First Article", feed.Lookup(first, "title"))
	assertEqual(t, "https://example.com/first", feed.Lookup(first, "link"))
	assertEqual(t, "First summary", feed.Lookup(first, "summary"))
	assertEqual(t, "Mon, 01 Jan 2024 12:00:00 +0000", feed.Lookup(first, "pubdate"))
	assertEqual(t, "news, local", feed.Lookup(first, "tags"))
	assertEqual(t, "Jane Doe", feed.Lookup(first, "dc:creator"))
	assertEqual(t, "high", feed.Lookup(first, "priority"))
	assertEqual(t, "", feed.Lookup(first, "missing"))
}

func TestParse_GUIDAsFallbackLink(t *testing.T) {
	t.Parallel()

	parsed, err := feed.Parse(context.Background(), []byte(rssFixture))
	requireNoError(t, err)

	assertEqual(t, "https://example.com/second", feed.Lookup(parsed.Items[1], "link"))
	assertEqual(t, "", feed.Lookup(parsed.Items[1], "description"))
}

func TestParse_Atom(t *testing.T) {
	t.Parallel()

	parsed, err := feed.Parse(context.Background(), []byte(atomFixture))
	requireNoError(t, err)
	requireLen(t, parsed.Items, 1)

	entry := parsed.Items[0]
	assertEqual(t, "urn:alpha", feed.Lookup(entry, "id"))
	assertEqual(t, "https://example.com/alpha", feed.Lookup(entry, "link"))
	assertEqual(t, "Alpha summary", feed.Lookup(entry, "description"))
	assertEqual(t, "Ann", feed.Lookup(entry, "author"))
	assertEqual(t, "2024-01-01T12:00:00Z", feed.Lookup(entry, "updated"))
}

func TestParse_InvalidXML(t *testing.T) {
	t.Parallel()

	_, err := feed.Parse(context.Background(), []byte("not xml at all"))
	if err == nil {
		t.Fatal("expected error for invalid XML, got nil")
	}
}

func TestParse_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := feed.Parse(ctx, []byte(rssFixture)); err == nil {
		t.Fatal("expected error for canceled context, got nil")
	}
}

func TestLookup_NilItem(t *testing.T) {
	t.Parallel()

	assertEqual(t, "", feed.Lookup(nil, "title"))
}
