package fetch

import (
	"net/url"
	"strings"
	"testing"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Stories by Someone</title>
  <item>
    <title>Another Post</title>
    <link>https://medium.com/@someone/another-post-deadbeef</link>
    <content:encoded><![CDATA[<p>other</p>]]></content:encoded>
  </item>
  <item>
    <title>The Post We Want</title>
    <link>https://medium.com/@someone/the-post-we-want-abc123?source=rss</link>
    <content:encoded><![CDATA[<h2>Section</h2><p>body text</p>]]></content:encoded>
  </item>
</channel>
</rss>`

func TestParseFeed_MatchesSlug(t *testing.T) {
	result, ok := parseFeed([]byte(sampleFeed), "the-post-we-want-abc123")
	if !ok {
		t.Fatal("parseFeed() did not find the article")
	}
	if result.Title != "The Post We Want" {
		t.Errorf("Title = %q", result.Title)
	}
	if !strings.Contains(result.HTML, "body text") {
		t.Errorf("HTML = %q, want the encoded content", result.HTML)
	}
}

func TestParseFeed_NoMatch(t *testing.T) {
	if _, ok := parseFeed([]byte(sampleFeed), "missing-slug"); ok {
		t.Error("parseFeed() matched a slug that is not in the feed")
	}
}

func TestParseFeed_BadXML(t *testing.T) {
	if _, ok := parseFeed([]byte("<html>not a feed</html>"), "x"); ok {
		t.Error("parseFeed() accepted non-RSS input")
	}
}

func TestFeedCandidates(t *testing.T) {
	raw := "https://medium.com/@someone/the-post-abc123"
	parsed, _ := url.Parse(raw)
	req := &Request{URL: raw, Parsed: parsed}

	got := feedCandidates(req)
	want := []string{
		"https://medium.com/feed/@someone/the-post-abc123",
		"https://medium.com/@someone/feed",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFeedCandidates_NoHandle(t *testing.T) {
	raw := "https://medium.com/publication/the-post-abc123"
	parsed, _ := url.Parse(raw)
	got := feedCandidates(&Request{URL: raw, Parsed: parsed})

	if len(got) != 1 {
		t.Fatalf("got %v, want only the /feed/ variant", got)
	}
	if got[0] != "https://medium.com/feed/publication/the-post-abc123" {
		t.Errorf("candidate = %q", got[0])
	}
}

func TestArticleSlug(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/@u/my-post-abc123", "my-post-abc123"},
		{"/my-post/", "my-post"},
		{"/", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := articleSlug(tt.path); got != tt.want {
			t.Errorf("articleSlug(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
