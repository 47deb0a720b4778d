package fetch

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/use-agent/mediumdl/models"
)

// Feed is strategy 2: derive syndication-feed URLs from the article URL
// and look for the article inside the feed. Feeds are often served even
// when the article page itself is blocked.
type Feed struct {
	client *Client
}

// NewFeed creates the feed-retrieval strategy.
func NewFeed(client *Client) *Feed {
	return &Feed{client: client}
}

func (s *Feed) Name() string { return "feed" }

type rssFeed struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	Encoded string `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
}

func (s *Feed) Attempt(ctx context.Context, req *Request) (*models.FetchResult, error) {
	slug := articleSlug(req.Parsed.Path)
	if slug == "" {
		return nil, models.NewRecoverable(models.ErrCodeFeedMiss, "no article slug in URL path", nil)
	}

	for _, feedURL := range feedCandidates(req) {
		resp, err := s.client.Get(ctx, feedURL, nil)
		if err != nil || resp.StatusCode != http.StatusOK {
			continue
		}

		if result, ok := parseFeed(resp.Body, slug); ok {
			result.Strategy = s.Name()
			return result, nil
		}
	}

	return nil, models.NewRecoverable(models.ErrCodeFeedMiss, "article not found in any derived feed", nil)
}

// parseFeed looks for an item whose link contains the article slug and has
// encoded content; its content becomes the article body.
func parseFeed(body []byte, slug string) (*models.FetchResult, bool) {
	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, false
	}

	for _, item := range feed.Channel.Items {
		if !strings.Contains(item.Link, slug) || item.Encoded == "" {
			continue
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "Untitled Article"
		}
		return &models.FetchResult{HTML: item.Encoded, Title: title}, true
	}
	return nil, false
}

// feedCandidates derives feed-style URLs from the article URL: the /feed/
// path-prefix variant, and the author feed when the path carries an
// @handle segment.
func feedCandidates(req *Request) []string {
	var candidates []string

	if strings.Contains(req.URL, "medium.com/") {
		candidates = append(candidates,
			strings.Replace(req.URL, "medium.com/", "medium.com/feed/", 1))
	}

	if at := strings.Index(req.URL, "@"); at >= 0 {
		handle := req.URL[at+1:]
		if slash := strings.IndexByte(handle, '/'); slash >= 0 {
			handle = handle[:slash]
		}
		if handle != "" {
			candidates = append(candidates, "https://medium.com/@"+handle+"/feed")
		}
	}

	return candidates
}

// articleSlug returns the trailing path segment used to match the article
// against feed item links.
func articleSlug(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}
