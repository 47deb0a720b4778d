package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// untitled is the last-resort title when no candidate matches.
const untitled = "Untitled Article"

var reArticleClass = regexp.MustCompile(`(?i)article|post|story`)

// titleProbe returns a title candidate or "" to let the next probe run.
type titleProbe func(*goquery.Document) string

// titleProbes is the resolution order: first non-empty wins.
var titleProbes = []titleProbe{
	func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find("h1").First().Text())
	},
	func(doc *goquery.Document) string {
		content, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
		return strings.TrimSpace(content)
	},
	func(doc *goquery.Document) string {
		content, _ := doc.Find(`meta[name="twitter:title"]`).First().Attr("content")
		return strings.TrimSpace(content)
	},
	func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find("title").First().Text())
	},
}

// ResolveTitle resolves the article title from rawHTML:
// <h1> → og:title → twitter:title → <title> → "Untitled Article".
func ResolveTitle(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return untitled
	}
	for _, probe := range titleProbes {
		if title := probe(doc); title != "" {
			return title
		}
	}
	return untitled
}

// bodyProbe returns the selection believed to hold the article body, or an
// empty selection to let the next probe run.
type bodyProbe func(*goquery.Document) *goquery.Selection

var bodyProbes = []bodyProbe{
	func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("article").First()
	},
	func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(`[role="article"]`).First()
	},
	func(doc *goquery.Document) *goquery.Selection {
		var found *goquery.Selection
		doc.Find("div[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			if reArticleClass.MatchString(class) {
				found = s
				return false
			}
			return true
		})
		return found
	},
}

// LocateBody finds the sub-tree likely to contain the article body:
// <article> → [role=article] → class matching article/post/story → <body>.
//
// The bool result is false when every structural probe missed and the
// whole document body was returned instead, so callers can decide to run
// heavier extraction on the fallback.
func LocateBody(rawHTML string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		slog.Warn("body locator: unparsable HTML, keeping input as-is", "error", err)
		return rawHTML, false
	}

	for _, probe := range bodyProbes {
		sel := probe(doc)
		if sel == nil || sel.Length() == 0 {
			continue
		}
		if out, err := goquery.OuterHtml(sel); err == nil && out != "" {
			return out, true
		}
	}

	if out, err := goquery.OuterHtml(doc.Find("body").First()); err == nil && out != "" {
		return out, false
	}
	return rawHTML, false
}
