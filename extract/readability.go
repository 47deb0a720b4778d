package extract

import (
	"log/slog"
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum extracted-text length (in characters)
// for readability output to be considered valid. Below this threshold we
// assume the algorithm failed to locate the main content and keep the
// input unchanged.
const minContentLength = 50

// TrimReadability runs the Mozilla Readability algorithm over rawHTML to
// strip navigation, footers and other chrome. It is used when the
// structural body locator fell through to the whole document.
//
// It never fails: on any problem the input comes back unchanged.
func TrimReadability(rawHTML string, sourceURL string) string {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Warn("readability: invalid source URL, keeping located HTML", "url", sourceURL, "error", err)
		return rawHTML
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Warn("readability: extraction failed, keeping located HTML", "url", sourceURL, "error", err)
		return rawHTML
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		slog.Warn("readability: extracted content too short, keeping located HTML",
			"url", sourceURL, "length", len(article.TextContent))
		return rawHTML
	}

	return article.Content
}
