package markdown

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/mediumdl/images"
	"github.com/use-agent/mediumdl/models"
)

// Extractor scans HTML for image references.
type Extractor interface {
	Extract(rawHTML string, base *url.URL) []models.ImageRef
}

// Fetcher downloads a single image, reporting success only.
type Fetcher interface {
	Download(ctx context.Context, url, filename, referer string) bool
}

// Renderer converts located article HTML into markdown with image
// references rewritten to local files. The converter is created once and
// reused.
type Renderer struct {
	conv     *converter.Converter
	images   Extractor
	fetcher  Fetcher
	mediaDir string
}

// NewRenderer creates a Renderer writing image paths under mediaDir.
func NewRenderer(mediaDir string, ex Extractor, dl Fetcher) *Renderer {
	return &Renderer{
		conv:     newConverter(),
		images:   ex,
		fetcher:  dl,
		mediaDir: mediaDir,
	}
}

// newConverter builds the reusable HTML→markdown converter:
//
//   - base plugin: strips script, style, iframe, noscript, head and
//     comments.
//   - commonmark plugin: headings, lists, links, images, code blocks.
//     Markdown lines are not hard-wrapped.
//   - table plugin: keeps table structure with minimal cell padding.
func newConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Render downloads the article's images, rewrites their references to
// local paths, and converts the HTML to markdown.
//
// Images that fail to download keep their original source, so the output
// may still reference remote URLs for those.
func (r *Renderer) Render(ctx context.Context, rawHTML string, baseURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("markdown: invalid base URL %q: %w", baseURL, err)
	}
	referer := base.Scheme + "://" + base.Host + "/"

	// Build the image map from successful downloads only.
	refs := r.images.Extract(rawHTML, base)
	imageMap := make(map[string]string, len(refs))
	for _, ref := range refs {
		if r.fetcher.Download(ctx, ref.SourceURL, ref.LocalName, referer) {
			imageMap[ref.SourceURL] = ref.LocalName
		}
	}

	markdown, err := r.conv.ConvertString(r.rewriteSources(rawHTML, base, imageMap))
	if err != nil {
		return "", fmt.Errorf("markdown: conversion failed: %w", err)
	}

	// The converter can emit an image URL in a form the attribute rewrite
	// did not catch, so mapped URLs are replaced again in the output:
	// once literally, once inside markdown image syntax.
	for srcURL, local := range imageMap {
		localPath := r.mediaDir + "/" + local
		markdown = strings.ReplaceAll(markdown, srcURL, localPath)
		re := regexp.MustCompile(`!\[([^\]]*)\]\(` + regexp.QuoteMeta(srcURL) + `\)`)
		markdown = re.ReplaceAllString(markdown, `![$1](`+localPath+`)`)
	}

	return markdown, nil
}

// rewriteSources points every successfully downloaded image's src at its
// local file. Conversion happens without domain resolution so these
// relative paths survive into the markdown.
func (r *Renderer) rewriteSources(rawHTML string, base *url.URL, imageMap map[string]string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := images.Src(s)
		if src == "" {
			return
		}
		absURL, ok := images.Resolve(src, base)
		if !ok {
			return
		}
		if local, mapped := imageMap[absURL]; mapped {
			s.SetAttr("src", r.mediaDir+"/"+local)
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil || out == "" {
		slog.Warn("image rewrite produced no HTML, converting original")
		return rawHTML
	}
	return out
}
