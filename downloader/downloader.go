package downloader

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/use-agent/mediumdl/models"
)

// Fetcher retrieves an article. The production implementation is the
// fetch.Chain; tests inject fakes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.FetchResult, error)
}

// Renderer converts located article HTML into markdown with local image
// references.
type Renderer interface {
	Render(ctx context.Context, rawHTML, baseURL string) (string, error)
}

// Downloader sequences the pipeline: fetch → render → name → write.
type Downloader struct {
	fetcher  Fetcher
	renderer Renderer
	mediaDir string
}

// New creates a Downloader.
func New(f Fetcher, r Renderer, mediaDir string) *Downloader {
	return &Downloader{fetcher: f, renderer: r, mediaDir: mediaDir}
}

// DownloadArticle retrieves the article at rawURL, writes its markdown to
// outputFile (derived from the sanitized title when empty), and returns
// the written path. Existing files at the output path are overwritten.
func (d *Downloader) DownloadArticle(ctx context.Context, rawURL, outputFile string) (string, error) {
	slog.Info("fetching article", "url", rawURL)

	if err := os.MkdirAll(d.mediaDir, 0o755); err != nil {
		return "", err
	}

	result, err := d.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	slog.Info("article fetched", "title", result.Title, "strategy", result.Strategy)

	slog.Info("converting to markdown and downloading images")
	markdown, err := d.renderer.Render(ctx, result.HTML, rawURL)
	if err != nil {
		return "", err
	}

	out := outputFile
	if out == "" {
		out = SanitizeTitle(result.Title) + ".md"
	}

	// The document always opens with the title unless the body already
	// starts with a heading of its own.
	if !strings.HasPrefix(strings.TrimSpace(markdown), "#") {
		markdown = "# " + result.Title + "\n\n" + markdown
	}

	if err := os.WriteFile(out, []byte(markdown), 0o644); err != nil {
		return "", err
	}

	slog.Info("saved markdown", "path", out)
	return out, nil
}

var (
	reNonWord = regexp.MustCompile(`[^\w\s-]`)
	reRuns    = regexp.MustCompile(`[-\s]+`)
)

// SanitizeTitle turns a title into a safe filename stem: non-word,
// non-space, non-hyphen characters are stripped and whitespace/hyphen runs
// collapse to single hyphens.
func SanitizeTitle(title string) string {
	s := reNonWord.ReplaceAllString(title, "")
	s = strings.TrimSpace(s)
	s = reRuns.ReplaceAllString(s, "-")
	if s == "" {
		return "article"
	}
	return s
}
