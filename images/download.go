package images

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/use-agent/mediumdl/config"
)

const imageUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
const imageAccept = "image/avif,image/webp,image/apng,image/svg+xml,image/*,*/*;q=0.8"

// Downloader retrieves images to the media directory. Every failure mode
// degrades to a false return plus a warning; an image must never abort
// the run.
type Downloader struct {
	http     *resty.Client
	mediaDir string
	curlBin  string
	timeout  time.Duration
	limiter  *rate.Limiter
}

// NewDownloader builds the image HTTP client: browser-profile headers via
// the cloudflare bypass transport, a fixed-delay limiter so image requests
// are paced like a human scrolling, and the run's request timeout applied
// to both the client and the external fallback.
func NewDownloader(cfg config.MediaConfig, curlBin string, timeout time.Duration) *Downloader {
	client := resty.New()
	client.SetTimeout(timeout)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("User-Agent", imageUA)
	client.SetHeader("Accept", imageAccept)
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")

	return &Downloader{
		http:     client,
		mediaDir: cfg.Dir,
		curlBin:  curlBin,
		timeout:  timeout,
		limiter:  rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
	}
}

// Download fetches url into <mediaDir>/<filename> and reports success.
//
// A response whose content-type is not image/* is rejected: a block page
// masquerading as the requested resource must not be saved as an image.
// A hard 403 gets one retry through the external curl client; any other
// failure is logged and reported as false with no fallback.
func (d *Downloader) Download(ctx context.Context, url, filename, referer string) bool {
	if err := d.limiter.Wait(ctx); err != nil {
		return false
	}

	resp, err := d.http.R().
		SetContext(ctx).
		SetHeader("Referer", referer).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		slog.Warn("image download failed", "url", url, "error", err)
		return false
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() == http.StatusForbidden {
		return d.curlFallback(ctx, url, filename, referer)
	}
	if resp.StatusCode() >= 400 {
		slog.Warn("image download failed", "url", url, "status", resp.StatusCode())
		return false
	}

	contentType := resp.Header().Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		slog.Warn("response is not an image", "url", url, "contentType", contentType)
		return false
	}

	dest := filepath.Join(d.mediaDir, filename)
	f, err := os.Create(dest)
	if err != nil {
		slog.Warn("cannot create image file", "path", dest, "error", err)
		return false
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dest)
		slog.Warn("image write failed", "path", dest, "error", err)
		return false
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return false
	}

	slog.Info("downloaded image", "file", filename)
	return true
}

// curlFallback downloads directly to the destination path via the
// external client. Success requires a zero exit status AND a non-empty
// resulting file.
func (d *Downloader) curlFallback(ctx context.Context, url, filename, referer string) bool {
	if _, err := exec.LookPath(d.curlBin); err != nil {
		slog.Warn("image blocked and no external client available", "url", url)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	dest := filepath.Join(d.mediaDir, filename)
	cmd := exec.CommandContext(ctx, d.curlBin,
		"-s", "-L", "-o", dest,
		"-H", "User-Agent: "+imageUA,
		"-H", "Accept: "+imageAccept,
		"-H", "Referer: "+referer,
		url,
	)

	if err := cmd.Run(); err != nil {
		slog.Warn("external image download failed", "url", url, "error", err)
		os.Remove(dest)
		return false
	}
	st, err := os.Stat(dest)
	if err != nil || st.Size() == 0 {
		slog.Warn("external image download produced no data", "url", url)
		os.Remove(dest)
		return false
	}

	slog.Info("downloaded image via external client", "file", filename)
	return true
}
