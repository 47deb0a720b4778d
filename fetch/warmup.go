package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/mediumdl/models"
)

// Warmup is strategy 3: visit the site root first so the session picks up
// whatever cookies the site hands out, pause briefly to look less like a
// bot, then retry the article with a same-origin referer.
type Warmup struct {
	client *Client
	delay  time.Duration
}

// NewWarmup creates the warm-up retrieval strategy.
func NewWarmup(client *Client, delay time.Duration) *Warmup {
	return &Warmup{client: client, delay: delay}
}

func (s *Warmup) Name() string { return "warmup" }

func (s *Warmup) Attempt(ctx context.Context, req *Request) (*models.FetchResult, error) {
	root := siteRoot(req.Parsed)

	// The warm-up request is allowed to fail; its only job is to populate
	// the cookie jar.
	if _, err := s.client.Get(ctx, root, nil); err != nil {
		slog.Debug("warm-up root fetch failed", "url", root, "error", err)
	}

	select {
	case <-ctx.Done():
		return nil, models.NewRecoverable(models.ErrCodeTimeout, "cancelled during warm-up pause", ctx.Err())
	case <-time.After(s.delay):
	}

	resp, err := s.client.Get(ctx, req.URL, map[string]string{
		"Referer":        root,
		"Sec-Fetch-Site": "same-origin",
	})
	if err != nil {
		return nil, err
	}

	if s.client.Blocked(resp) {
		return nil, models.NewRecoverable(models.ErrCodeBlocked,
			fmt.Sprintf("block page served after warm-up (HTTP %d)", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, models.NewRecoverable(models.ErrCodeUnreachable,
			fmt.Sprintf("HTTP %d for %s", resp.StatusCode, req.URL), nil)
	}

	return buildResult(string(resp.Body), req, s.Name(), resp.StatusCode)
}
