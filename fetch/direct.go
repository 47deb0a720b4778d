package fetch

import (
	"context"
	"fmt"

	"github.com/use-agent/mediumdl/models"
)

// Direct is strategy 1: a plain GET with browser-like headers. For the
// blocking-prone domain the referer is overridden to look same-origin,
// which noticeably improves the success rate.
type Direct struct {
	client *Client
}

// NewDirect creates the direct-retrieval strategy.
func NewDirect(client *Client) *Direct {
	return &Direct{client: client}
}

func (s *Direct) Name() string { return "direct" }

func (s *Direct) Attempt(ctx context.Context, req *Request) (*models.FetchResult, error) {
	extra := map[string]string{}
	if isMediumHost(req.Parsed.Host) {
		extra["Referer"] = siteRoot(req.Parsed)
		extra["Sec-Fetch-Site"] = "same-origin"
	}

	resp, err := s.client.Get(ctx, req.URL, extra)
	if err != nil {
		return nil, err
	}

	if s.client.Blocked(resp) {
		return nil, models.NewRecoverable(models.ErrCodeBlocked,
			fmt.Sprintf("block page served (HTTP %d)", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 400 {
		return nil, models.NewRecoverable(models.ErrCodeUnreachable,
			fmt.Sprintf("HTTP %d for %s", resp.StatusCode, req.URL), nil)
	}

	return buildResult(string(resp.Body), req, s.Name(), resp.StatusCode)
}
