package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/use-agent/mediumdl/extract"
	"github.com/use-agent/mediumdl/models"
)

// Request carries everything a strategy needs to attempt a retrieval.
type Request struct {
	// URL is the original article URL as given on the command line.
	URL string

	// Parsed is the pre-parsed form of URL.
	Parsed *url.URL

	// Selector optionally restricts the located body before rendering.
	Selector string
}

// Strategy is one rung of the retrieval ladder. A recoverable error means
// "this strategy missed, try the next one"; any other error aborts the
// chain so unexpected bugs are not swallowed by fallback paths.
type Strategy interface {
	// Name returns the strategy identifier (e.g. "direct", "feed").
	Name() string

	// Attempt tries to retrieve the article.
	Attempt(ctx context.Context, req *Request) (*models.FetchResult, error)
}

// Chain tries an ordered list of strategies in sequence and returns the
// first success. It only escalates to a fatal error (with remediation
// guidance) after the last strategy has failed.
type Chain struct {
	selector   string
	strategies []Strategy
}

// NewChain creates a Chain. selector, if non-empty, is threaded into every
// request so strategies can restrict the located body.
func NewChain(selector string, strategies ...Strategy) *Chain {
	return &Chain{selector: selector, strategies: strategies}
}

// Fetch runs the strategy ladder for rawURL.
func (c *Chain) Fetch(ctx context.Context, rawURL string) (*models.FetchResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, models.NewFetchError(models.ErrCodeBadInput, "invalid article URL: "+rawURL, err)
	}

	req := &Request{URL: rawURL, Parsed: parsed, Selector: c.selector}

	var lastErr error
	for _, s := range c.strategies {
		result, err := s.Attempt(ctx, req)
		if err == nil {
			slog.Info("strategy succeeded", "strategy", s.Name())
			return result, nil
		}
		if !models.Recoverable(err) {
			return nil, err
		}
		slog.Warn("strategy failed, trying next", "strategy", s.Name(), "error", err)
		lastErr = err
	}

	return nil, models.ErrExhausted(lastErr)
}

// buildResult runs the locator chains over rawHTML and assembles the
// FetchResult shared by all strategies that retrieve a full document.
//
// When the body locator fell through to the whole document, readability is
// given a chance to trim navigation chrome before rendering.
func buildResult(rawHTML string, req *Request, strategy string, status int) (*models.FetchResult, error) {
	title := extract.ResolveTitle(rawHTML)

	body, matched := extract.LocateBody(rawHTML)
	if !matched {
		body = extract.TrimReadability(body, req.Parsed.String())
	}

	if req.Selector != "" {
		restricted, err := extract.ApplySelector(body, req.Selector)
		if err != nil {
			slog.Warn("invalid CSS selector, ignoring", "selector", req.Selector, "error", err)
		} else {
			body = restricted
		}
	}

	return &models.FetchResult{
		HTML:       body,
		Title:      title,
		StatusCode: status,
		Strategy:   strategy,
	}, nil
}

// isMediumHost reports whether host belongs to the blocking-prone domain
// that gets the same-origin referer treatment and feed fallbacks.
func isMediumHost(host string) bool {
	host = strings.ToLower(host)
	return host == "medium.com" || strings.HasSuffix(host, ".medium.com")
}

// siteRoot returns the scheme://host/ root of u.
func siteRoot(u *url.URL) string {
	return u.Scheme + "://" + u.Host + "/"
}
