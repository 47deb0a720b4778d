package fetch

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/stealth"

	"github.com/use-agent/mediumdl/config"
	"github.com/use-agent/mediumdl/models"
)

// Browser is an opt-in strategy that renders the page in a stealth
// headless browser. It sits between warm-up and the external-process
// fallback: heavier than plain HTTP, but it defeats JS-based blocks the
// other strategies cannot.
type Browser struct {
	cfg     config.BrowserConfig
	timeout time.Duration
}

// NewBrowser creates the headless-browser retrieval strategy.
func NewBrowser(cfg config.BrowserConfig, timeout time.Duration) *Browser {
	return &Browser{cfg: cfg, timeout: timeout}
}

func (s *Browser) Name() string { return "browser" }

func (s *Browser) Attempt(ctx context.Context, req *Request) (*models.FetchResult, error) {
	l := launcher.New().
		Headless(s.cfg.Headless).
		NoSandbox(s.cfg.NoSandbox)
	if s.cfg.Bin != "" {
		l = l.Bin(s.cfg.Bin)
	}
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewRecoverable(models.ErrCodeUnreachable, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, models.NewRecoverable(models.ErrCodeUnreachable, "failed to connect to browser", err)
	}
	defer browser.Close()

	// Stealth JS must be injected before navigation to mask
	// navigator.webdriver and friends.
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, models.NewRecoverable(models.ErrCodeUnreachable, "failed to open stealth page", err)
	}
	defer page.Close()

	page = page.Timeout(s.timeout)
	if err := page.Navigate(req.URL); err != nil {
		return nil, models.NewRecoverable(models.ErrCodeUnreachable, "navigation failed", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, models.NewRecoverable(models.ErrCodeTimeout, "page load wait failed", err)
	}

	rendered, err := page.HTML()
	if err != nil {
		return nil, models.NewRecoverable(models.ErrCodeUnreachable, "failed to read page HTML", err)
	}
	if blockedBody([]byte(rendered)) {
		return nil, models.NewRecoverable(models.ErrCodeBlocked, "block page rendered in browser", nil)
	}

	return buildResult(rendered, req, s.Name(), 0)
}
