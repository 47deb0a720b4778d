package fetch

import (
	"context"
	"os/exec"
	"time"

	"github.com/use-agent/mediumdl/models"
)

// Curl is the last-resort strategy: shell out to an external command-line
// HTTP client with the same browser-like headers, on the theory that a
// different network stack may slip past the block.
type Curl struct {
	bin     string
	timeout time.Duration
}

// NewCurl creates the external-process retrieval strategy. bin is the
// client binary, normally "curl"; timeout bounds the whole invocation so
// a stalled connection cannot hang the run.
func NewCurl(bin string, timeout time.Duration) *Curl {
	return &Curl{bin: bin, timeout: timeout}
}

func (s *Curl) Name() string { return "curl" }

func (s *Curl) Attempt(ctx context.Context, req *Request) (*models.FetchResult, error) {
	if _, err := exec.LookPath(s.bin); err != nil {
		return nil, models.NewRecoverable(models.ErrCodeUnreachable, s.bin+" not found in PATH", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.bin,
		"-s", "-L",
		"-H", "User-Agent: "+chromeUA,
		"-H", "Accept: text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"-H", "Accept-Language: en-US,en;q=0.9",
		"-H", "Referer: "+siteRoot(req.Parsed),
		req.URL,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, models.NewRecoverable(models.ErrCodeTimeout, s.bin+" timed out", ctx.Err())
		}
		return nil, models.NewRecoverable(models.ErrCodeUnreachable, s.bin+" invocation failed", err)
	}
	if len(out) == 0 {
		return nil, models.NewRecoverable(models.ErrCodeUnreachable, s.bin+" returned an empty body", nil)
	}
	if blockedBody(out) {
		return nil, models.NewRecoverable(models.ErrCodeBlocked, "block page served to "+s.bin, nil)
	}

	return buildResult(string(out), req, s.Name(), 0)
}
