package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/proxy"

	"github.com/use-agent/mediumdl/config"
	"github.com/use-agent/mediumdl/models"
)

const chromeUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2 (which Go's http.Transport cannot handle
	// over a utls connection).
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// blockMarkers are substrings whose presence in a 2xx body means the site
// served a block page instead of the article.
var blockMarkers = []string{"Access Denied", "403 Forbidden"}

// Response is the raw outcome of a single page request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   string
}

// Client is the process-wide HTTP session used for all article-page
// requests: one cookie jar, one set of browser-like default headers, and a
// Chrome TLS fingerprint. It is constructed once per run and passed into
// every strategy explicitly so tests can substitute a plain test server.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// NewClient builds the session client. http/https proxies go through the
// transport's CONNECT tunnel; socks5/socks5h proxies are wired as the dial
// function so the TLS fingerprint survives; any other scheme is rejected.
func NewClient(cfg config.FetchConfig) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: cookie jar: %w", err)
	}

	dial := (&net.Dialer{Timeout: 10 * time.Second}).DialContext
	transport := &http.Transport{ForceAttemptHTTP2: false}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("fetch: invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		switch proxyURL.Scheme {
		case "http", "https":
			// HTTPS requests through a CONNECT proxy are tunnelled by the
			// transport with crypto/tls, so the Chrome fingerprint below
			// only covers direct and socks connections.
			transport.Proxy = http.ProxyURL(proxyURL)
		case "socks5", "socks5h":
			var auth *proxy.Auth
			if user := proxyURL.User; user != nil {
				auth = &proxy.Auth{User: user.Username()}
				if pw, ok := user.Password(); ok {
					auth.Password = pw
				}
			}
			socksDialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("fetch: socks proxy: %w", err)
			}
			contextDialer, ok := socksDialer.(proxy.ContextDialer)
			if !ok {
				return nil, fmt.Errorf("fetch: socks proxy dialer lacks context support")
			}
			dial = contextDialer.DialContext
		default:
			return nil, fmt.Errorf("fetch: unsupported proxy scheme %q", proxyURL.Scheme)
		}
	}

	transport.DialContext = dial
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		host, _, _ := net.SplitHostPort(addr)
		tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
		if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
			conn.Close()
			return nil, fmt.Errorf("fetch: apply tls spec: %w", err)
		}
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		return tlsConn, nil
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		timeout: cfg.Timeout,
	}, nil
}

// Get performs a GET with the session's browser-like headers. extra entries
// override the defaults (used for per-strategy referer tweaks).
//
// Network and timeout failures come back as recoverable FetchErrors: for an
// article fetch they mean "advance to the next strategy". HTTP error
// statuses are NOT errors here; callers inspect StatusCode.
func (c *Client) Get(ctx context.Context, targetURL string, extra map[string]string) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, models.NewFetchError(models.ErrCodeBadInput, "build request", err)
	}

	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "identity") // no compression for simplicity
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "max-age=0")
	req.Header.Set("Referer", "https://www.google.com/")

	for k, v := range extra {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, models.NewRecoverable(models.ErrCodeTimeout, "request timed out", err)
		}
		return nil, models.NewRecoverable(models.ErrCodeUnreachable, "request failed", err)
	}
	defer resp.Body.Close()

	// 10 MB cap to prevent unbounded memory use.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, models.NewRecoverable(models.ErrCodeUnreachable, "read body", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

// Blocked reports whether resp looks like a hard block: a 403 status, or a
// body carrying known block-page markers.
func (c *Client) Blocked(resp *Response) bool {
	if resp.StatusCode == http.StatusForbidden {
		return true
	}
	return blockedBody(resp.Body)
}

func blockedBody(body []byte) bool {
	text := string(body)
	for _, marker := range blockMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
