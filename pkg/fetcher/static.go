package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/jmylchreest/sitebrief/internal/logger"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	MaxBodySize    int

	// Client is shared by every request this fetcher issues. It is never
	// modified after construction; per-request timeouts travel on the context.
	Client *http.Client
}

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultAcceptLanguage = "en-US,en;q=0.9"
	maxRedirects          = 5
)

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent:      defaultUserAgent,
		AcceptLanguage: defaultAcceptLanguage,
		Timeout:        10 * time.Second,
		MaxBodySize:    5 << 20,
	}
}

// NewHTTPClient builds the pooled client a process should construct once
// and hand to every fetcher. The client carries no overall timeout.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 64
	transport.MaxIdleConnsPerHost = 8
	transport.IdleConnTimeout = 90 * time.Second
	transport.DialContext = (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if !isHTTPScheme(req.URL) {
				return fmt.Errorf("redirect to %q: %w", req.URL.Scheme, ErrUnsupportedScheme)
			}
			return nil
		},
	}
}

// StaticFetcher uses Colly for static HTML fetching. One attempt per call;
// wrap it with WithRetry for retries.
type StaticFetcher struct {
	config StaticConfig
}

// NewStatic creates a new static fetcher. A nil cfg.Client gets a fresh
// NewHTTPClient, owned by this fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	defaults := DefaultStaticConfig()
	cfg.UserAgent = coalesce(cfg.UserAgent, defaults.UserAgent)
	cfg.AcceptLanguage = coalesce(cfg.AcceptLanguage, defaults.AcceptLanguage)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaults.MaxBodySize
	}
	if cfg.Client == nil {
		cfg.Client = NewHTTPClient()
	}
	return &StaticFetcher{config: cfg}
}

// Fetch issues a single GET and validates status and content type.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
		Attempts:  1,
	}

	u, err := url.Parse(targetURL)
	if err != nil {
		return result, fmt.Errorf("parse URL: %w", err)
	}
	if !isHTTPScheme(u) || u.Host == "" {
		return result, fmt.Errorf("%q: %w", targetURL, ErrUnsupportedScheme)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = f.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	userAgent := coalesce(opts.UserAgent, f.config.UserAgent)
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
		colly.MaxBodySize(f.config.MaxBodySize),
		colly.ParseHTTPErrorResponse(),
		colly.DetectCharset(),
	)
	c.SetClient(f.config.Client)

	hdr := http.Header{}
	hdr.Set("User-Agent", userAgent)
	hdr.Set("Accept", defaultAccept)
	hdr.Set("Accept-Language", f.config.AcceptLanguage)
	for k, v := range opts.Headers {
		hdr.Set(k, v)
	}

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		if r.Headers != nil {
			result.ContentType = r.Headers.Get("Content-Type")
		}
		result.HTML = string(r.Body)
	})

	logger.Debug("static fetch starting", "url", targetURL, "timeout", timeout)
	if err := c.Request(http.MethodGet, targetURL, nil, nil, hdr); err != nil {
		logger.Debug("static fetch failed", "url", targetURL, "error", err)
		return result, fmt.Errorf("fetch %s: %w", targetURL, err)
	}

	if result.StatusCode < 200 || result.StatusCode > 299 {
		return result, fmt.Errorf("fetch %s: %w", targetURL, &StatusError{Code: result.StatusCode})
	}
	if !IsHTMLContentType(result.ContentType) {
		return result, fmt.Errorf("fetch %s: content type %q: %w", targetURL, result.ContentType, ErrNotHTML)
	}

	logger.Debug("static fetch complete",
		"url", targetURL,
		"status", result.StatusCode,
		"content_type", result.ContentType,
		"body_size", len(result.HTML))
	return result, nil
}

// Close releases resources. The shared client stays open for other users.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
