// Package acquire turns a URL and optional fallback text into bounded plain
// text suitable for prompting.
//
// Acquisition is fetch-first: a live fetch is attempted, then the caller's
// fallback text, then a sentence synthesized from the domain. Network
// problems never reach the caller; the only hard failure is running out of
// all three tiers.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmylchreest/sitebrief/internal/logger"
	"github.com/jmylchreest/sitebrief/pkg/cleaner"
	"github.com/jmylchreest/sitebrief/pkg/fetcher"
)

// Source records which tier produced the text.
type Source string

const (
	SourceFetched             Source = "fetched"
	SourceFallbackProvided    Source = "fallback_provided"
	SourceFallbackSynthesized Source = "fallback_synthesized"
)

// ReasonNoContentAvailable is the only reason an acquisition fails.
const ReasonNoContentAvailable = "no_content_available"

// TruncationMarker is appended to text cut at MaxChars.
const TruncationMarker = "..."

var (
	// ErrNoContentAvailable means the fetch failed, no fallback was given
	// and synthesis was disabled or impossible.
	ErrNoContentAvailable = errors.New("no content available")

	// ErrContentTooShort means the fetched page yielded less than MinChars
	// of text.
	ErrContentTooShort = errors.New("extracted content too short")
)

// AcquisitionError is returned when every tier is exhausted. Err holds the
// fetch failure, if any.
type AcquisitionError struct {
	Reason string
	URL    string
	Err    error
}

func (e *AcquisitionError) Error() string {
	msg := fmt.Sprintf("acquire %q: %s", e.URL, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrNoContentAvailable and the fetch error.
func (e *AcquisitionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNoContentAvailable}
	}
	return []error{ErrNoContentAvailable, e.Err}
}

// Request is a single acquisition.
type Request struct {
	URL      string
	Fallback string // Used only when the live fetch fails
}

// Content is the acquired text.
type Content struct {
	Text      string `json:"text" yaml:"text"`
	Source    Source `json:"source" yaml:"source"`
	Truncated bool   `json:"truncated" yaml:"truncated"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Attempts  int    `json:"attempts" yaml:"attempts"`
}

// Config configures an Acquirer.
type Config struct {
	// MaxChars caps the returned text, in runes (default: 3000).
	MaxChars int

	// MinChars is the least fetched text accepted, in runes (default: 50).
	MinChars int

	// DisableSynthesis turns off the domain sentence tier.
	DisableSynthesis bool

	// Timeout bounds each fetch attempt (default: 10s).
	Timeout time.Duration

	// MaxAttempts bounds fetch attempts, transient failures only (default: 2).
	MaxAttempts int

	// Backoff is the pause between attempts (default: 1s).
	Backoff time.Duration

	// UserAgent overrides the browser user agent.
	UserAgent string

	// MaxBodySize caps the response body in bytes (default: 5MB).
	MaxBodySize int

	// Client is the shared HTTP client. Nil builds one per Acquirer.
	Client *http.Client

	// Fetcher replaces the default static fetcher with retries.
	Fetcher fetcher.Fetcher

	// Cleaner replaces the default summary cleaner.
	Cleaner cleaner.Cleaner
}

// DefaultConfig returns the default acquisition bounds.
func DefaultConfig() Config {
	return Config{
		MaxChars:    3000,
		MinChars:    50,
		Timeout:     10 * time.Second,
		MaxAttempts: 2,
		Backoff:     time.Second,
	}
}

// Option configures an Acquirer.
type Option func(*Config)

// WithMaxChars sets the output cap.
func WithMaxChars(n int) Option {
	return func(c *Config) { c.MaxChars = n }
}

// WithMinChars sets the minimum fetched text length.
func WithMinChars(n int) Option {
	return func(c *Config) { c.MinChars = n }
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry sets the attempt count and the pause between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Config) {
		c.MaxAttempts = attempts
		c.Backoff = backoff
	}
}

// WithoutSynthesis disables the domain sentence tier.
func WithoutSynthesis() Option {
	return func(c *Config) { c.DisableSynthesis = true }
}

// WithUserAgent overrides the request user agent.
func WithUserAgent(ua string) Option {
	return func(c *Config) { c.UserAgent = ua }
}

// WithMaxBodySize caps the response body read per page.
func WithMaxBodySize(n int) Option {
	return func(c *Config) { c.MaxBodySize = n }
}

// WithClient shares an HTTP client, typically one per process.
func WithClient(client *http.Client) Option {
	return func(c *Config) { c.Client = client }
}

// WithFetcher replaces the fetch chain.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Config) { c.Fetcher = f }
}

// WithCleaner replaces the HTML to text step.
func WithCleaner(cl cleaner.Cleaner) Option {
	return func(c *Config) { c.Cleaner = cl }
}

// Acquirer runs the fetch, fallback and synthesis ladder. It is safe for
// concurrent use; its only shared state is the HTTP client.
type Acquirer struct {
	config  Config
	fetcher fetcher.Fetcher
	cleaner cleaner.Cleaner
}

// New creates an Acquirer.
func New(opts ...Option) *Acquirer {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	def := DefaultConfig()
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = def.MaxChars
	}
	if cfg.MinChars < 0 {
		cfg.MinChars = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}

	f := cfg.Fetcher
	if f == nil {
		f = fetcher.WithRetry(
			fetcher.NewStatic(fetcher.StaticConfig{
				UserAgent:   cfg.UserAgent,
				Timeout:     cfg.Timeout,
				MaxBodySize: cfg.MaxBodySize,
				Client:      cfg.Client,
			}),
			fetcher.RetryConfig{MaxAttempts: cfg.MaxAttempts, Backoff: cfg.Backoff},
		)
	}
	cl := cfg.Cleaner
	if cl == nil {
		cl = cleaner.NewSummary(cleaner.DefaultSummaryConfig())
	}

	return &Acquirer{config: cfg, fetcher: f, cleaner: cl}
}

// Close releases the fetcher.
func (a *Acquirer) Close() error {
	return a.fetcher.Close()
}

// Acquire returns text for req. It only fails with an *AcquisitionError
// wrapping ErrNoContentAvailable.
func (a *Acquirer) Acquire(ctx context.Context, req Request) (Content, error) {
	log := logger.For("acquire")
	target, fetchable := NormalizeURL(req.URL)

	var (
		fetchErr error
		attempts int
	)
	if fetchable {
		text, n, err := a.fetchText(ctx, target)
		attempts = n
		if err == nil {
			log.Debug("acquired from live fetch", "url", target, "attempts", n, "chars", utf8.RuneCountInString(text))
			return a.finish(text, SourceFetched, target, attempts), nil
		}
		fetchErr = err
		log.Warn("live fetch failed, falling back", "url", target, "attempts", n, "error", err)
	} else {
		fetchErr = fmt.Errorf("%w: %q", fetcher.ErrUnsupportedScheme, req.URL)
		log.Debug("url not fetchable", "url", req.URL)
	}

	if strings.TrimSpace(req.Fallback) != "" {
		return a.finish(req.Fallback, SourceFallbackProvided, target, attempts), nil
	}

	if !a.config.DisableSynthesis {
		if domain := Domain(req.URL); domain != "" {
			log.Debug("synthesizing content from domain", "domain", domain)
			return a.finish(Synthesize(domain), SourceFallbackSynthesized, target, attempts), nil
		}
	}

	return Content{}, &AcquisitionError{
		Reason: ReasonNoContentAvailable,
		URL:    req.URL,
		Err:    fetchErr,
	}
}

// fetchText fetches and cleans one page, applying the minimum-content guard.
func (a *Acquirer) fetchText(ctx context.Context, target string) (string, int, error) {
	page, err := a.fetcher.Fetch(ctx, target, fetcher.Options{Timeout: a.config.Timeout})
	if err != nil {
		return "", page.Attempts, err
	}

	text, err := a.cleaner.Clean(page.HTML)
	if err != nil {
		return "", page.Attempts, fmt.Errorf("cleaning %s: %w", target, err)
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < a.config.MinChars {
		return "", page.Attempts, fmt.Errorf("%w: %d < %d chars", ErrContentTooShort, n, a.config.MinChars)
	}
	return text, page.Attempts, nil
}

func (a *Acquirer) finish(text string, source Source, target string, attempts int) Content {
	text, truncated := Truncate(text, a.config.MaxChars)
	return Content{
		Text:      text,
		Source:    source,
		Truncated: truncated,
		URL:       target,
		Attempts:  attempts,
	}
}

// Truncate cuts text to max runes and appends TruncationMarker when it
// was longer.
func Truncate(text string, max int) (string, bool) {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text, false
	}
	i := 0
	for pos := range text {
		if i == max {
			return text[:pos] + TruncationMarker, true
		}
		i++
	}
	return text, false
}
