// Package fetcher defines how sitebrief retrieves web pages.
// Fetchers return raw HTML plus response metadata; turning that HTML into
// prompt-ready text is the job of package cleaner.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"strings"
	"syscall"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources.
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "retry(static)").
	Type() string
}

// Options controls a single fetch.
type Options struct {
	UserAgent string
	Timeout   time.Duration // Per-attempt timeout; zero uses the fetcher default
	Headers   map[string]string
}

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Attempts    int // Number of requests issued to obtain this content
}

// Error types for distinguishing failure reasons.
var (
	// ErrNotHTML indicates the response was not an HTML document.
	ErrNotHTML = errors.New("response is not HTML")
	// ErrUnsupportedScheme indicates a URL that is not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// IsTransient reports whether err is worth another attempt: timeouts,
// dropped or refused connections, and 5xx responses. Client errors and
// wrong content types are not expected to resolve on their own.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 && statusErr.Code <= 599
	}
	if errors.Is(err, ErrNotHTML) || errors.Is(err, ErrUnsupportedScheme) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

// IsHTMLContentType reports whether a Content-Type header denotes an HTML document.
func IsHTMLContentType(ct string) bool {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
