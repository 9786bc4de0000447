package acquire

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL trims raw and adds https:// when it has no scheme. The
// second result is false when the URL cannot be fetched: a scheme other
// than http or https, or no host.
func NormalizeURL(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return s, false
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Hostname() == "" {
		return s, false
	}
	return u.String(), true
}

// Domain returns the host of raw without port or a leading "www.". When
// no host can be parsed it falls back to the trimmed input minus any scheme.
func Domain(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	withScheme := s
	if !strings.Contains(withScheme, "://") {
		withScheme = "https://" + withScheme
	}
	if u, err := url.Parse(withScheme); err == nil && u.Hostname() != "" {
		return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	}

	if _, rest, ok := strings.Cut(s, "://"); ok {
		s = rest
	}
	return strings.TrimSpace(s)
}

// Synthesize builds the placeholder description used when nothing could
// be fetched and the caller gave no fallback.
func Synthesize(domain string) string {
	return fmt.Sprintf("A business operating at %s, offering products and services.", domain)
}
