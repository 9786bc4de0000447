// Package output renders acquisition and extraction results for the CLI.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ParseFormat maps a flag value to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Writer serializes results. Write emits one document per call; WriteAll
// emits a list as a single document (or one line per item for JSONL).
type Writer interface {
	Write(v any) error
	WriteAll(items []any) error
	Close() error
}

// Option configures a writer.
type Option func(*config)

type config struct {
	compact bool
	indent  string
}

// WithCompact disables pretty-printing for JSON.
func WithCompact() Option {
	return func(c *config) { c.compact = true }
}

// WithIndent sets the JSON indentation string.
func WithIndent(indent string) Option {
	return func(c *config) { c.indent = indent }
}

// New creates a writer for the specified format.
func New(w io.Writer, format Format, opts ...Option) (Writer, error) {
	cfg := &config{indent: "  "}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return newJSONWriter(w, cfg), nil
	case FormatJSONL:
		return newJSONLWriter(w), nil
	case FormatYAML:
		return newYAMLWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
