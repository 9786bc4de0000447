// Package extractor recovers schema-conformant records from generated text
// that is expected, but not guaranteed, to carry a JSON payload.
//
// Extraction runs a cascade and stops at the first strategy that yields a
// JSON object or array: the whole text, then fenced code blocks, then a
// bracket scan. The cascade runs with a strict decoder first and, if that
// finds nothing, once more with a lenient JSON5 decoder. The payload is then
// coerced field by field; missing or invalid values take their defaults.
package extractor

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jmylchreest/sitebrief/internal/logger"
	"github.com/jmylchreest/sitebrief/pkg/schema"
)

// Stage names the cascade strategy that located the payload.
type Stage string

const (
	StageDirect    Stage = "direct"
	StageFenced    Stage = "fenced"
	StageBraceScan Stage = "brace_scan"
)

// Reason classifies an extraction failure.
type Reason string

const (
	ReasonNoJSONFound    Reason = "no_json_found"
	ReasonMalformedJSON  Reason = "malformed_json"
	ReasonSchemaMismatch Reason = "schema_mismatch"
)

// Sentinel errors, matched with errors.Is against an *ExtractionError.
var (
	ErrNoJSONFound    = errors.New("no JSON payload found")
	ErrMalformedJSON  = errors.New("malformed JSON payload")
	ErrSchemaMismatch = errors.New("payload shape does not match schema")
)

// ExtractionError reports why no record could be recovered.
type ExtractionError struct {
	Reason    Reason
	RawSample string // Leading part of the input, for diagnostics
	Detail    string
}

func (e *ExtractionError) Error() string {
	msg := e.Unwrap().Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("extraction failed (%s): %s", e.Reason, msg)
}

// Unwrap returns the sentinel matching Reason.
func (e *ExtractionError) Unwrap() error {
	switch e.Reason {
	case ReasonMalformedJSON:
		return ErrMalformedJSON
	case ReasonSchemaMismatch:
		return ErrSchemaMismatch
	default:
		return ErrNoJSONFound
	}
}

// Result holds the extraction output.
type Result struct {
	// Records are the coerced records, in payload order. Record schemas
	// yield exactly one; list schemas yield zero or more.
	Records []schema.Record

	// Stage is the cascade strategy that located the payload.
	Stage Stage

	// Lenient is true when only the JSON5 decoder could parse the payload.
	Lenient bool

	// Dropped counts list elements discarded because they were not objects.
	Dropped int
}

// Record returns the first record, or nil.
func (r *Result) Record() schema.Record {
	if r == nil || len(r.Records) == 0 {
		return nil
	}
	return r.Records[0]
}

// Config bounds the cascade.
type Config struct {
	// MaxInputBytes caps how much of the input is scanned (default: 20000).
	MaxInputBytes int

	// MaxCandidates caps closing-bracket positions tried per bracket type
	// during the scan (default: 512).
	MaxCandidates int

	// SampleChars is the size of RawSample on failure (default: 500).
	SampleChars int

	// Lenient enables the JSON5 pass (default: true).
	Lenient bool
}

// DefaultConfig returns the default cascade bounds.
func DefaultConfig() Config {
	return Config{
		MaxInputBytes: 20000,
		MaxCandidates: 512,
		SampleChars:   500,
		Lenient:       true,
	}
}

// Option configures an Extractor.
type Option func(*Config)

// WithMaxInputBytes sets how much input is scanned.
func WithMaxInputBytes(n int) Option {
	return func(c *Config) { c.MaxInputBytes = n }
}

// WithMaxCandidates sets the per-bracket candidate cap.
func WithMaxCandidates(n int) Option {
	return func(c *Config) { c.MaxCandidates = n }
}

// WithSampleChars sets the diagnostic sample size.
func WithSampleChars(n int) Option {
	return func(c *Config) { c.SampleChars = n }
}

// WithLenient toggles the JSON5 pass.
func WithLenient(enabled bool) Option {
	return func(c *Config) { c.Lenient = enabled }
}

// Extractor runs the cascade. It holds no mutable state and is safe for
// concurrent use.
type Extractor struct {
	config Config
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	def := DefaultConfig()
	if cfg.MaxInputBytes <= 0 {
		cfg.MaxInputBytes = def.MaxInputBytes
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = def.MaxCandidates
	}
	if cfg.SampleChars <= 0 {
		cfg.SampleChars = def.SampleChars
	}
	return &Extractor{config: cfg}
}

var defaultExtractor = New()

// Extract runs the cascade with the default configuration.
func Extract(raw string, s schema.Schema) (*Result, error) {
	return defaultExtractor.Extract(raw, s)
}

// Extract recovers records for s from raw.
func (e *Extractor) Extract(raw string, s schema.Schema) (*Result, error) {
	input := truncateBytes(raw, e.config.MaxInputBytes)

	lenient := false
	found, ok := e.locate(input, s, decodeStrict)
	if (!ok || found.weak) && e.config.Lenient {
		if alt, altOK := e.locate(input, s, decodeLenient); altOK && (!ok || !alt.weak) {
			found, ok, lenient = alt, true, true
		}
	}
	if !ok {
		reason := ReasonNoJSONFound
		if looksAttempted(input) {
			reason = ReasonMalformedJSON
		}
		logger.Debug("extraction found no payload", "schema", s.Name, "reason", reason, "input_size", len(raw))
		return nil, &ExtractionError{
			Reason:    reason,
			RawSample: sample(raw, e.config.SampleChars),
		}
	}

	payload, stage := found.payload, found.stage
	records, dropped, err := shape(payload, s)
	if err != nil {
		logger.Debug("extraction shape mismatch", "schema", s.Name, "stage", stage, "error", err)
		return nil, &ExtractionError{
			Reason:    ReasonSchemaMismatch,
			RawSample: sample(raw, e.config.SampleChars),
			Detail:    err.Error(),
		}
	}

	logger.Debug("extraction complete",
		"schema", s.Name,
		"stage", stage,
		"lenient", lenient,
		"records", len(records),
		"dropped", dropped)

	return &Result{
		Records: records,
		Stage:   stage,
		Lenient: lenient,
		Dropped: dropped,
	}, nil
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// sample returns at most n runes of s.
func sample(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
