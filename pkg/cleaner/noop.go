package cleaner

// NoopCleaner passes the fetched document through unchanged.
// Useful when the caller wants the raw page, for example to feed a
// different text extractor.
type NoopCleaner struct{}

// NewNoop creates a no-op cleaner.
func NewNoop() *NoopCleaner {
	return &NoopCleaner{}
}

// Clean returns the input unchanged.
func (c *NoopCleaner) Clean(html string) (string, error) {
	return html, nil
}

// Name returns the cleaner type.
func (c *NoopCleaner) Name() string {
	return "noop"
}

// ByName returns the cleaner registered under name: "summary" (the
// default for an empty name) or "noop".
func ByName(name string) (Cleaner, bool) {
	switch name {
	case "", "summary":
		return NewSummary(DefaultSummaryConfig()), true
	case "noop":
		return NewNoop(), true
	}
	return nil, false
}
