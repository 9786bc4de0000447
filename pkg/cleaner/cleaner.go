// Package cleaner turns fetched HTML into prompt-ready plain text.
package cleaner

// Cleaner transforms HTML content into plain text for downstream prompting.
type Cleaner interface {
	// Clean transforms the input HTML into cleaned text.
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
