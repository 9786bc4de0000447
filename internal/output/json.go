package output

import (
	"encoding/json"
	"io"
)

type jsonWriter struct {
	enc *json.Encoder
}

func newJSONWriter(w io.Writer, cfg *config) *jsonWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !cfg.compact {
		enc.SetIndent("", cfg.indent)
	}
	return &jsonWriter{enc: enc}
}

func (w *jsonWriter) Write(v any) error {
	return w.enc.Encode(v)
}

func (w *jsonWriter) WriteAll(items []any) error {
	if items == nil {
		items = []any{}
	}
	return w.enc.Encode(items)
}

func (w *jsonWriter) Close() error { return nil }

// jsonlWriter writes newline-delimited JSON, one item per line.
type jsonlWriter struct {
	enc *json.Encoder
}

func newJSONLWriter(w io.Writer) *jsonlWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &jsonlWriter{enc: enc}
}

func (w *jsonlWriter) Write(v any) error {
	return w.enc.Encode(v)
}

func (w *jsonlWriter) WriteAll(items []any) error {
	for _, item := range items {
		if err := w.enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func (w *jsonlWriter) Close() error { return nil }
