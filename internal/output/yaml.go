package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// yamlWriter writes a YAML stream; each Write is a separate document.
type yamlWriter struct {
	enc *yaml.Encoder
}

func newYAMLWriter(w io.Writer) *yamlWriter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &yamlWriter{enc: enc}
}

func (w *yamlWriter) Write(v any) error {
	return w.enc.Encode(v)
}

func (w *yamlWriter) WriteAll(items []any) error {
	if items == nil {
		items = []any{}
	}
	return w.enc.Encode(items)
}

func (w *yamlWriter) Close() error {
	return w.enc.Close()
}
