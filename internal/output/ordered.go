package output

import (
	"bytes"
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"
)

// Pair is one key/value of an Ordered map.
type Pair struct {
	Key   string
	Value any
}

// Ordered is a map that marshals with its keys in slice order, so records
// print in schema field order rather than alphabetically.
type Ordered []Pair

// Order arranges m by keys; keys of m not listed follow in sorted order.
// Listed keys missing from m are skipped.
func Order(m map[string]any, keys []string) Ordered {
	out := make(Ordered, 0, len(m))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok && !seen[k] {
			out = append(out, Pair{Key: k, Value: v})
			seen[k] = true
		}
	}

	rest := make([]string, 0, len(m)-len(out))
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, Pair{Key: k, Value: m[k]})
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (o Ordered) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML implements yaml.Marshaler.
func (o Ordered) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range o {
		var val yaml.Node
		if err := val.Encode(p.Value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key},
			&val,
		)
	}
	return node, nil
}
