package extractor

import (
	"strings"

	json5 "github.com/yosuke-furukawa/json5/encoding/json5"
)

// decodeLenient parses near-miss JSON. The json5 decoder handles unquoted
// keys and trailing commas; relax rewrites single-quoted strings and drops
// comments first, which it does not accept.
func decodeLenient(candidate string) (any, bool) {
	if !isContainer(candidate) {
		return nil, false
	}
	var v any
	if err := json5.Unmarshal([]byte(relax(candidate)), &v); err != nil {
		return nil, false
	}
	return container(v)
}

// relax converts 'single quoted' strings to double quoted ones and strips
// // line and /* block */ comments outside strings. Unterminated strings
// and comments are copied through unchanged for the decoder to reject.
func relax(s string) string {
	if !strings.ContainsAny(s, "'/") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			end, ok := stringEnd(s, i, '"')
			if !ok {
				b.WriteString(s[i:])
				return b.String()
			}
			b.WriteString(s[i:end])
			i = end - 1

		case c == '\'':
			end, ok := stringEnd(s, i, '\'')
			if !ok {
				b.WriteString(s[i:])
				return b.String()
			}
			b.WriteByte('"')
			b.WriteString(requote(s[i+1 : end-1]))
			b.WriteByte('"')
			i = end - 1

		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return b.String()
			}
			i += nl - 1

		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			stop := strings.Index(s[i+2:], "*/")
			if stop < 0 {
				b.WriteString(s[i:])
				return b.String()
			}
			b.WriteByte(' ')
			i += stop + 3

		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// stringEnd returns the index just past the quote closing the string that
// opens at s[start].
func stringEnd(s string, start int, quote byte) (int, bool) {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1, true
		}
	}
	return 0, false
}

// requote rewrites the body of a single-quoted string for double quotes.
func requote(body string) string {
	if !strings.ContainsAny(body, `"'`) {
		return body
	}
	var b strings.Builder
	b.Grow(len(body) + 2)
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body):
			if body[i+1] == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte(c)
				b.WriteByte(body[i+1])
			}
			i++
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
