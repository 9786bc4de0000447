package extractor

import (
	"regexp"
	"strings"

	"github.com/jmylchreest/sitebrief/pkg/schema"
	"github.com/tidwall/gjson"
)

// decoder parses a candidate and reports whether it is a JSON object or array.
type decoder func(candidate string) (any, bool)

// fencePattern matches ``` blocks with an optional language tag. The
// closing fence is required; unterminated blocks are left to the scan.
var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")

// bracketPair is an opening bracket and its closing counterpart.
type bracketPair struct {
	open, close byte
}

var (
	objectFirst = []bracketPair{{'{', '}'}, {'[', ']'}}
	arrayFirst  = []bracketPair{{'[', ']'}, {'{', '}'}}
)

// bracketOrder is fixed per schema kind: list schemas look for an array
// first so that the first element object is not mistaken for the payload.
func bracketOrder(s schema.Schema) []bracketPair {
	if s.List {
		return arrayFirst
	}
	return objectFirst
}

// match is a decoded payload and where it was found. Weak marks a brace
// scan array without objects, kept only until something better turns up.
type match struct {
	payload any
	stage   Stage
	weak    bool
}

// locate runs the cascade with one decoder and stops at the first success.
func (e *Extractor) locate(input string, s schema.Schema, decode decoder) (match, bool) {
	if v, ok := decode(strings.TrimSpace(input)); ok {
		return match{payload: v, stage: StageDirect}, true
	}

	for _, m := range fencePattern.FindAllStringSubmatch(input, -1) {
		if v, ok := decode(strings.TrimSpace(m[1])); ok {
			return match{payload: v, stage: StageFenced}, true
		}
	}

	return e.scan(input, s, decode)
}

// scan takes, for each bracket type in order, the first opening bracket and
// tries every closing bracket after it from the end of the text backwards,
// so the longest candidate is tried first. For list schemas an array with
// no objects (a citation like [1]) does not end the scan; it is returned as
// a weak match only if nothing else parses.
func (e *Extractor) scan(input string, s schema.Schema, decode decoder) (match, bool) {
	var fallback *match
	for _, pair := range bracketOrder(s) {
		start := strings.IndexByte(input, pair.open)
		if start < 0 {
			continue
		}

		tried := 0
		end := strings.LastIndexByte(input, pair.close)
		for end > start && tried < e.config.MaxCandidates {
			if v, ok := decode(input[start : end+1]); ok {
				arr, isArray := v.([]any)
				if !s.List || !isArray || containsObject(arr) {
					return match{payload: v, stage: StageBraceScan}, true
				}
				if fallback == nil {
					fallback = &match{payload: v, stage: StageBraceScan, weak: true}
				}
			}
			tried++
			end = strings.LastIndexByte(input[:end], pair.close)
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return match{}, false
}

// decodeStrict accepts only valid JSON. gjson validates and builds the
// generic value in one library.
func decodeStrict(candidate string) (any, bool) {
	if !isContainer(candidate) || !gjson.Valid(candidate) {
		return nil, false
	}
	return container(gjson.Parse(candidate).Value())
}

// isContainer is a cheap pre-check on the first byte.
func isContainer(s string) bool {
	return len(s) > 0 && (s[0] == '{' || s[0] == '[')
}

func container(v any) (any, bool) {
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	}
	return nil, false
}

// looksAttempted reports whether the text opens with a payload, directly or
// inside a fence, that nothing could parse (typically truncated output).
func looksAttempted(input string) bool {
	if isContainer(strings.TrimSpace(input)) {
		return true
	}
	for _, m := range fencePattern.FindAllStringSubmatch(input, -1) {
		if isContainer(strings.TrimSpace(m[1])) {
			return true
		}
	}
	return false
}
