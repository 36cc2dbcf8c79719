// Package guardrail validates model output before anything downstream trusts
// it. Structural recovery (a markdown fence or prose around the JSON) is
// reported as a violation alongside prohibited-language matches.
package guardrail

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Structural violations.
const (
	ViolationMarkdownFence = "markdown_fence"
	ViolationJSONWrapper   = "json_wrapper"
	ViolationInvalidJSON   = "invalid_json"
)

type pattern struct {
	name string
	re   *regexp.Regexp
}

// prohibited is scanned in order; each name is reported at most once.
var prohibited = []pattern{
	{"jargon", regexp.MustCompile(`(?i)\b(synerg\w*|leverag(e|es|ing)|paradigm|stakeholders?|actionable|deliverables?|circle back)\b`)},
	{"therapy_framing", regexp.MustCompile(`(?i)\b(therap(y|ist|eutic)|trauma\w*|diagnos\w*|attachment style|inner child|coping mechanisms?|heal your)\b`)},
	{"guarantee_language", regexp.MustCompile(`(?i)\b(guarantee[ds]?|promise[ds]?|perfect match|100% (match|compatible)|never be lonely)\b`)},
	{"personality_scoring", regexp.MustCompile(`(?i)\b(personality (score|type|test)|you scored|your score|myers[- ]briggs|mbti|big five|introvert score|extrovert score)\b`)},
	{"internal_mechanism", regexp.MustCompile(`(?i)\b(fingerprint|algorithm|confidence score|range_value|llm|language model|system prompt|embedding|signal target)\b`)},
}

// PatternNames returns the prohibited pattern names in scan order.
func PatternNames() []string {
	out := make([]string, len(prohibited))
	for i, p := range prohibited {
		out[i] = p.name
	}
	return out
}

// Result is the validator verdict. SanitizedText is the JSON text that was
// actually parsed, with any fence or surrounding prose removed.
type Result struct {
	OK            bool
	SanitizedText string
	Value         any
	Violations    []string
}

// Structural reports whether the output needed fence or wrapper recovery, or
// could not be parsed at all.
func (r Result) Structural() bool {
	for _, v := range r.Violations {
		switch v {
		case ViolationMarkdownFence, ViolationJSONWrapper, ViolationInvalidJSON:
			return true
		}
	}
	return false
}

// Prohibited returns the prohibited-language violations only.
func (r Result) Prohibited() []string {
	var out []string
	for _, v := range r.Violations {
		switch v {
		case ViolationMarkdownFence, ViolationJSONWrapper, ViolationInvalidJSON:
			continue
		}
		out = append(out, v)
	}
	return out
}

var fence = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\n?(.*?)\n?[ \t]*```")

// Validate checks raw model text. With requireJSON the text must parse as
// JSON, directly, after stripping one fence, or by taking the first balanced
// object or array span. OK is true iff parsing succeeded (when required) and
// no prohibited pattern matched any string leaf.
func Validate(raw string, requireJSON bool) Result {
	text := strings.TrimSpace(raw)
	var res Result

	if m := fence.FindStringSubmatch(text); m != nil {
		res.Violations = append(res.Violations, ViolationMarkdownFence)
		text = strings.TrimSpace(m[1])
	}

	value, err := decode(text)
	if err != nil {
		if span, found := balancedSpan(text); found {
			if v, spanErr := decode(span); spanErr == nil {
				res.Violations = append(res.Violations, ViolationJSONWrapper)
				text, value, err = span, v, nil
			}
		}
	}
	if err != nil {
		if requireJSON {
			res.Violations = append(res.Violations, ViolationInvalidJSON)
			return res
		}
		value = text
	}

	res.SanitizedText = text
	res.Value = value
	hits := scan(value)
	res.Violations = append(res.Violations, hits...)
	res.OK = len(hits) == 0
	return res
}

func decode(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// balancedSpan returns the first {...} or [...] span whose brackets balance,
// ignoring brackets inside JSON strings.
func balancedSpan(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return "", false
			}
			open := stack[len(stack)-1]
			if (open == '{' && c != '}') || (open == '[' && c != ']') {
				return "", false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func scan(v any) []string {
	var leaves []string
	collect(v, &leaves)
	var hits []string
	for _, p := range prohibited {
		for _, leaf := range leaves {
			if p.re.MatchString(leaf) {
				hits = append(hits, p.name)
				break
			}
		}
	}
	return hits
}

func collect(v any, out *[]string) {
	switch t := v.(type) {
	case string:
		*out = append(*out, t)
	case []any:
		for _, e := range t {
			collect(e, out)
		}
	case map[string]any:
		for _, e := range t {
			collect(e, out)
		}
	}
}
