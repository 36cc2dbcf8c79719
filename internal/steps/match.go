package steps

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// option is one canonical value with the phrases that select it.
type option struct {
	value   string
	aliases []string
}

type choiceSet struct {
	options []option
	// letters enables a/b/c positional tokens; numerals enables 1/2/3.
	letters  bool
	numerals bool
}

var segmentSplit = regexp.MustCompile(`\s*(?:,|/|;|&|\+|\band\b|\bor\b|\bthen\b)\s*`)

// normalizeText lowercases, trims and collapses whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// words reduces s to lowercase alphanumeric words joined by single spaces.
func words(s string) string {
	f := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	return strings.Join(f, " ")
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
// Both arguments must already be in words() form. It returns the byte offset
// of the match, or -1.
func containsPhrase(text, phrase string) int {
	if phrase == "" {
		return -1
	}
	i := strings.Index(" "+text+" ", " "+phrase+" ")
	return i
}

func segments(text string) []string {
	var out []string
	for _, seg := range segmentSplit.Split(normalizeText(text), -1) {
		seg = strings.TrimSpace(seg)
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// positional maps a bare token like "a", "b)", "2." onto an option index.
func (c choiceSet) positional(token string) (int, bool) {
	token = strings.Trim(token, "()[].:) ")
	if len(token) == 1 && c.letters {
		r := rune(token[0])
		if r >= 'a' && r < 'a'+rune(len(c.options)) {
			return int(r - 'a'), true
		}
	}
	if c.numerals {
		if n, err := strconv.Atoi(token); err == nil && n >= 1 && n <= len(c.options) {
			return n - 1, true
		}
	}
	return 0, false
}

type hit struct {
	value string
	pos   int
}

// resolve matches text against the choice set and returns canonical values in
// order of appearance, deduplicated and capped at max.
func (c choiceSet) resolve(text string, max int) []string {
	var found []string
	seen := make(map[string]bool)
	add := func(v string) {
		if seen[v] || len(found) >= max {
			return
		}
		seen[v] = true
		found = append(found, v)
	}

	for _, seg := range segments(text) {
		if i, ok := c.positional(seg); ok {
			add(c.options[i].value)
			continue
		}
		// "a b" or "1 3": every word is a positional token.
		fields := strings.Fields(seg)
		if len(fields) > 1 {
			var idx []int
			for _, f := range fields {
				i, ok := c.positional(f)
				if !ok {
					idx = nil
					break
				}
				idx = append(idx, i)
			}
			if idx != nil {
				for _, i := range idx {
					add(c.options[i].value)
				}
				continue
			}
		}
		for _, h := range c.phraseHits(words(seg)) {
			add(h.value)
		}
	}
	return found
}

// phraseHits returns the options whose aliases occur in w, ordered by the
// position of their earliest alias.
func (c choiceSet) phraseHits(w string) []hit {
	var hits []hit
	for _, opt := range c.options {
		best := -1
		for _, alias := range append([]string{opt.value}, opt.aliases...) {
			p := containsPhrase(w, words(alias))
			if p >= 0 && (best < 0 || p < best) {
				best = p
			}
		}
		if best >= 0 {
			hits = append(hits, hit{value: opt.value, pos: best})
		}
	}
	// insertion sort by position; option lists are tiny
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	return hits
}

// single resolves exactly one value. Ambiguous text fails.
func (c choiceSet) single(text string) (string, bool) {
	vals := c.resolve(text, len(c.options))
	if len(vals) != 1 {
		return "", false
	}
	return vals[0], true
}

// multi resolves between one and max values.
func (c choiceSet) multi(text string, max int) ([]string, bool) {
	vals := c.resolve(text, max)
	return vals, len(vals) > 0
}
