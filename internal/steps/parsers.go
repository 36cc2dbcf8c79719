package steps

import (
	"regexp"
	"strings"
)

const (
	maxActivities = 5
	maxMotives    = 2
	maxStyles     = 2
	maxValues     = 2
	maxTimes      = 2
	maxBoundaries = 5
	maxItemLen    = 40
)

var fail = ParseResult{}

func ok(a Answer) ParseResult { return ParseResult{OK: true, Value: a} }

func parseConsent(text string, _ ParseContext) ParseResult {
	v, found := consentChoices.single(text)
	if !found {
		return fail
	}
	return ok(ConsentAnswer{Consent: v})
}

func parseActivities(text string, _ ParseContext) ParseResult {
	keys := activities.resolve(text, maxActivities)
	if len(keys) == 0 {
		return fail
	}
	return ok(ActivitiesAnswer{ActivityKeys: keys})
}

// parseTopActivity accepts an activity name, an ordinal ("first"), or a
// letter/number pointing into the activity_01 answer.
func parseTopActivity(text string, ctx ParseContext) ParseResult {
	var prior []string
	if a, found := ctx.Answers[Activity01].(ActivitiesAnswer); found {
		prior = a.ActivityKeys
	}

	norm := normalizeText(text)
	if len(prior) > 0 {
		if i, found := ordinalWords[strings.Trim(norm, ".!")]; found && i < len(prior) {
			return ok(TopActivityAnswer{ActivityKey: prior[i]})
		}
		ranked := choiceSet{letters: true, numerals: true}
		for _, k := range prior {
			ranked.options = append(ranked.options, option{value: k})
		}
		if i, found := ranked.positional(norm); found {
			return ok(TopActivityAnswer{ActivityKey: prior[i]})
		}
	}

	// Ranking: the first activity named wins.
	keys := activities.resolve(text, 1)
	if len(keys) == 0 {
		return fail
	}
	return ok(TopActivityAnswer{ActivityKey: keys[0]})
}

func parseMotive(text string, _ ParseContext) ParseResult {
	vals, found := motiveChoices.multi(text, maxMotives)
	if !found {
		return fail
	}
	return ok(MotiveAnswer{Motives: vals})
}

func parseStyle(text string, _ ParseContext) ParseResult {
	vals, found := styleChoices.multi(text, maxStyles)
	if !found {
		return fail
	}
	return ok(StyleAnswer{Styles: vals})
}

func parsePace(text string, _ ParseContext) ParseResult {
	v, found := paceChoices.single(text)
	if !found {
		return fail
	}
	return ok(PaceAnswer{SocialPace: v})
}

func parseGroupSize(text string, _ ParseContext) ParseResult {
	v, found := groupChoices.single(text)
	if !found {
		return fail
	}
	r := groupRanges[v]
	return ok(GroupSizeAnswer{Bucket: v, Min: r[0], Max: r[1]})
}

func parseValues(text string, _ ParseContext) ParseResult {
	vals, found := valuesChoices.multi(text, maxValues)
	if !found {
		return fail
	}
	return ok(ValuesAnswer{Values: vals})
}

func parseTimes(text string, _ ParseContext) ParseResult {
	vals, found := timeChoices.multi(text, maxTimes)
	if !found {
		return fail
	}
	return ok(TimeAnswer{TimePreferences: vals})
}

func parseStructure(text string, _ ParseContext) ParseResult {
	v, found := structureChoices.single(text)
	if !found {
		return fail
	}
	return ok(StructureAnswer{Structure: v})
}

var (
	regionCode = regexp.MustCompile(`^([a-z]{2})[\s-]([a-z]{2,3})$`)
	hasLetter  = regexp.MustCompile(`[a-zA-Z]`)
)

func parseLocation(text string, _ ParseContext) ParseResult {
	norm := strings.Trim(normalizeText(text), ".!")
	if norm == "" || len(norm) > 60 || !hasLetter.MatchString(norm) || IsSkipPhrase(norm) {
		return fail
	}
	if m := regionCode.FindStringSubmatch(norm); m != nil {
		return ok(LocationAnswer{Region: strings.ToUpper(m[1] + "-" + m[2])})
	}
	if len(norm) < 3 {
		return fail
	}
	return ok(LocationAnswer{Region: strings.Join(strings.Fields(strings.TrimSpace(text)), " ")})
}

var (
	boundarySplit  = regexp.MustCompile(`\s*(?:,|/|;|&|\+|\band\b|\bor\b|\n)\s*`)
	boundaryPrefix = regexp.MustCompile(`^(?:no more |no |not |avoid |avoiding |nothing with |anything with |never )`)
)

// IsSkipPhrase reports whether text is a "prefer not to say" style reply.
func IsSkipPhrase(text string) bool {
	norm := strings.Trim(normalizeText(text), ".!")
	for _, p := range skipPhrases {
		if norm == p {
			return true
		}
	}
	return strings.HasPrefix(norm, "prefer not") || strings.HasPrefix(norm, "rather not") || strings.HasPrefix(norm, "i'd rather not")
}

func parseBoundaries(text string, _ ParseContext) ParseResult {
	norm := strings.Trim(normalizeText(text), ".!")
	if norm == "" {
		return fail
	}
	if IsSkipPhrase(norm) {
		return ok(BoundariesAnswer{NoThanks: []string{}, Skipped: true})
	}
	for _, p := range noBoundaryPhrases {
		if norm == p {
			return ok(BoundariesAnswer{NoThanks: []string{}})
		}
	}

	var items []string
	seen := make(map[string]bool)
	for _, part := range boundarySplit.Split(norm, -1) {
		item := strings.Trim(boundaryPrefix.ReplaceAllString(strings.TrimSpace(part), ""), " .!")
		if item == "" || len(item) > maxItemLen || seen[item] {
			continue
		}
		seen[item] = true
		items = append(items, item)
		if len(items) == maxBoundaries {
			break
		}
	}
	if len(items) == 0 {
		return fail
	}
	return ok(BoundariesAnswer{NoThanks: items})
}

// Parse runs the parser for id. Terminal and unknown steps never parse.
func Parse(id ID, text string, ctx ParseContext) ParseResult {
	s, found := Lookup(id)
	if !found || s.Parse == nil {
		return fail
	}
	return s.Parse(text, ctx)
}
