// Package steps defines the interview step catalog and the deterministic
// parsers that turn a free-text reply into a normalized answer.
package steps

import "fmt"

// ID is a stable step identifier.
type ID string

const (
	IntroID      ID = "intro_01"
	Activity01   ID = "activity_01"
	Activity02   ID = "activity_02"
	Motive01     ID = "motive_01"
	Style01      ID = "style_01"
	Pace01       ID = "pace_01"
	Group01      ID = "group_01"
	Values01     ID = "values_01"
	Time01       ID = "time_01"
	Structure01  ID = "structure_01"
	Location01   ID = "location_01"
	Boundaries01 ID = "boundaries_01"
	Wrap01       ID = "wrap_01"
)

// Kind separates question steps from the terminal step.
type Kind string

const (
	KindQuestion Kind = "question"
	KindTerminal Kind = "terminal"
)

// ParseContext carries prior answers for parsers that depend on them.
type ParseContext struct {
	Answers map[ID]Answer
}

// ParseResult is the outcome of a parser. Value is nil when OK is false.
type ParseResult struct {
	OK    bool
	Value Answer
}

// Parser is a total function from reply text to a normalized answer.
type Parser func(text string, ctx ParseContext) ParseResult

// Step is one catalog entry.
type Step struct {
	ID          ID
	Prompt      string
	RetryPrompt string
	Kind        Kind
	Parse       Parser
}

var catalog = []Step{
	{
		ID:          IntroID,
		Prompt:      "Want to build your profile so we can match you into small-group plans? Reply YES to start or LATER to pause.",
		RetryPrompt: "Reply YES to start now or LATER to pick this up another time.",
		Kind:        KindQuestion,
		Parse:       parseConsent,
	},
	{
		ID:          Activity01,
		Prompt:      "What are 3 things you'd love to do with a small group? For example: coffee, hiking, museum, board games.",
		RetryPrompt: "Name a few activities you'd enjoy, like coffee, walk, museum or trivia.",
		Kind:        KindQuestion,
		Parse:       parseActivities,
	},
	{
		ID:          Activity02,
		Prompt:      "Which of those would you do first?",
		RetryPrompt: "Just name the one activity you'd pick first.",
		Kind:        KindQuestion,
		Parse:       parseTopActivity,
	},
	{
		ID:          Motive01,
		Prompt:      "What draws you to it most? A) connecting with people B) trying something new C) having fun D) getting out for an adventure",
		RetryPrompt: "Reply with a letter (A, B, C or D), or up to two.",
		Kind:        KindQuestion,
		Parse:       parseMotive,
	},
	{
		ID:          Style01,
		Prompt:      "How do you like conversations to go? A) deep talks B) light banter C) swapping stories D) mostly listening",
		RetryPrompt: "Pick up to two: A deep, B banter, C stories, D listening.",
		Kind:        KindQuestion,
		Parse:       parseStyle,
	},
	{
		ID:          Pace01,
		Prompt:      "What social pace feels right: slow, medium or fast?",
		RetryPrompt: "Reply slow, medium or fast.",
		Kind:        KindQuestion,
		Parse:       parsePace,
	},
	{
		ID:          Group01,
		Prompt:      "What group size do you like best? A) 2-3 B) 4-6 C) 7+",
		RetryPrompt: "Reply A (2-3), B (4-6) or C (7+).",
		Kind:        KindQuestion,
		Parse:       parseGroupSize,
	},
	{
		ID:          Values01,
		Prompt:      "What matters most in the people you hang out with? A) reliability B) curiosity C) kindness D) humor",
		RetryPrompt: "Pick up to two: A reliability, B curiosity, C kindness, D humor.",
		Kind:        KindQuestion,
		Parse:       parseValues,
	},
	{
		ID:          Time01,
		Prompt:      "When are you usually free? Mornings, afternoons, evenings or weekends (pick up to two).",
		RetryPrompt: "Reply with up to two: mornings, afternoons, evenings, weekends.",
		Kind:        KindQuestion,
		Parse:       parseTimes,
	},
	{
		ID:          Structure01,
		Prompt:      "Do you prefer plans that are planned ahead, flexible, or spontaneous?",
		RetryPrompt: "Reply planned, flexible or spontaneous.",
		Kind:        KindQuestion,
		Parse:       parseStructure,
	},
	{
		ID:          Location01,
		Prompt:      "Where are you based? A region like US-WA or your city works.",
		RetryPrompt: "Reply with your region (like US-WA) or city.",
		Kind:        KindQuestion,
		Parse:       parseLocation,
	},
	{
		ID:          Boundaries01,
		Prompt:      "Anything you'd rather skip, like bars or late nights? You can also say prefer not to say.",
		RetryPrompt: "List anything you'd rather avoid, or reply prefer not to say.",
		Kind:        KindQuestion,
		Parse:       parseBoundaries,
	},
	{
		ID:     Wrap01,
		Prompt: WrapMessage,
		Kind:   KindTerminal,
	},
}

// WrapMessage is the canonical completion reply.
const WrapMessage = "That's everything I need for now. Your profile is set and I'll text you when a group plan fits."

var indexByID = func() map[ID]int {
	m := make(map[ID]int, len(catalog))
	for i, s := range catalog {
		m[s.ID] = i
	}
	return m
}()

// All returns the catalog in order.
func All() []Step {
	out := make([]Step, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the step with id exactly as given; aliases are not resolved.
func Lookup(id ID) (Step, bool) {
	i, ok := indexByID[id]
	if !ok {
		return Step{}, false
	}
	return catalog[i], true
}

// MustLookup is Lookup for ids known at compile time.
func MustLookup(id ID) Step {
	s, ok := Lookup(id)
	if !ok {
		panic(fmt.Sprintf("steps: unknown step %q", id))
	}
	return s
}

// Index returns the catalog position of id, or -1.
func Index(id ID) int {
	i, ok := indexByID[Normalize(id)]
	if !ok {
		return -1
	}
	return i
}

// IsKnown reports whether id names a catalog step.
func IsKnown(id ID) bool {
	_, ok := indexByID[id]
	return ok
}

// Normalize maps deprecated step ids onto their replacements. Every read of a
// persisted step id goes through here.
func Normalize(id ID) ID {
	if id == IntroID {
		return Activity01
	}
	return id
}
