package coverage

import (
	"regexp"
	"strings"

	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
)

// Metadata records why targets ahead of the selection were passed over.
// Fallback is set when every candidate was skipped and one was reused.
type Metadata struct {
	SkippedInferable []Target `json:"skipped_inferable,omitempty"`
	SkippedAnswered  []Target `json:"skipped_answered,omitempty"`
	Fallback         string   `json:"fallback,omitempty"`
}

// Selection is the next question to ask.
type Selection struct {
	QuestionID   steps.ID `json:"question_id"`
	SignalTarget Target   `json:"signal_target,omitempty"`
	Metadata     Metadata `json:"metadata"`
}

const (
	FallbackInferable = "skipped_inferable"
	FallbackAnswered  = "skipped_answered"
)

// SelectNextQuestion walks the question priority order and returns the first
// target that is neither covered, already answered, nor inferable from the
// user's own messages. When every uncovered target was skipped it reuses the
// first inferable one, then the first answered one. With nothing left it
// returns the terminal step.
func SelectNextQuestion(p profile.Profile, history []profile.Turn) Selection {
	var meta Metadata
	progress := p.Preferences.InterviewProgress
	userText := userMessages(history)

	for _, t := range questionPriority {
		if IsCovered(p, t) {
			continue
		}
		step := targetStep[t]
		if progress.HasCompleted(string(step)) {
			meta.SkippedAnswered = append(meta.SkippedAnswered, t)
			continue
		}
		if Inferable(t, userText) {
			meta.SkippedInferable = append(meta.SkippedInferable, t)
			continue
		}
		return Selection{QuestionID: step, SignalTarget: t, Metadata: meta}
	}

	if len(meta.SkippedInferable) > 0 {
		t := meta.SkippedInferable[0]
		meta.Fallback = FallbackInferable
		return Selection{QuestionID: targetStep[t], SignalTarget: t, Metadata: meta}
	}
	if len(meta.SkippedAnswered) > 0 {
		t := meta.SkippedAnswered[0]
		meta.Fallback = FallbackAnswered
		return Selection{QuestionID: targetStep[t], SignalTarget: t, Metadata: meta}
	}
	return Selection{QuestionID: steps.Wrap01, Metadata: meta}
}

func userMessages(history []profile.Turn) []string {
	var out []string
	for _, t := range history {
		if t.Role == profile.RoleUser && strings.TrimSpace(t.Body) != "" {
			out = append(out, t.Body)
		}
	}
	return out
}

var (
	timeWords   = regexp.MustCompile(`(?i)\b(mornings?|afternoons?|evenings?|nights?|weekends?|weekdays?|saturdays?|sundays?|after work|tonight|lunchtime)\b`)
	groupPhrase = regexp.MustCompile(`(?i)\b(\d+\s*(-|to)\s*\d+\s*(people|friends|persons|of us)|small groups?|big groups?|large groups?|groups? of \d+|one on one)\b`)
	regionCode  = regexp.MustCompile(`\b[A-Z]{2}-[A-Z]{2,3}\b`)
)

// Inferable reports whether t can be read off free text with confidence even
// though the structured field is empty.
func Inferable(t Target, texts []string) bool {
	switch t {
	case TargetActivityPatterns:
		seen := make(map[string]bool)
		for _, s := range texts {
			for _, k := range steps.MatchActivities(s) {
				seen[k] = true
			}
		}
		return len(seen) >= 2
	case TargetTimePreferences:
		return anyMatch(timeWords, texts)
	case TargetGroupSizePref:
		return anyMatch(groupPhrase, texts)
	case TargetLocationCapture:
		return anyMatch(regionCode, texts)
	}
	return false
}

func anyMatch(re *regexp.Regexp, texts []string) bool {
	for _, s := range texts {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
