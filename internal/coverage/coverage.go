// Package coverage decides which profile signals are known, whether the
// profile is complete enough to stop interviewing, and what to ask next.
package coverage

import (
	"math"
	"slices"

	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
)

// Target is one coverage target: a fingerprint factor, a structural target,
// or a question-only target.
type Target string

const (
	TargetActivityPatterns  Target = "activity_patterns"
	TargetGroupSizePref     Target = "group_size_pref"
	TargetTimePreferences   Target = "time_preferences"
	TargetBoundariesAsked   Target = "boundaries_asked"
	TargetTopActivityIntent Target = "top_activity_intent"
	TargetLocationCapture   Target = "location_capture"
)

func factor(k profile.FactorKey) Target { return Target(k) }

// Thresholds.
const (
	FactorConfidenceThreshold   = 0.55
	ActivityConfidenceThreshold = 0.6
	MinActivityKeys             = 3
	MVPFactorCount              = 8
)

// StructuralTargets must all be covered for MVP completion.
var StructuralTargets = []Target{
	TargetActivityPatterns,
	TargetGroupSizePref,
	TargetTimePreferences,
	TargetBoundariesAsked,
}

// RequiredTargets is every factor followed by the structural targets.
var RequiredTargets = func() []Target {
	out := make([]Target, 0, len(profile.FingerprintFactors)+len(StructuralTargets))
	for _, f := range profile.FingerprintFactors {
		out = append(out, factor(f))
	}
	return append(out, StructuralTargets...)
}()

// statusPriority orders RequiredTargets for NextSignalTarget.
var statusPriority = []Target{
	TargetActivityPatterns,
	factor(profile.FactorConnectionDepth),
	factor(profile.FactorSocialEnergy),
	factor(profile.FactorSocialPace),
	factor(profile.FactorConversationStyle),
	TargetGroupSizePref,
	TargetTimePreferences,
	TargetBoundariesAsked,
	factor(profile.FactorNoveltySeeking),
	factor(profile.FactorStructurePreference),
	factor(profile.FactorHumorStyle),
	factor(profile.FactorEmotionalDirectness),
	factor(profile.FactorAdventureComfort),
	factor(profile.FactorConflictTolerance),
	factor(profile.FactorValuesAlignment),
	factor(profile.FactorGroupComfort),
}

// questionPriority is the walk order for SelectNextQuestion.
var questionPriority = []Target{
	TargetActivityPatterns,
	TargetTopActivityIntent,
	factor(profile.FactorConnectionDepth),
	factor(profile.FactorConversationStyle),
	factor(profile.FactorSocialPace),
	TargetGroupSizePref,
	factor(profile.FactorValuesAlignment),
	TargetTimePreferences,
	factor(profile.FactorStructurePreference),
	TargetLocationCapture,
	TargetBoundariesAsked,
	factor(profile.FactorNoveltySeeking),
	factor(profile.FactorEmotionalDirectness),
	factor(profile.FactorAdventureComfort),
	factor(profile.FactorHumorStyle),
	factor(profile.FactorSocialEnergy),
	factor(profile.FactorGroupComfort),
	factor(profile.FactorConflictTolerance),
}

// targetStep maps each target to the step that primarily fills it.
var targetStep = map[Target]steps.ID{
	TargetActivityPatterns:                    steps.Activity01,
	TargetTopActivityIntent:                   steps.Activity02,
	factor(profile.FactorConnectionDepth):     steps.Motive01,
	factor(profile.FactorNoveltySeeking):      steps.Motive01,
	factor(profile.FactorEmotionalDirectness): steps.Motive01,
	factor(profile.FactorAdventureComfort):    steps.Motive01,
	factor(profile.FactorConversationStyle):   steps.Style01,
	factor(profile.FactorHumorStyle):          steps.Style01,
	factor(profile.FactorSocialPace):          steps.Pace01,
	factor(profile.FactorSocialEnergy):        steps.Pace01,
	TargetGroupSizePref:                       steps.Group01,
	factor(profile.FactorGroupComfort):        steps.Group01,
	factor(profile.FactorValuesAlignment):     steps.Values01,
	TargetTimePreferences:                     steps.Time01,
	factor(profile.FactorStructurePreference): steps.Structure01,
	TargetLocationCapture:                     steps.Location01,
	TargetBoundariesAsked:                     steps.Boundaries01,
	factor(profile.FactorConflictTolerance):   steps.Boundaries01,
}

// StepFor returns the step that fills t.
func StepFor(t Target) (steps.ID, bool) {
	id, ok := targetStep[t]
	return id, ok
}

// Status is the coverage verdict for one profile snapshot.
type Status struct {
	Covered          []Target `json:"covered"`
	Uncovered        []Target `json:"uncovered"`
	CoveredFactors   int      `json:"covered_factors"`
	MVPComplete      bool     `json:"mvp_complete"`
	NextSignalTarget Target   `json:"next_signal_target,omitempty"`
}

// CompletenessPercent is round(100 × covered / required).
func (s Status) CompletenessPercent() int {
	total := len(s.Covered) + len(s.Uncovered)
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(len(s.Covered)) / float64(total)))
}

// GetStatus evaluates every required target against p.
func GetStatus(p profile.Profile) Status {
	var s Status
	covered := make(map[Target]bool, len(RequiredTargets))
	for _, t := range RequiredTargets {
		if IsCovered(p, t) {
			covered[t] = true
			s.Covered = append(s.Covered, t)
			if profile.IsFactor(profile.FactorKey(t)) {
				s.CoveredFactors++
			}
		} else {
			s.Uncovered = append(s.Uncovered, t)
		}
	}

	structural := true
	for _, t := range StructuralTargets {
		if !covered[t] {
			structural = false
			break
		}
	}
	s.MVPComplete = structural && s.CoveredFactors >= MVPFactorCount

	for _, t := range statusPriority {
		if !covered[t] {
			s.NextSignalTarget = t
			break
		}
	}
	return s
}

// IsCovered reports whether t is satisfied by p.
func IsCovered(p profile.Profile, t Target) bool {
	switch t {
	case TargetActivityPatterns:
		return activityCoverage(p) >= MinActivityKeys
	case TargetGroupSizePref:
		return p.Preferences.GroupSizePref.Valid()
	case TargetTimePreferences:
		return validTimes(p.Preferences.TimePreferences)
	case TargetBoundariesAsked:
		return boundariesAsked(p)
	case TargetTopActivityIntent:
		return p.ActiveIntent != nil && p.ActiveIntent.ActivityKey != ""
	case TargetLocationCapture:
		return p.Preferences.Location != ""
	}
	fv, ok := p.Fingerprint[profile.FactorKey(t)]
	return ok && fv.Confidence >= FactorConfidenceThreshold
}

func activityCoverage(p profile.Profile) int {
	keys := make(map[string]bool)
	for _, ap := range p.ActivityPatterns {
		if ap.ActivityKey != "" && ap.Confidence >= ActivityConfidenceThreshold {
			keys[ap.ActivityKey] = true
		}
	}
	return len(keys)
}

func validTimes(ts []string) bool {
	if len(ts) == 0 {
		return false
	}
	for _, v := range ts {
		if !slices.Contains(steps.TimePreferences, v) {
			return false
		}
	}
	return true
}

func boundariesAsked(p profile.Profile) bool {
	if p.Preferences.InterviewProgress.HasCompleted(string(steps.Boundaries01)) {
		return true
	}
	if p.Boundaries.Skipped || len(p.Boundaries.NoThanks) > 0 {
		return true
	}
	last := p.Preferences.LastInterviewStep
	if last == "" {
		return false
	}
	i := steps.Index(steps.ID(last))
	return i >= 0 && i >= steps.Index(steps.Boundaries01)
}
