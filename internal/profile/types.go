package profile

import (
	"encoding/json"
	"time"
)

// FactorKey names one fingerprint factor.
type FactorKey string

const (
	FactorConnectionDepth     FactorKey = "connection_depth"
	FactorSocialEnergy        FactorKey = "social_energy"
	FactorSocialPace          FactorKey = "social_pace"
	FactorNoveltySeeking      FactorKey = "novelty_seeking"
	FactorStructurePreference FactorKey = "structure_preference"
	FactorHumorStyle          FactorKey = "humor_style"
	FactorConversationStyle   FactorKey = "conversation_style"
	FactorEmotionalDirectness FactorKey = "emotional_directness"
	FactorAdventureComfort    FactorKey = "adventure_comfort"
	FactorConflictTolerance   FactorKey = "conflict_tolerance"
	FactorValuesAlignment     FactorKey = "values_alignment"
	FactorGroupComfort        FactorKey = "group_comfort"
)

// FingerprintFactors is the fixed set of twelve factors, in canonical order.
var FingerprintFactors = []FactorKey{
	FactorConnectionDepth,
	FactorSocialEnergy,
	FactorSocialPace,
	FactorNoveltySeeking,
	FactorStructurePreference,
	FactorHumorStyle,
	FactorConversationStyle,
	FactorEmotionalDirectness,
	FactorAdventureComfort,
	FactorConflictTolerance,
	FactorValuesAlignment,
	FactorGroupComfort,
}

// IsFactor reports whether k is one of the twelve fingerprint factors.
func IsFactor(k FactorKey) bool {
	for _, f := range FingerprintFactors {
		if f == k {
			return true
		}
	}
	return false
}

// Source records where a signal came from.
type Source string

const (
	SourceDeterministic Source = "interview_deterministic"
	SourceLLM           Source = "interview_llm"
)

// State is the profile lifecycle state.
type State string

const (
	StateEmpty        State = "empty"
	StatePartial      State = "partial"
	StateCompleteMVP  State = "complete_mvp"
	StateCompleteFull State = "complete_full"
)

// FactorValue is one fingerprint entry.
type FactorValue struct {
	Value      float64 `json:"range_value"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// ActivityPattern is one activity the user is interested in. Keys are unique
// within a profile.
type ActivityPattern struct {
	ActivityKey   string             `json:"activity_key"`
	MotiveWeights map[string]float64 `json:"motive_weights,omitempty"`
	Confidence    float64            `json:"confidence"`
	Source        Source             `json:"source"`
}

// Boundaries holds the things a user has said no to. Skipped distinguishes
// "prefer not to say" from an empty answer.
type Boundaries struct {
	NoThanks []string `json:"no_thanks"`
	Skipped  bool     `json:"skipped"`
}

// GroupSize is a preferred group size range.
type GroupSize struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Valid reports whether the range is usable.
func (g *GroupSize) Valid() bool {
	return g != nil && g.Min >= 1 && g.Max >= g.Min
}

// ActiveIntent is the activity the user most wants to do next.
type ActiveIntent struct {
	ActivityKey string  `json:"activity_key"`
	Confidence  float64 `json:"confidence"`
	Source      Source  `json:"source"`
}

// Preferences holds structural preferences and interview bookkeeping.
type Preferences struct {
	GroupSizePref     *GroupSize         `json:"group_size_pref,omitempty"`
	TimePreferences   []string           `json:"time_preferences,omitempty"`
	MotiveWeights     map[string]float64 `json:"motive_weights,omitempty"`
	Location          string             `json:"location,omitempty"`
	LastInterviewStep string             `json:"last_interview_step,omitempty"`
	InterviewProgress *InterviewProgress `json:"interview_progress,omitempty"`
}

// ProgressStatus is the interview progress state.
type ProgressStatus string

const (
	ProgressInProgress ProgressStatus = "in_progress"
	ProgressPaused     ProgressStatus = "paused"
	ProgressComplete   ProgressStatus = "complete"
)

// InterviewProgress is the durable record of which steps were answered.
// Answers are stored encoded, one entry per step id; see steps.DecodeAnswer.
type InterviewProgress struct {
	Status           ProgressStatus             `json:"status"`
	CurrentStepID    string                     `json:"current_step_id"`
	CompletedStepIDs []string                   `json:"completed_step_ids"`
	Answers          map[string]json.RawMessage `json:"answers"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// HasCompleted reports whether stepID is recorded as completed or answered.
func (p *InterviewProgress) HasCompleted(stepID string) bool {
	if p == nil {
		return false
	}
	for _, id := range p.CompletedStepIDs {
		if id == stepID {
			return true
		}
	}
	_, ok := p.Answers[stepID]
	return ok
}

// Profile is the snapshot under evaluation.
type Profile struct {
	UserID              string                    `json:"user_id"`
	State               State                     `json:"state"`
	IsCompleteMVP       bool                      `json:"is_complete_mvp"`
	CompletenessPercent int                       `json:"completeness_percent"`
	CompletedAt         *time.Time                `json:"completed_at,omitempty"`
	Fingerprint         map[FactorKey]FactorValue `json:"fingerprint"`
	ActivityPatterns    []ActivityPattern         `json:"activity_patterns"`
	Boundaries          Boundaries                `json:"boundaries"`
	Preferences         Preferences               `json:"preferences"`
	ActiveIntent        *ActiveIntent             `json:"active_intent,omitempty"`
}

// Clone returns a deep copy so callers can derive new snapshots without
// aliasing maps or slices of the original.
func (p Profile) Clone() Profile {
	out := p
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		out.CompletedAt = &t
	}
	out.Fingerprint = make(map[FactorKey]FactorValue, len(p.Fingerprint))
	for k, v := range p.Fingerprint {
		out.Fingerprint[k] = v
	}
	out.ActivityPatterns = make([]ActivityPattern, len(p.ActivityPatterns))
	for i, ap := range p.ActivityPatterns {
		ap.MotiveWeights = cloneWeights(ap.MotiveWeights)
		out.ActivityPatterns[i] = ap
	}
	if p.Boundaries.NoThanks != nil {
		out.Boundaries.NoThanks = append([]string{}, p.Boundaries.NoThanks...)
	}
	if p.ActiveIntent != nil {
		ai := *p.ActiveIntent
		out.ActiveIntent = &ai
	}
	out.Preferences = p.Preferences.clone()
	return out
}

func (p Preferences) clone() Preferences {
	out := p
	if p.GroupSizePref != nil {
		g := *p.GroupSizePref
		out.GroupSizePref = &g
	}
	if p.TimePreferences != nil {
		out.TimePreferences = append([]string{}, p.TimePreferences...)
	}
	out.MotiveWeights = cloneWeights(p.MotiveWeights)
	if p.InterviewProgress != nil {
		ip := *p.InterviewProgress
		ip.CompletedStepIDs = append([]string(nil), p.InterviewProgress.CompletedStepIDs...)
		ip.Answers = make(map[string]json.RawMessage, len(p.InterviewProgress.Answers))
		for k, v := range p.InterviewProgress.Answers {
			ip.Answers[k] = append(json.RawMessage(nil), v...)
		}
		out.InterviewProgress = &ip
	}
	return out
}

func cloneWeights(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ActivityIndex returns the index of the pattern with key, or -1.
func (p Profile) ActivityIndex(key string) int {
	for i, ap := range p.ActivityPatterns {
		if ap.ActivityKey == key {
			return i
		}
	}
	return -1
}
