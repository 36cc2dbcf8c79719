package extractor

import (
	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
)

// Output is a validated extraction payload.
type Output struct {
	StepID    steps.ID
	Extracted Extracted
	Notes     *Notes
}

// Extracted carries the signals the model inferred. Absent arrays stay nil.
type Extracted struct {
	FingerprintPatches  []FingerprintPatch
	ActivityPatternsAdd []ActivityPatternAdd
	BoundariesPatch     *BoundariesPatch
	PreferencesPatch    *PreferencesPatch
}

type FingerprintPatch struct {
	Key        profile.FactorKey
	RangeValue float64
	Confidence float64
}

type ActivityPatternAdd struct {
	ActivityKey   string
	MotiveWeights map[string]float64
	Confidence    float64
}

type BoundariesPatch struct {
	NoThanks []string
	Skipped  *bool
}

type PreferencesPatch struct {
	GroupSizePref   *profile.GroupSize
	TimePreferences []string
	Location        string
}

type Notes struct {
	NeedsFollowUp    bool
	FollowUpQuestion string
	FollowUpOptions  []string
}

// MaxMotiveWeight returns the highest motive weight across added patterns.
func (o *Output) MaxMotiveWeight() float64 {
	var max float64
	for _, ap := range o.Extracted.ActivityPatternsAdd {
		for _, w := range ap.MotiveWeights {
			if w > max {
				max = w
			}
		}
	}
	return max
}
