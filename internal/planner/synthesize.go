package planner

import (
	"cmp"
	"slices"

	"github.com/JaxJericho/josh-2.0-sub000/internal/extractor"
	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
)

const (
	maxSyntheticActivities = 5
	maxSyntheticPicks      = 2
)

// synthesize derives a normalized answer from extraction output when the
// deterministic parser could not read the reply. Steps with no reliable
// mapping (consent) report false.
func synthesize(id steps.ID, out *extractor.Output) (steps.Answer, bool) {
	ex := out.Extracted
	switch id {
	case steps.Activity01:
		keys := activityKeys(ex.ActivityPatternsAdd)
		if len(keys) == 0 {
			return nil, false
		}
		return steps.ActivitiesAnswer{ActivityKeys: keys[:min(len(keys), maxSyntheticActivities)]}, true

	case steps.Activity02:
		keys := activityKeys(ex.ActivityPatternsAdd)
		if len(keys) == 0 {
			return nil, false
		}
		return steps.TopActivityAnswer{ActivityKey: keys[0]}, true

	case steps.Motive01:
		motives := topMotives(ex.ActivityPatternsAdd)
		if len(motives) == 0 {
			return nil, false
		}
		return steps.MotiveAnswer{Motives: motives}, true

	case steps.Style01:
		v, ok := factor(ex, profile.FactorConversationStyle)
		if !ok {
			return nil, false
		}
		switch {
		case v >= 0.7:
			return steps.StyleAnswer{Styles: []string{"deep"}}, true
		case v >= 0.45:
			return steps.StyleAnswer{Styles: []string{"stories"}}, true
		default:
			return steps.StyleAnswer{Styles: []string{"banter"}}, true
		}

	case steps.Values01:
		v, ok := factor(ex, profile.FactorValuesAlignment)
		if !ok {
			return nil, false
		}
		// Nearest of the per-value weights used to derive the factor.
		var val string
		switch {
		case v >= 0.75:
			val = "reliability"
		case v >= 0.65:
			val = "kindness"
		case v >= 0.55:
			val = "curiosity"
		default:
			val = "humor"
		}
		return steps.ValuesAnswer{Values: []string{val}}, true

	case steps.Pace01:
		v, ok := factor(ex, profile.FactorSocialPace)
		if !ok {
			return nil, false
		}
		return steps.PaceAnswer{SocialPace: bucket(v, "slow", "medium", "fast")}, true

	case steps.Group01:
		if ex.PreferencesPatch == nil || !ex.PreferencesPatch.GroupSizePref.Valid() {
			return nil, false
		}
		gs := ex.PreferencesPatch.GroupSizePref
		b := "7+"
		switch {
		case gs.Max <= 3:
			b = "2-3"
		case gs.Max <= 6:
			b = "4-6"
		}
		return steps.GroupSizeAnswer{Bucket: b, Min: gs.Min, Max: gs.Max}, true

	case steps.Time01:
		if ex.PreferencesPatch == nil || len(ex.PreferencesPatch.TimePreferences) == 0 {
			return nil, false
		}
		ts := ex.PreferencesPatch.TimePreferences
		return steps.TimeAnswer{TimePreferences: append([]string{}, ts[:min(len(ts), maxSyntheticPicks)]...)}, true

	case steps.Structure01:
		v, ok := factor(ex, profile.FactorStructurePreference)
		if !ok {
			return nil, false
		}
		return steps.StructureAnswer{Structure: bucket(v, "spontaneous", "flexible", "planned")}, true

	case steps.Location01:
		if ex.PreferencesPatch == nil || ex.PreferencesPatch.Location == "" {
			return nil, false
		}
		return steps.LocationAnswer{Region: ex.PreferencesPatch.Location}, true

	case steps.Boundaries01:
		bp := ex.BoundariesPatch
		if bp == nil {
			return nil, false
		}
		if bp.Skipped != nil && *bp.Skipped {
			return steps.BoundariesAnswer{NoThanks: []string{}, Skipped: true}, true
		}
		if len(bp.NoThanks) == 0 {
			return nil, false
		}
		return steps.BoundariesAnswer{NoThanks: append([]string{}, bp.NoThanks[:min(len(bp.NoThanks), maxSyntheticActivities)]...)}, true
	}
	return nil, false
}

// activityKeys orders additions by confidence, highest first.
func activityKeys(adds []extractor.ActivityPatternAdd) []string {
	sorted := slices.Clone(adds)
	slices.SortStableFunc(sorted, func(a, b extractor.ActivityPatternAdd) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	var keys []string
	seen := make(map[string]bool)
	for _, a := range sorted {
		if a.ActivityKey == "" || seen[a.ActivityKey] {
			continue
		}
		seen[a.ActivityKey] = true
		keys = append(keys, a.ActivityKey)
	}
	return keys
}

// topMotives picks up to two motives by their strongest weight across the
// extracted activities.
func topMotives(adds []extractor.ActivityPatternAdd) []string {
	best := make(map[string]float64)
	for _, a := range adds {
		for k, w := range a.MotiveWeights {
			if slices.Contains(steps.Motives, k) && w > best[k] {
				best[k] = w
			}
		}
	}
	motives := slices.Clone(steps.Motives)
	slices.SortStableFunc(motives, func(a, b string) int {
		return cmp.Compare(best[b], best[a])
	})
	var out []string
	for _, m := range motives {
		if best[m] >= 0.5 && len(out) < maxSyntheticPicks {
			out = append(out, m)
		}
	}
	return out
}

func factor(ex extractor.Extracted, key profile.FactorKey) (float64, bool) {
	for _, fp := range ex.FingerprintPatches {
		if fp.Key == key {
			return fp.RangeValue, true
		}
	}
	return 0, false
}

func bucket(v float64, low, mid, high string) string {
	switch {
	case v < 0.35:
		return low
	case v > 0.7:
		return high
	default:
		return mid
	}
}
