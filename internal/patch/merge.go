package patch

import "github.com/JaxJericho/josh-2.0-sub000/internal/profile"

// MergeFactor is the confidence-max merge: the candidate replaces the existing
// value only when its confidence is at least as high.
func MergeFactor(existing profile.FactorValue, ok bool, candidate profile.FactorValue) profile.FactorValue {
	candidate.Value = clamp(candidate.Value)
	candidate.Confidence = clamp(candidate.Confidence)
	if !ok || candidate.Confidence >= existing.Confidence {
		return candidate
	}
	return existing
}

// mergeActivity folds candidate into the pattern with the same key. Confidence
// only rises; motive weights from the more confident side win per key.
func mergeActivity(existing, candidate profile.ActivityPattern) profile.ActivityPattern {
	out := existing
	candidateWins := candidate.Confidence >= existing.Confidence
	if candidateWins {
		out.Confidence = clamp(candidate.Confidence)
		out.Source = candidate.Source
	}
	if len(candidate.MotiveWeights) > 0 {
		merged := make(map[string]float64, len(existing.MotiveWeights)+len(candidate.MotiveWeights))
		for k, v := range existing.MotiveWeights {
			merged[k] = v
		}
		for k, v := range candidate.MotiveWeights {
			if _, has := merged[k]; !has || candidateWins {
				merged[k] = clamp(v)
			}
		}
		out.MotiveWeights = merged
	}
	return out
}

// setFactor writes a factor through the confidence-max merge.
func setFactor(p *profile.Profile, key profile.FactorKey, candidate profile.FactorValue) {
	if p.Fingerprint == nil {
		p.Fingerprint = make(map[profile.FactorKey]profile.FactorValue)
	}
	existing, ok := p.Fingerprint[key]
	p.Fingerprint[key] = MergeFactor(existing, ok, candidate)
}

// addActivity inserts or merges a pattern, keeping keys unique.
func addActivity(p *profile.Profile, candidate profile.ActivityPattern) {
	if i := p.ActivityIndex(candidate.ActivityKey); i >= 0 {
		p.ActivityPatterns[i] = mergeActivity(p.ActivityPatterns[i], candidate)
		return
	}
	candidate.Confidence = clamp(candidate.Confidence)
	p.ActivityPatterns = append(p.ActivityPatterns, candidate)
}
