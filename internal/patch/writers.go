package patch

import (
	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
)

type writer func(p *profile.Profile, a steps.Answer)

var writers = map[WriteTarget]writer{
	WriteInterviewProgress:   func(*profile.Profile, steps.Answer) {},
	WriteActivityPatterns:    writeActivityPatterns,
	WriteActiveIntent:        writeActiveIntent,
	WriteMotiveWeights:       writeMotiveWeights,
	WriteConnectionDepth:     motiveFactor(profile.FactorConnectionDepth, ConnectionDepth),
	WriteNoveltySeeking:      motiveFactor(profile.FactorNoveltySeeking, NoveltySeeking),
	WriteEmotionalDirectness: motiveFactor(profile.FactorEmotionalDirectness, EmotionalDirectness),
	WriteAdventureComfort:    motiveFactor(profile.FactorAdventureComfort, AdventureComfort),
	WriteConversationStyle:   styleFactor(profile.FactorConversationStyle, ConversationStyle),
	WriteHumorStyle:          styleFactor(profile.FactorHumorStyle, HumorStyle),
	WriteSocialPace:          paceFactor(profile.FactorSocialPace, SocialPace),
	WriteSocialEnergy:        paceFactor(profile.FactorSocialEnergy, SocialEnergy),
	WriteGroupSizePref:       writeGroupSize,
	WriteGroupComfort:        writeGroupComfort,
	WriteValuesAlignment:     writeValues,
	WriteTimePreferences:     writeTimes,
	WriteStructurePreference: writeStructure,
	WriteLocation:            writeLocation,
	WriteBoundaries:          writeBoundaries,
	WriteConflictTolerance:   writeConflictTolerance,
}

func deterministic(v float64) profile.FactorValue {
	return profile.FactorValue{Value: clamp(v), Confidence: DeterministicConfidence, Source: profile.SourceDeterministic}
}

func writeActivityPatterns(p *profile.Profile, a steps.Answer) {
	var keys []string
	switch v := a.(type) {
	case steps.ActivitiesAnswer:
		keys = v.ActivityKeys
	case steps.TopActivityAnswer:
		keys = []string{v.ActivityKey}
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		addActivity(p, profile.ActivityPattern{
			ActivityKey: k,
			Confidence:  ActivityConfidence,
			Source:      profile.SourceDeterministic,
		})
	}
}

func writeActiveIntent(p *profile.Profile, a steps.Answer) {
	v, ok := a.(steps.TopActivityAnswer)
	if !ok || v.ActivityKey == "" {
		return
	}
	p.ActiveIntent = &profile.ActiveIntent{
		ActivityKey: v.ActivityKey,
		Confidence:  ActiveIntentConfidence,
		Source:      profile.SourceDeterministic,
	}
}

func writeMotiveWeights(p *profile.Profile, a steps.Answer) {
	v, ok := a.(steps.MotiveAnswer)
	if !ok {
		return
	}
	w := MotiveWeights(v.Motives)
	p.Preferences.MotiveWeights = w
	if p.ActiveIntent != nil && p.ActiveIntent.ActivityKey != "" {
		addActivity(p, profile.ActivityPattern{
			ActivityKey:   p.ActiveIntent.ActivityKey,
			MotiveWeights: w,
			Confidence:    ActivityConfidence,
			Source:        profile.SourceDeterministic,
		})
	}
}

func motiveFactor(key profile.FactorKey, derive func(map[string]float64) float64) writer {
	return func(p *profile.Profile, a steps.Answer) {
		v, ok := a.(steps.MotiveAnswer)
		if !ok {
			return
		}
		setFactor(p, key, deterministic(derive(MotiveWeights(v.Motives))))
	}
}

func styleFactor(key profile.FactorKey, derive func([]string) float64) writer {
	return func(p *profile.Profile, a steps.Answer) {
		v, ok := a.(steps.StyleAnswer)
		if !ok {
			return
		}
		setFactor(p, key, deterministic(derive(v.Styles)))
	}
}

func paceFactor(key profile.FactorKey, derive func(string) float64) writer {
	return func(p *profile.Profile, a steps.Answer) {
		v, ok := a.(steps.PaceAnswer)
		if !ok {
			return
		}
		setFactor(p, key, deterministic(derive(v.SocialPace)))
	}
}

func writeGroupSize(p *profile.Profile, a steps.Answer) {
	v, ok := a.(steps.GroupSizeAnswer)
	if !ok {
		return
	}
	gs := &profile.GroupSize{Min: v.Min, Max: v.Max}
	if gs.Valid() {
		p.Preferences.GroupSizePref = gs
	}
}

func writeGroupComfort(p *profile.Profile, a steps.Answer) {
	if v, ok := a.(steps.GroupSizeAnswer); ok {
		setFactor(p, profile.FactorGroupComfort, deterministic(GroupComfort(v.Bucket)))
	}
}

func writeValues(p *profile.Profile, a steps.Answer) {
	if v, ok := a.(steps.ValuesAnswer); ok {
		setFactor(p, profile.FactorValuesAlignment, deterministic(ValuesAlignment(v.Values)))
	}
}

func writeTimes(p *profile.Profile, a steps.Answer) {
	if v, ok := a.(steps.TimeAnswer); ok && len(v.TimePreferences) > 0 {
		p.Preferences.TimePreferences = append([]string{}, v.TimePreferences...)
	}
}

func writeStructure(p *profile.Profile, a steps.Answer) {
	if v, ok := a.(steps.StructureAnswer); ok {
		setFactor(p, profile.FactorStructurePreference, deterministic(StructurePreference(v.Structure)))
	}
}

func writeLocation(p *profile.Profile, a steps.Answer) {
	if v, ok := a.(steps.LocationAnswer); ok && v.Region != "" {
		p.Preferences.Location = v.Region
	}
}

func writeBoundaries(p *profile.Profile, a steps.Answer) {
	v, ok := a.(steps.BoundariesAnswer)
	if !ok {
		return
	}
	if v.Skipped {
		p.Boundaries = profile.Boundaries{NoThanks: []string{}, Skipped: true}
		return
	}
	p.Boundaries = profile.Boundaries{NoThanks: append([]string{}, v.NoThanks...)}
}

func writeConflictTolerance(p *profile.Profile, a steps.Answer) {
	if v, ok := a.(steps.BoundariesAnswer); ok {
		setFactor(p, profile.FactorConflictTolerance, deterministic(ConflictTolerance(v)))
	}
}
