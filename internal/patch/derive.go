package patch

import "github.com/JaxJericho/josh-2.0-sub000/internal/steps"

// Confidence assigned to deterministic writes.
const (
	DeterministicConfidence = 0.65
	ActivityConfidence      = 0.7
	ActiveIntentConfidence  = 0.8
)

// MotiveWeights ranks the chosen motives: the first pick 0.9, the second 0.7,
// everything else 0.2.
func MotiveWeights(picks []string) map[string]float64 {
	w := make(map[string]float64, len(steps.Motives))
	for _, m := range steps.Motives {
		w[m] = 0.2
	}
	for i, m := range picks {
		switch i {
		case 0:
			w[m] = 0.9
		case 1:
			w[m] = 0.7
		}
	}
	return w
}

// NoveltySeeking is max(adventure, fun × 0.85).
func NoveltySeeking(w map[string]float64) float64 {
	return clamp(max(w[steps.MotiveAdventure], w[steps.MotiveFun]*0.85))
}

// ConnectionDepth follows the connection weight.
func ConnectionDepth(w map[string]float64) float64 {
	return clamp(w[steps.MotiveConnection])
}

// EmotionalDirectness leans on connection.
func EmotionalDirectness(w map[string]float64) float64 {
	return clamp(0.35 + 0.5*w[steps.MotiveConnection])
}

// AdventureComfort is max(adventure, novelty × 0.8).
func AdventureComfort(w map[string]float64) float64 {
	return clamp(max(w[steps.MotiveAdventure], w[steps.MotiveNovelty]*0.8))
}

// ConflictTolerance drops 0.15 per boundary, at most four, and never below
// 0.3. A skipped answer is fixed at 0.5.
func ConflictTolerance(b steps.BoundariesAnswer) float64 {
	if b.Skipped {
		return 0.5
	}
	n := min(4, len(b.NoThanks))
	return clamp(max(0.3, 1-float64(n)*0.15))
}

func conversationDepth(style string) float64 {
	switch style {
	case "deep":
		return 0.85
	case "stories":
		return 0.6
	case "banter":
		return 0.35
	case "listening":
		return 0.25
	default:
		return 0.5
	}
}

func humor(style string) float64 {
	switch style {
	case "banter":
		return 0.85
	case "stories":
		return 0.6
	case "listening":
		return 0.4
	case "deep":
		return 0.3
	default:
		return 0.5
	}
}

// ConversationStyle and HumorStyle average over the chosen styles.
func ConversationStyle(styles []string) float64 { return mean(styles, conversationDepth) }
func HumorStyle(styles []string) float64        { return mean(styles, humor) }

// SocialPace maps slow/medium/fast onto the range.
func SocialPace(pace string) float64 {
	switch pace {
	case "slow":
		return 0.2
	case "fast":
		return 0.85
	default:
		return 0.5
	}
}

// SocialEnergy tracks pace with a narrower spread.
func SocialEnergy(pace string) float64 {
	switch pace {
	case "slow":
		return 0.3
	case "fast":
		return 0.8
	default:
		return 0.55
	}
}

// GroupComfort grows with the preferred group size.
func GroupComfort(bucket string) float64 {
	switch bucket {
	case "2-3":
		return 0.3
	case "7+":
		return 0.85
	default:
		return 0.6
	}
}

func valueWeight(v string) float64 {
	switch v {
	case "reliability":
		return 0.8
	case "kindness":
		return 0.7
	case "curiosity":
		return 0.6
	case "humor":
		return 0.5
	default:
		return 0.5
	}
}

// ValuesAlignment averages over the chosen values.
func ValuesAlignment(values []string) float64 { return mean(values, valueWeight) }

// StructurePreference maps planned/flexible/spontaneous onto the range.
func StructurePreference(s string) float64 {
	switch s {
	case "planned":
		return 0.85
	case "spontaneous":
		return 0.15
	default:
		return 0.5
	}
}

func mean(vals []string, f func(string) float64) float64 {
	if len(vals) == 0 {
		return 0.5
	}
	var sum float64
	for _, v := range vals {
		sum += f(v)
	}
	return clamp(sum / float64(len(vals)))
}

func clamp(score float64) float64 {
	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}
