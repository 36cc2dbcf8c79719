package patch

import (
	"math"
	"testing"

	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
)

func TestMotiveDerivations(t *testing.T) {
	tests := []struct {
		name   string
		picks  []string
		derive func(map[string]float64) float64
		want   float64
	}{
		{"connection depth first pick", []string{"connection"}, ConnectionDepth, 0.9},
		{"connection depth unpicked", []string{"fun"}, ConnectionDepth, 0.2},
		{"novelty from adventure", []string{"adventure"}, NoveltySeeking, 0.9},
		{"novelty from fun", []string{"fun"}, NoveltySeeking, 0.765},
		{"novelty from second fun", []string{"connection", "fun"}, NoveltySeeking, 0.595},
		{"directness from connection", []string{"connection"}, EmotionalDirectness, 0.8},
		{"directness floor", []string{"fun"}, EmotionalDirectness, 0.45},
		{"adventure comfort from novelty", []string{"novelty"}, AdventureComfort, 0.72},
		{"adventure comfort direct", []string{"novelty", "adventure"}, AdventureComfort, 0.72},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.derive(MotiveWeights(tt.picks))
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("derive(%v) = %f, want %f", tt.picks, got, tt.want)
			}
		})
	}
}

func TestConflictTolerance(t *testing.T) {
	tests := []struct {
		name   string
		answer steps.BoundariesAnswer
		want   float64
	}{
		{"skipped", steps.BoundariesAnswer{NoThanks: []string{}, Skipped: true}, 0.5},
		{"none", steps.BoundariesAnswer{NoThanks: []string{}}, 1.0},
		{"one", steps.BoundariesAnswer{NoThanks: []string{"bars"}}, 0.85},
		{"two", steps.BoundariesAnswer{NoThanks: []string{"bars", "late nights"}}, 0.7},
		{"four", steps.BoundariesAnswer{NoThanks: []string{"a", "b", "c", "d"}}, 0.4},
		{"five caps at four", steps.BoundariesAnswer{NoThanks: []string{"a", "b", "c", "d", "e"}}, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConflictTolerance(tt.answer)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("ConflictTolerance(%+v) = %f, want %f", tt.answer, got, tt.want)
			}
		})
	}
}

func TestChoiceDerivations(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"conversation deep", ConversationStyle([]string{"deep"}), 0.85},
		{"conversation averaged", ConversationStyle([]string{"deep", "listening"}), 0.55},
		{"conversation empty", ConversationStyle(nil), 0.5},
		{"humor banter", HumorStyle([]string{"banter"}), 0.85},
		{"pace slow", SocialPace("slow"), 0.2},
		{"pace fast", SocialPace("fast"), 0.85},
		{"energy medium", SocialEnergy("medium"), 0.55},
		{"group small", GroupComfort("2-3"), 0.3},
		{"group large", GroupComfort("7+"), 0.85},
		{"values reliability kindness", ValuesAlignment([]string{"reliability", "kindness"}), 0.75},
		{"structure planned", StructurePreference("planned"), 0.85},
		{"structure spontaneous", StructurePreference("spontaneous"), 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if math.Abs(tt.got-tt.want) > 0.001 {
				t.Errorf("got %f, want %f", tt.got, tt.want)
			}
		})
	}
}

func TestMergeFactor(t *testing.T) {
	llm := profile.FactorValue{Value: 0.9, Confidence: 0.8, Source: profile.SourceLLM}
	det := profile.FactorValue{Value: 0.2, Confidence: DeterministicConfidence, Source: profile.SourceDeterministic}

	tests := []struct {
		name      string
		existing  profile.FactorValue
		ok        bool
		candidate profile.FactorValue
		want      profile.FactorValue
	}{
		{"absent takes candidate", profile.FactorValue{}, false, det, det},
		{"lower confidence never overwrites", llm, true, det, llm},
		{"higher confidence overwrites", det, true, llm, llm},
		{"tie goes to candidate", det, true, profile.FactorValue{Value: 0.4, Confidence: DeterministicConfidence}, profile.FactorValue{Value: 0.4, Confidence: DeterministicConfidence}},
		{"candidate is clamped", profile.FactorValue{}, false, profile.FactorValue{Value: 1.4, Confidence: 2}, profile.FactorValue{Value: 1, Confidence: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeFactor(tt.existing, tt.ok, tt.candidate)
			if got != tt.want {
				t.Errorf("MergeFactor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAddActivity_KeysStayUnique(t *testing.T) {
	p := profile.Profile{}
	addActivity(&p, profile.ActivityPattern{ActivityKey: "coffee", Confidence: 0.9, Source: profile.SourceLLM, MotiveWeights: map[string]float64{"fun": 0.3}})
	addActivity(&p, profile.ActivityPattern{ActivityKey: "coffee", Confidence: 0.7, Source: profile.SourceDeterministic, MotiveWeights: map[string]float64{"fun": 0.9, "connection": 0.6}})

	if len(p.ActivityPatterns) != 1 {
		t.Fatalf("patterns = %d, want 1", len(p.ActivityPatterns))
	}
	got := p.ActivityPatterns[0]
	if got.Confidence != 0.9 || got.Source != profile.SourceLLM {
		t.Errorf("confidence/source = %f/%s, want 0.9/%s", got.Confidence, got.Source, profile.SourceLLM)
	}
	if got.MotiveWeights["fun"] != 0.3 {
		t.Errorf("fun weight = %f, want the more confident 0.3", got.MotiveWeights["fun"])
	}
	if got.MotiveWeights["connection"] != 0.6 {
		t.Errorf("connection weight = %f, want 0.6 from union", got.MotiveWeights["connection"])
	}
}
