package guardrail

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		requireJSON bool
		wantOK      bool
		wantText    string
		violations  []string
	}{
		{
			name:        "plain json",
			raw:         `{"stepId":"pace_01","notes":{"followUpQuestion":"Fast or slow?"}}`,
			requireJSON: true,
			wantOK:      true,
			wantText:    `{"stepId":"pace_01","notes":{"followUpQuestion":"Fast or slow?"}}`,
		},
		{
			name:        "fenced json is recovered with a violation",
			raw:         "```json\n{\"stepId\":\"pace_01\"}\n```",
			requireJSON: true,
			wantOK:      true,
			wantText:    `{"stepId":"pace_01"}`,
			violations:  []string{ViolationMarkdownFence},
		},
		{
			name:        "json wrapped in prose",
			raw:         `Sure! Here you go: {"stepId":"pace_01","x":["a}"]} hope that helps`,
			requireJSON: true,
			wantOK:      true,
			wantText:    `{"stepId":"pace_01","x":["a}"]}`,
			violations:  []string{ViolationJSONWrapper},
		},
		{
			name:        "not json",
			raw:         "not-json",
			requireJSON: true,
			wantOK:      false,
			violations:  []string{ViolationInvalidJSON},
		},
		{
			name:        "unbalanced",
			raw:         `{"stepId": "pace_01"`,
			requireJSON: true,
			wantOK:      false,
			violations:  []string{ViolationInvalidJSON},
		},
		{
			name:        "prose allowed when json not required",
			raw:         "Sounds like a fun plan.",
			requireJSON: false,
			wantOK:      true,
			wantText:    "Sounds like a fun plan.",
		},
		{
			name:        "guarantee in a nested leaf",
			raw:         `{"notes":{"followUpOptions":["We guarantee a perfect match"]}}`,
			requireJSON: true,
			wantOK:      false,
			wantText:    `{"notes":{"followUpOptions":["We guarantee a perfect match"]}}`,
			violations:  []string{"guarantee_language"},
		},
		{
			name:        "each pattern reported once in order",
			raw:         `{"a":"your fingerprint shows trauma","b":"the algorithm says therapy"}`,
			requireJSON: true,
			wantOK:      false,
			wantText:    `{"a":"your fingerprint shows trauma","b":"the algorithm says therapy"}`,
			violations:  []string{"therapy_framing", "internal_mechanism"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.raw, tt.requireJSON)
			if res.OK != tt.wantOK {
				t.Errorf("OK = %v, want %v (violations %v)", res.OK, tt.wantOK, res.Violations)
			}
			if tt.wantText != "" && res.SanitizedText != tt.wantText {
				t.Errorf("SanitizedText = %q, want %q", res.SanitizedText, tt.wantText)
			}
			if diff := cmp.Diff(tt.violations, res.Violations); diff != "" {
				t.Errorf("violations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResult_Classification(t *testing.T) {
	res := Validate("```\n{\"q\":\"a big five quiz\"}\n```", true)
	if !res.Structural() {
		t.Error("fenced output should be structural")
	}
	if diff := cmp.Diff([]string{"personality_scoring"}, res.Prohibited()); diff != "" {
		t.Errorf("Prohibited() mismatch (-want +got):\n%s", diff)
	}

	clean := Validate(`{"q":"coffee sounds great"}`, true)
	if clean.Structural() || len(clean.Prohibited()) != 0 || !clean.OK {
		t.Errorf("clean output flagged: %+v", clean)
	}
}

func TestPatternNames(t *testing.T) {
	want := []string{"jargon", "therapy_framing", "guarantee_language", "personality_scoring", "internal_mechanism"}
	if diff := cmp.Diff(want, PatternNames()); diff != "" {
		t.Errorf("pattern order mismatch (-want +got):\n%s", diff)
	}
}
