package patch

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/JaxJericho/josh-2.0-sub000/internal/coverage"
	"github.com/JaxJericho/josh-2.0-sub000/internal/extractor"
	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestWriteTargets_NonEmptyForEveryQuestion(t *testing.T) {
	for _, s := range steps.All() {
		if s.Kind != steps.KindQuestion {
			continue
		}
		if len(WriteTargets(s.ID)) == 0 {
			t.Errorf("step %s has no write targets", s.ID)
		}
		for _, wt := range WriteTargets(s.ID) {
			if writers[wt] == nil {
				t.Errorf("write target %s has no writer", wt)
			}
		}
	}
}

func TestBuildForAnswer_Motive(t *testing.T) {
	p := profile.Profile{UserID: "u1", State: profile.StateEmpty}
	pt, err := BuildForAnswer(p, steps.Motive01, steps.MotiveAnswer{Motives: []string{"fun", "connection"}}, steps.Style01, now, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, k := range []profile.FactorKey{
		profile.FactorConnectionDepth,
		profile.FactorNoveltySeeking,
		profile.FactorEmotionalDirectness,
		profile.FactorAdventureComfort,
	} {
		fv, ok := pt.Fingerprint[k]
		if !ok {
			t.Errorf("factor %s not written", k)
			continue
		}
		if fv.Source != profile.SourceDeterministic || fv.Confidence != DeterministicConfidence {
			t.Errorf("factor %s = %+v", k, fv)
		}
	}
	if got := pt.Preferences.MotiveWeights["fun"]; got != 0.9 {
		t.Errorf("fun weight = %f, want 0.9", got)
	}
	if pt.State != profile.StatePartial {
		t.Errorf("state = %s, want partial", pt.State)
	}
	if pt.Preferences.LastInterviewStep != string(steps.Motive01) {
		t.Errorf("last step = %q", pt.Preferences.LastInterviewStep)
	}
	ip := pt.Preferences.InterviewProgress
	if ip == nil || ip.CurrentStepID != string(steps.Style01) || ip.Status != profile.ProgressInProgress {
		t.Fatalf("progress = %+v", ip)
	}
	if _, ok := ip.Answers[string(steps.Motive01)]; !ok {
		t.Error("answer not recorded")
	}
	if p.Fingerprint != nil {
		t.Error("input profile was mutated")
	}
}

func TestBuildForAnswer_KeepsHigherConfidenceLLMValue(t *testing.T) {
	prior := profile.FactorValue{Value: 0.95, Confidence: 0.9, Source: profile.SourceLLM}
	p := profile.Profile{Fingerprint: map[profile.FactorKey]profile.FactorValue{
		profile.FactorSocialPace: prior,
	}}

	pt, err := BuildForAnswer(p, steps.Pace01, steps.PaceAnswer{SocialPace: "slow"}, steps.Group01, now, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pt.Fingerprint[profile.FactorSocialPace]; got != prior {
		t.Errorf("social_pace = %+v, want %+v", got, prior)
	}
	if got := pt.Fingerprint[profile.FactorSocialEnergy]; got.Value != 0.3 {
		t.Errorf("social_energy = %+v, want 0.3", got)
	}
}

func TestBuildForAnswer_Extraction(t *testing.T) {
	ext := &extractor.Output{
		StepID: steps.Activity01,
		Extracted: extractor.Extracted{
			FingerprintPatches: []extractor.FingerprintPatch{
				{Key: profile.FactorSocialEnergy, RangeValue: 0.7, Confidence: 0.8},
			},
			ActivityPatternsAdd: []extractor.ActivityPatternAdd{
				{ActivityKey: "hiking", Confidence: 0.75},
			},
		},
	}
	pt, err := BuildForAnswer(profile.Profile{}, steps.Activity01, steps.ActivitiesAnswer{ActivityKeys: []string{"coffee"}}, steps.Activity02, now, ext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pt.Fingerprint[profile.FactorSocialEnergy]; got.Source != profile.SourceLLM || got.Confidence != 0.8 {
		t.Errorf("social_energy = %+v", got)
	}
	var keys []string
	for _, ap := range pt.ActivityPatterns {
		keys = append(keys, ap.ActivityKey)
	}
	if diff := cmp.Diff([]string{"coffee", "hiking"}, keys); diff != "" {
		t.Errorf("activity keys (-want +got):\n%s", diff)
	}
}

func TestBuildForAnswer_BoundariesSkipped(t *testing.T) {
	pt, err := BuildForAnswer(profile.Profile{}, steps.Boundaries01, steps.BoundariesAnswer{NoThanks: []string{}, Skipped: true}, steps.Wrap01, now, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(profile.Boundaries{NoThanks: []string{}, Skipped: true}, pt.Boundaries); diff != "" {
		t.Errorf("boundaries (-want +got):\n%s", diff)
	}
	p := pt.Apply(profile.Profile{})
	if !coverage.IsCovered(p, coverage.TargetBoundariesAsked) {
		t.Error("boundaries_asked not covered after skip")
	}
	if got := p.Fingerprint[profile.FactorConflictTolerance].Value; got != 0.5 {
		t.Errorf("conflict_tolerance = %f, want 0.5", got)
	}
}

func TestBuildForAnswer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		step   steps.ID
		answer steps.Answer
	}{
		{"terminal step", steps.Wrap01, steps.PaceAnswer{SocialPace: "slow"}},
		{"unknown step", "mystery_01", steps.PaceAnswer{SocialPace: "slow"}},
		{"nil answer", steps.Pace01, nil},
		{"wrong shape", steps.Pace01, steps.TimeAnswer{TimePreferences: []string{"evening"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildForAnswer(profile.Profile{}, tt.step, tt.answer, steps.Wrap01, now, nil)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}

	_, err := BuildForAnswer(profile.Profile{}, steps.Pace01, steps.TimeAnswer{}, steps.Wrap01, now, nil)
	if !errors.Is(err, ErrAnswerMismatch) {
		t.Errorf("expected ErrAnswerMismatch, got %v", err)
	}
}

func TestBuildForAnswer_FullInterviewReachesMVP(t *testing.T) {
	answers := []steps.Answer{
		steps.ActivitiesAnswer{ActivityKeys: []string{"coffee", "walk", "museum"}},
		steps.TopActivityAnswer{ActivityKey: "coffee"},
		steps.MotiveAnswer{Motives: []string{"connection"}},
		steps.StyleAnswer{Styles: []string{"banter"}},
		steps.PaceAnswer{SocialPace: "medium"},
		steps.GroupSizeAnswer{Bucket: "4-6", Min: 4, Max: 6},
		steps.ValuesAnswer{Values: []string{"curiosity"}},
		steps.TimeAnswer{TimePreferences: []string{"evening"}},
		steps.StructureAnswer{Structure: "planned"},
		steps.LocationAnswer{Region: "US-WA"},
		steps.BoundariesAnswer{NoThanks: []string{"bars", "late nights"}},
	}

	p := profile.Profile{UserID: "u1", State: profile.StateEmpty}
	var last int
	for i, a := range answers {
		pt, err := BuildForAnswer(p, a.StepID(), a, steps.Wrap01, now, nil)
		if err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if pt.CompletenessPercent < last {
			t.Errorf("answer %d: completeness fell from %d to %d", i, last, pt.CompletenessPercent)
		}
		last = pt.CompletenessPercent
		if i < len(answers)-1 && pt.IsCompleteMVP {
			t.Fatalf("answer %d (%s): MVP before boundaries", i, a.StepID())
		}
		p = pt.Apply(p)
	}

	if !p.IsCompleteMVP || p.State != profile.StateCompleteMVP {
		t.Fatalf("mvp=%v state=%s, want complete", p.IsCompleteMVP, p.State)
	}
	if p.CompletenessPercent != 100 {
		t.Errorf("completeness = %d, want 100", p.CompletenessPercent)
	}
	if p.CompletedAt == nil || !p.CompletedAt.Equal(now) {
		t.Errorf("completed_at = %v", p.CompletedAt)
	}
	ip := p.Preferences.InterviewProgress
	if ip.Status != profile.ProgressComplete {
		t.Errorf("progress status = %s", ip.Status)
	}
	if len(ip.CompletedStepIDs) != len(answers) {
		t.Errorf("completed steps = %v", ip.CompletedStepIDs)
	}
}

func TestBuildForAnswer_CompletedStepsDeduplicated(t *testing.T) {
	p := profile.Profile{}
	for _, pace := range []string{"slow", "fast", "slow"} {
		pt, err := BuildForAnswer(p, steps.Pace01, steps.PaceAnswer{SocialPace: pace}, steps.Group01, now, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		p = pt.Apply(p)
	}
	pt, err := BuildForAnswer(p, steps.Time01, steps.TimeAnswer{TimePreferences: []string{"morning"}}, steps.Group01, now, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"pace_01", "time_01"}
	if diff := cmp.Diff(want, pt.Preferences.InterviewProgress.CompletedStepIDs); diff != "" {
		t.Errorf("completed steps (-want +got):\n%s", diff)
	}
}

func TestBuildStartAndPause(t *testing.T) {
	start := BuildStart(profile.Profile{State: profile.StateEmpty}, steps.Activity01, now)
	ip := start.Preferences.InterviewProgress
	if ip == nil || ip.Status != profile.ProgressInProgress || ip.CurrentStepID != "activity_01" {
		t.Fatalf("start progress = %+v", ip)
	}
	if len(ip.CompletedStepIDs) != 0 {
		t.Errorf("start recorded completed steps: %v", ip.CompletedStepIDs)
	}
	if start.State != profile.StatePartial {
		t.Errorf("start state = %s", start.State)
	}

	pause := BuildPause(start.Apply(profile.Profile{}), steps.IntroID, now)
	if pause.Preferences.InterviewProgress.Status != profile.ProgressPaused {
		t.Errorf("pause status = %s", pause.Preferences.InterviewProgress.Status)
	}
	if pause.Preferences.InterviewProgress.CurrentStepID != "intro_01" {
		t.Errorf("pause current = %s", pause.Preferences.InterviewProgress.CurrentStepID)
	}
}
