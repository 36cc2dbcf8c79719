// Package patch turns one answered interview step into a profile patch.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JaxJericho/josh-2.0-sub000/internal/coverage"
	"github.com/JaxJericho/josh-2.0-sub000/internal/extractor"
	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
)

// WriteTarget names one field family a step's answer writes.
type WriteTarget string

const (
	WriteInterviewProgress   WriteTarget = "interview_progress"
	WriteActivityPatterns    WriteTarget = "activity_patterns"
	WriteActiveIntent        WriteTarget = "active_intent"
	WriteMotiveWeights       WriteTarget = "motive_weights"
	WriteGroupSizePref       WriteTarget = "group_size_pref"
	WriteTimePreferences     WriteTarget = "time_preferences"
	WriteLocation            WriteTarget = "location"
	WriteBoundaries          WriteTarget = "boundaries"
	WriteConnectionDepth     WriteTarget = WriteTarget(profile.FactorConnectionDepth)
	WriteNoveltySeeking      WriteTarget = WriteTarget(profile.FactorNoveltySeeking)
	WriteEmotionalDirectness WriteTarget = WriteTarget(profile.FactorEmotionalDirectness)
	WriteAdventureComfort    WriteTarget = WriteTarget(profile.FactorAdventureComfort)
	WriteConversationStyle   WriteTarget = WriteTarget(profile.FactorConversationStyle)
	WriteHumorStyle          WriteTarget = WriteTarget(profile.FactorHumorStyle)
	WriteSocialPace          WriteTarget = WriteTarget(profile.FactorSocialPace)
	WriteSocialEnergy        WriteTarget = WriteTarget(profile.FactorSocialEnergy)
	WriteGroupComfort        WriteTarget = WriteTarget(profile.FactorGroupComfort)
	WriteValuesAlignment     WriteTarget = WriteTarget(profile.FactorValuesAlignment)
	WriteStructurePreference WriteTarget = WriteTarget(profile.FactorStructurePreference)
	WriteConflictTolerance   WriteTarget = WriteTarget(profile.FactorConflictTolerance)
)

var writeTargets = map[steps.ID][]WriteTarget{
	steps.IntroID:      {WriteInterviewProgress},
	steps.Activity01:   {WriteActivityPatterns},
	steps.Activity02:   {WriteActiveIntent, WriteActivityPatterns},
	steps.Motive01:     {WriteMotiveWeights, WriteConnectionDepth, WriteNoveltySeeking, WriteEmotionalDirectness, WriteAdventureComfort},
	steps.Style01:      {WriteConversationStyle, WriteHumorStyle},
	steps.Pace01:       {WriteSocialPace, WriteSocialEnergy},
	steps.Group01:      {WriteGroupSizePref, WriteGroupComfort},
	steps.Values01:     {WriteValuesAlignment},
	steps.Time01:       {WriteTimePreferences},
	steps.Structure01:  {WriteStructurePreference},
	steps.Location01:   {WriteLocation},
	steps.Boundaries01: {WriteBoundaries, WriteConflictTolerance},
}

// WriteTargets returns the write targets for a question step.
func WriteTargets(id steps.ID) []WriteTarget {
	return append([]WriteTarget(nil), writeTargets[id]...)
}

// ErrAnswerMismatch means the answer shape does not belong to the step.
var ErrAnswerMismatch = errors.New("answer does not match step")

// BuildForAnswer applies answer (and, when present, the extraction output's
// fingerprint and activity signals) to p and returns the resulting patch.
// nextStepID becomes the progress's current step. p is not modified.
func BuildForAnswer(p profile.Profile, stepID steps.ID, answer steps.Answer, nextStepID steps.ID, now time.Time, ext *extractor.Output) (profile.Patch, error) {
	targets, ok := writeTargets[stepID]
	if !ok {
		return profile.Patch{}, fmt.Errorf("build patch: no write targets for step %q", stepID)
	}
	if answer == nil || answer.StepID() != stepID {
		return profile.Patch{}, fmt.Errorf("build patch %s: %w", stepID, ErrAnswerMismatch)
	}

	next := p.Clone()
	for _, t := range targets {
		writers[t](&next, answer)
	}
	if ext != nil {
		ApplyExtraction(&next, ext)
	}

	next.Preferences.LastInterviewStep = string(stepID)
	raw, err := steps.EncodeAnswer(answer)
	if err != nil {
		return profile.Patch{}, fmt.Errorf("build patch %s: %w", stepID, err)
	}
	progress := ensureProgress(&next)
	progress.CompletedStepIDs = appendUnique(progress.CompletedStepIDs, string(stepID))
	progress.Answers[string(stepID)] = raw
	progress.CurrentStepID = string(nextStepID)
	progress.UpdatedAt = now

	status := recompute(&next, now)
	if status.MVPComplete {
		progress.Status = profile.ProgressComplete
	} else {
		progress.Status = profile.ProgressInProgress
	}
	return profile.PatchFrom(next), nil
}

// BuildStart initializes interview progress at stepID without applying an
// answer.
func BuildStart(p profile.Profile, stepID steps.ID, now time.Time) profile.Patch {
	next := p.Clone()
	progress := ensureProgress(&next)
	progress.CurrentStepID = string(stepID)
	progress.UpdatedAt = now
	status := recompute(&next, now)
	if status.MVPComplete {
		progress.Status = profile.ProgressComplete
	} else {
		progress.Status = profile.ProgressInProgress
	}
	return profile.PatchFrom(next)
}

// BuildPause marks progress paused with stepID still current.
func BuildPause(p profile.Profile, stepID steps.ID, now time.Time) profile.Patch {
	next := p.Clone()
	progress := ensureProgress(&next)
	progress.Status = profile.ProgressPaused
	progress.CurrentStepID = string(stepID)
	progress.UpdatedAt = now
	recompute(&next, now)
	return profile.PatchFrom(next)
}

// ApplyExtraction merges LLM fingerprint patches and activity additions into p.
func ApplyExtraction(p *profile.Profile, ext *extractor.Output) {
	for _, fp := range ext.Extracted.FingerprintPatches {
		setFactor(p, fp.Key, profile.FactorValue{
			Value:      fp.RangeValue,
			Confidence: fp.Confidence,
			Source:     profile.SourceLLM,
		})
	}
	for _, ap := range ext.Extracted.ActivityPatternsAdd {
		addActivity(p, profile.ActivityPattern{
			ActivityKey:   ap.ActivityKey,
			MotiveWeights: ap.MotiveWeights,
			Confidence:    ap.Confidence,
			Source:        profile.SourceLLM,
		})
	}
}

// recompute refreshes completeness and state from coverage of p.
func recompute(p *profile.Profile, now time.Time) coverage.Status {
	status := coverage.GetStatus(*p)
	p.CompletenessPercent = status.CompletenessPercent()
	p.IsCompleteMVP = status.MVPComplete
	switch {
	case p.State == profile.StateCompleteFull:
	case status.MVPComplete:
		p.State = profile.StateCompleteMVP
	default:
		p.State = profile.StatePartial
	}
	if status.MVPComplete && p.CompletedAt == nil {
		t := now
		p.CompletedAt = &t
	}
	return status
}

func ensureProgress(p *profile.Profile) *profile.InterviewProgress {
	if p.Preferences.InterviewProgress == nil {
		p.Preferences.InterviewProgress = &profile.InterviewProgress{}
	}
	ip := p.Preferences.InterviewProgress
	if ip.Answers == nil {
		ip.Answers = make(map[string]json.RawMessage)
	}
	return ip
}

func appendUnique(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
