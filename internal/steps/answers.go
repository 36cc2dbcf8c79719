package steps

import (
	"encoding/json"
	"fmt"
)

// Answer is a normalized answer. Each step id has exactly one concrete shape.
type Answer interface {
	StepID() ID
}

type ConsentAnswer struct {
	Consent string `json:"consent"` // yes | later
}

type ActivitiesAnswer struct {
	ActivityKeys []string `json:"activity_keys"`
}

type TopActivityAnswer struct {
	ActivityKey string `json:"activity_key"`
}

type MotiveAnswer struct {
	Motives []string `json:"motives"` // ordered, strongest first
}

type StyleAnswer struct {
	Styles []string `json:"conversation_styles"`
}

type PaceAnswer struct {
	SocialPace string `json:"social_pace"` // slow | medium | fast
}

type GroupSizeAnswer struct {
	Bucket string `json:"bucket"`
	Min    int    `json:"min"`
	Max    int    `json:"max"`
}

type ValuesAnswer struct {
	Values []string `json:"values"`
}

type TimeAnswer struct {
	TimePreferences []string `json:"time_preferences"`
}

type StructureAnswer struct {
	Structure string `json:"structure"` // planned | flexible | spontaneous
}

type LocationAnswer struct {
	Region string `json:"region"`
}

type BoundariesAnswer struct {
	NoThanks []string `json:"no_thanks"`
	Skipped  bool     `json:"skipped"`
}

func (ConsentAnswer) StepID() ID     { return IntroID }
func (ActivitiesAnswer) StepID() ID  { return Activity01 }
func (TopActivityAnswer) StepID() ID { return Activity02 }
func (MotiveAnswer) StepID() ID      { return Motive01 }
func (StyleAnswer) StepID() ID       { return Style01 }
func (PaceAnswer) StepID() ID        { return Pace01 }
func (GroupSizeAnswer) StepID() ID   { return Group01 }
func (ValuesAnswer) StepID() ID      { return Values01 }
func (TimeAnswer) StepID() ID        { return Time01 }
func (StructureAnswer) StepID() ID   { return Structure01 }
func (LocationAnswer) StepID() ID    { return Location01 }
func (BoundariesAnswer) StepID() ID  { return Boundaries01 }

// EncodeAnswer serializes an answer for storage in interview progress.
func EncodeAnswer(a Answer) (json.RawMessage, error) {
	if a == nil {
		return nil, fmt.Errorf("encode answer: nil answer")
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode answer %s: %w", a.StepID(), err)
	}
	return b, nil
}

// DecodeAnswer restores the concrete answer shape for id.
func DecodeAnswer(id ID, raw json.RawMessage) (Answer, error) {
	var a Answer
	switch id {
	case IntroID:
		a = &ConsentAnswer{}
	case Activity01:
		a = &ActivitiesAnswer{}
	case Activity02:
		a = &TopActivityAnswer{}
	case Motive01:
		a = &MotiveAnswer{}
	case Style01:
		a = &StyleAnswer{}
	case Pace01:
		a = &PaceAnswer{}
	case Group01:
		a = &GroupSizeAnswer{}
	case Values01:
		a = &ValuesAnswer{}
	case Time01:
		a = &TimeAnswer{}
	case Structure01:
		a = &StructureAnswer{}
	case Location01:
		a = &LocationAnswer{}
	case Boundaries01:
		a = &BoundariesAnswer{}
	default:
		return nil, fmt.Errorf("decode answer: no answer shape for step %q", id)
	}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("decode answer %s: %w", id, err)
	}
	return deref(a), nil
}

// deref returns the value form so callers can type-switch on value types.
func deref(a Answer) Answer {
	switch v := a.(type) {
	case *ConsentAnswer:
		return *v
	case *ActivitiesAnswer:
		return *v
	case *TopActivityAnswer:
		return *v
	case *MotiveAnswer:
		return *v
	case *StyleAnswer:
		return *v
	case *PaceAnswer:
		return *v
	case *GroupSizeAnswer:
		return *v
	case *ValuesAnswer:
		return *v
	case *TimeAnswer:
		return *v
	case *StructureAnswer:
		return *v
	case *LocationAnswer:
		return *v
	case *BoundariesAnswer:
		return *v
	}
	return a
}

// DecodeAnswers decodes every stored answer it recognizes. Entries that fail
// to decode are skipped.
func DecodeAnswers(raw map[string]json.RawMessage) map[ID]Answer {
	out := make(map[ID]Answer, len(raw))
	for k, v := range raw {
		a, err := DecodeAnswer(ID(k), v)
		if err != nil {
			continue
		}
		out[ID(k)] = a
	}
	return out
}
