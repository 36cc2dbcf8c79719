package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
)

// Wire shapes. Required keys are pointers so absence is detectable. Key
// spelling is checked by checkKeys before decoding.
type wireOutput struct {
	StepID    *string        `json:"stepId"`
	Extracted *wireExtracted `json:"extracted"`
	Notes     *wireNotes     `json:"notes"`
}

type wireExtracted struct {
	FingerprintPatches  []wireFingerprintPatch `json:"fingerprintPatches"`
	ActivityPatternsAdd []wireActivityPattern  `json:"activityPatternsAdd"`
	BoundariesPatch     *wireBoundaries        `json:"boundariesPatch"`
	PreferencesPatch    *wirePreferences       `json:"preferencesPatch"`
}

type wireFingerprintPatch struct {
	Key        *string  `json:"key"`
	RangeValue *float64 `json:"range_value"`
	Confidence *float64 `json:"confidence"`
}

type wireActivityPattern struct {
	ActivityKey   *string            `json:"activity_key"`
	MotiveWeights map[string]float64 `json:"motive_weights"`
	Confidence    *float64           `json:"confidence"`
}

type wireBoundaries struct {
	NoThanks []string `json:"no_thanks"`
	Skipped  *bool    `json:"skipped"`
}

type wireGroupSize struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

type wirePreferences struct {
	GroupSizePref   *wireGroupSize `json:"group_size_pref"`
	TimePreferences []string       `json:"time_preferences"`
	Location        *string        `json:"location"`
}

type wireNotes struct {
	NeedsFollowUp    *bool    `json:"needsFollowUp"`
	FollowUpQuestion *string  `json:"followUpQuestion"`
	FollowUpOptions  []string `json:"followUpOptions"`
}

// SchemaError reports the first structural problem found.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Path, e.Reason)
}

func schemaErr(path, format string, args ...any) error {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// keyShape lists the exact keys allowed at one level of the payload. A nil
// shape is a leaf. A free shape accepts any key, as for motive_weights.
type keyShape struct {
	fields map[string]*keyShape
	elem   *keyShape
	free   bool
}

func object(fields map[string]*keyShape) *keyShape { return &keyShape{fields: fields} }
func array(elem *keyShape) *keyShape                { return &keyShape{elem: elem} }

var outputShape = object(map[string]*keyShape{
	"stepId": nil,
	"extracted": object(map[string]*keyShape{
		"fingerprintPatches": array(object(map[string]*keyShape{
			"key":         nil,
			"range_value": nil,
			"confidence":  nil,
		})),
		"activityPatternsAdd": array(object(map[string]*keyShape{
			"activity_key":   nil,
			"motive_weights": {free: true},
			"confidence":     nil,
		})),
		"boundariesPatch": object(map[string]*keyShape{
			"no_thanks": nil,
			"skipped":   nil,
		}),
		"preferencesPatch": object(map[string]*keyShape{
			"group_size_pref":  object(map[string]*keyShape{"min": nil, "max": nil}),
			"time_preferences": nil,
			"location":         nil,
		}),
	}),
	"notes": object(map[string]*keyShape{
		"needsFollowUp":    nil,
		"followUpQuestion": nil,
		"followUpOptions":  nil,
	}),
})

// checkKeys walks one JSON value and rejects keys that are not spelled
// exactly as documented, as well as repeated keys. encoding/json matches
// field names case-insensitively and keeps the last duplicate, so neither
// is caught by the struct decode.
func checkKeys(dec *json.Decoder, shape *keyShape, path string) error {
	tok, err := dec.Token()
	if err != nil {
		return schemaErr(orRoot(path), "%v", err)
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	switch d {
	case '{':
		seen := make(map[string]bool)
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return schemaErr(orRoot(path), "%v", err)
			}
			key, _ := kt.(string)
			child := join(path, key)
			if seen[key] {
				return schemaErr(child, "duplicate key")
			}
			seen[key] = true

			var next *keyShape
			if shape != nil && !shape.free {
				s, known := shape.fields[key]
				if !known {
					return schemaErr(child, "unknown key")
				}
				next = s
			}
			if err := checkKeys(dec, next, child); err != nil {
				return err
			}
		}
	case '[':
		var elem *keyShape
		if shape != nil {
			elem = shape.elem
		}
		for i := 0; dec.More(); i++ {
			if err := checkKeys(dec, elem, fmt.Sprintf("%s[%d]", orRoot(path), i)); err != nil {
				return err
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return schemaErr(orRoot(path), "%v", err)
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func orRoot(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

// ParseOutput decodes and validates an extraction payload.
func ParseOutput(text string) (*Output, error) {
	if err := checkKeys(json.NewDecoder(strings.NewReader(text)), outputShape, ""); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var w wireOutput
	if err := dec.Decode(&w); err != nil {
		return nil, schemaErr("$", "%v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, schemaErr("$", "trailing data after payload")
	}

	if w.StepID == nil || strings.TrimSpace(*w.StepID) == "" {
		return nil, schemaErr("stepId", "required non-empty string")
	}
	if w.Extracted == nil {
		return nil, schemaErr("extracted", "required")
	}

	out := &Output{StepID: steps.ID(*w.StepID)}

	for i, fp := range w.Extracted.FingerprintPatches {
		path := fmt.Sprintf("extracted.fingerprintPatches[%d]", i)
		if fp.Key == nil || *fp.Key == "" {
			return nil, schemaErr(path+".key", "required non-empty string")
		}
		key := profile.FactorKey(*fp.Key)
		if !profile.IsFactor(key) {
			return nil, schemaErr(path+".key", "unknown factor %q", *fp.Key)
		}
		if err := unit(path+".range_value", fp.RangeValue); err != nil {
			return nil, err
		}
		if err := unit(path+".confidence", fp.Confidence); err != nil {
			return nil, err
		}
		out.Extracted.FingerprintPatches = append(out.Extracted.FingerprintPatches, FingerprintPatch{
			Key:        key,
			RangeValue: *fp.RangeValue,
			Confidence: *fp.Confidence,
		})
	}

	for i, ap := range w.Extracted.ActivityPatternsAdd {
		path := fmt.Sprintf("extracted.activityPatternsAdd[%d]", i)
		if ap.ActivityKey == nil || strings.TrimSpace(*ap.ActivityKey) == "" {
			return nil, schemaErr(path+".activity_key", "required non-empty string")
		}
		if err := unit(path+".confidence", ap.Confidence); err != nil {
			return nil, err
		}
		for k, v := range ap.MotiveWeights {
			if err := unit(path+".motive_weights."+k, &v); err != nil {
				return nil, err
			}
		}
		out.Extracted.ActivityPatternsAdd = append(out.Extracted.ActivityPatternsAdd, ActivityPatternAdd{
			ActivityKey:   *ap.ActivityKey,
			MotiveWeights: ap.MotiveWeights,
			Confidence:    *ap.Confidence,
		})
	}

	if b := w.Extracted.BoundariesPatch; b != nil {
		out.Extracted.BoundariesPatch = &BoundariesPatch{NoThanks: b.NoThanks, Skipped: b.Skipped}
	}

	if p := w.Extracted.PreferencesPatch; p != nil {
		pp := &PreferencesPatch{}
		if g := p.GroupSizePref; g != nil {
			if g.Min == nil || g.Max == nil {
				return nil, schemaErr("extracted.preferencesPatch.group_size_pref", "min and max are required")
			}
			gs := &profile.GroupSize{Min: *g.Min, Max: *g.Max}
			if !gs.Valid() {
				return nil, schemaErr("extracted.preferencesPatch.group_size_pref", "invalid range %d-%d", gs.Min, gs.Max)
			}
			pp.GroupSizePref = gs
		}
		for i, tp := range p.TimePreferences {
			if !slices.Contains(steps.TimePreferences, tp) {
				return nil, schemaErr(fmt.Sprintf("extracted.preferencesPatch.time_preferences[%d]", i), "unknown value %q", tp)
			}
		}
		pp.TimePreferences = p.TimePreferences
		if p.Location != nil {
			pp.Location = strings.TrimSpace(*p.Location)
		}
		out.Extracted.PreferencesPatch = pp
	}

	if n := w.Notes; n != nil {
		if n.NeedsFollowUp == nil {
			return nil, schemaErr("notes.needsFollowUp", "required boolean")
		}
		notes := &Notes{NeedsFollowUp: *n.NeedsFollowUp, FollowUpOptions: n.FollowUpOptions}
		if n.FollowUpQuestion != nil {
			notes.FollowUpQuestion = *n.FollowUpQuestion
		}
		out.Notes = notes
	}

	return out, nil
}

func unit(path string, v *float64) error {
	if v == nil {
		return schemaErr(path, "required number")
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 || *v > 1 {
		return schemaErr(path, "%v outside [0,1]", *v)
	}
	return nil
}
