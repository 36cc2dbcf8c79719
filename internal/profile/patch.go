package profile

import "time"

// Patch is the full set of profile fields a turn rewrites. It is produced by
// the patch builder and applied by the persistence layer.
type Patch struct {
	Fingerprint         map[FactorKey]FactorValue `json:"fingerprint"`
	ActivityPatterns    []ActivityPattern         `json:"activity_patterns"`
	Boundaries          Boundaries                `json:"boundaries"`
	Preferences         Preferences               `json:"preferences"`
	ActiveIntent        *ActiveIntent             `json:"active_intent,omitempty"`
	State               State                     `json:"state"`
	IsCompleteMVP       bool                      `json:"is_complete_mvp"`
	CompletenessPercent int                       `json:"completeness_percent"`
	CompletedAt         *time.Time                `json:"completed_at,omitempty"`
}

// PatchFrom captures the mutable fields of p.
func PatchFrom(p Profile) Patch {
	c := p.Clone()
	return Patch{
		Fingerprint:         c.Fingerprint,
		ActivityPatterns:    c.ActivityPatterns,
		Boundaries:          c.Boundaries,
		Preferences:         c.Preferences,
		ActiveIntent:        c.ActiveIntent,
		State:               c.State,
		IsCompleteMVP:       c.IsCompleteMVP,
		CompletenessPercent: c.CompletenessPercent,
		CompletedAt:         c.CompletedAt,
	}
}

// Apply returns a copy of p with the patch applied. p is not modified.
func (pt Patch) Apply(p Profile) Profile {
	out := Profile{
		UserID:              p.UserID,
		State:               pt.State,
		IsCompleteMVP:       pt.IsCompleteMVP,
		CompletenessPercent: pt.CompletenessPercent,
		CompletedAt:         pt.CompletedAt,
		Fingerprint:         pt.Fingerprint,
		ActivityPatterns:    pt.ActivityPatterns,
		Boundaries:          pt.Boundaries,
		Preferences:         pt.Preferences,
		ActiveIntent:        pt.ActiveIntent,
	}
	return out.Clone()
}
