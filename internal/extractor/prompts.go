package extractor

const maxPromptTurns = 8

const systemPrompt = `You extract structured profile signals from one SMS reply in a friendly interview that helps match people into small-group activities.

You receive the question that was asked, the reply, the last few turns of the conversation, and what is already known about the person.

## What to extract
- fingerprintPatches: factors the reply gives real evidence for. Each has key, range_value (0.0-1.0) and confidence (0.0-1.0).
  Allowed keys: connection_depth, social_energy, social_pace, novelty_seeking, structure_preference, humor_style, conversation_style, emotional_directness, adventure_comfort, conflict_tolerance, values_alignment, group_comfort.
- activityPatternsAdd: activities the person named or clearly implied. Each has activity_key (snake_case), motive_weights (connection, novelty, fun, adventure each 0.0-1.0) and confidence.
- boundariesPatch: things they want to avoid (no_thanks) or skipped=true if they declined to say.
- preferencesPatch: group_size_pref {min, max}, time_preferences (morning|afternoon|evening|weekend), location.
- notes: needsFollowUp only when the reply genuinely conflicts with what is known. Include followUpQuestion and followUpOptions when true.

## Confidence Scoring
- High (>0.8): stated directly in the reply
- Medium (0.55-0.8): strongly implied
- Low (<0.55): a guess. Prefer leaving it out.

## Rules
- Echo stepId exactly as given
- Omit anything the reply does not support. Never invent activities
- Keep any text you write plain and warm. No scores, no labels, no promises`

const extractionUserPrompt = `Extract signals from this interview reply.

Input:
---
%s
---

Respond with valid JSON matching this schema:
{
  "stepId": "string",
  "extracted": {
    "fingerprintPatches": [
      {"key": "string", "range_value": 0.0-1.0, "confidence": 0.0-1.0}
    ],
    "activityPatternsAdd": [
      {"activity_key": "string", "motive_weights": {"connection": 0.0-1.0}, "confidence": 0.0-1.0}
    ],
    "boundariesPatch": {"no_thanks": ["string"], "skipped": true|false},
    "preferencesPatch": {"group_size_pref": {"min": 1, "max": 6}, "time_preferences": ["string"], "location": "string"}
  },
  "notes": {"needsFollowUp": true|false, "followUpQuestion": "string", "followUpOptions": ["string"]}
}

Omit boundariesPatch, preferencesPatch and notes when there is nothing to report.
Return ONLY the JSON object, no markdown fences or other text.`
