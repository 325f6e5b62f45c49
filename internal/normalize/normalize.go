// Package normalize converts semi-structured worker output persisted on an
// evaluation row into the strongly-typed report shape. Every field has a
// named coercion function with an explicit fallback branch; a malformed
// field degrades to an empty collection and never fails the read.
package normalize

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"github.com/gradebench/gradebench/internal/domain/model"
)

var (
	categoryScoresSchema = jsonschema.MustCompileString("category_scores.json", `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["category", "score"],
			"properties": {
				"category": {"type": "string", "minLength": 1},
				"score": {"type": "number"}
			}
		}
	}`)

	actionItemsSchema = jsonschema.MustCompileString("action_items.json", `{
		"type": "array",
		"items": {
			"type": "object",
			"required": ["title"],
			"properties": {
				"title": {"type": "string", "minLength": 1},
				"detail": {"type": "string"},
				"priority": {"type": "string"}
			}
		}
	}`)

	stringListSchema = jsonschema.MustCompileString("string_list.json", `{
		"type": "array",
		"items": {"type": "string"}
	}`)
)

// validate decodes raw JSON and checks it against a compiled schema.
// Returns the decoded value and whether it conforms.
func validate(schema *jsonschema.Schema, raw json.RawMessage) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	if err := schema.Validate(v); err != nil {
		return nil, false
	}
	return v, true
}

// CategoryScores coerces the stored category_scores field. The second return
// value reports whether the stored value conformed; on failure the result is
// an empty, non-nil slice.
func CategoryScores(raw json.RawMessage) ([]model.CategoryScore, bool) {
	if _, ok := validate(categoryScoresSchema, raw); !ok {
		return []model.CategoryScore{}, false
	}
	var scores []model.CategoryScore
	if err := json.Unmarshal(raw, &scores); err != nil || scores == nil {
		return []model.CategoryScore{}, false
	}
	return scores, true
}

// StringList coerces a stored string-list field (strengths, risks, notes).
func StringList(raw json.RawMessage) ([]string, bool) {
	if _, ok := validate(stringListSchema, raw); !ok {
		return []string{}, false
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		return []string{}, false
	}
	return list, true
}

// ActionItemsSource names which branch produced the action items.
type ActionItemsSource int

const (
	// SourceEmpty means neither representation parsed; the list is empty.
	SourceEmpty ActionItemsSource = iota
	// SourceModern means the stored value matched the current schema.
	SourceModern
	// SourceLegacy means the stored value was recovered from the old
	// per-feedback-item shape.
	SourceLegacy
)

// ActionItems coerces the stored action_items field. The current schema is
// tried first; on mismatch the legacy per-feedback-item shape is recovered
// element by element, with unknown priorities clamped to P2. Only when both
// representations fail does the field degrade to empty.
func ActionItems(raw json.RawMessage) ([]model.ActionItem, ActionItemsSource) {
	if _, ok := validate(actionItemsSchema, raw); ok {
		var items []model.ActionItem
		if err := json.Unmarshal(raw, &items); err == nil && items != nil {
			for i := range items {
				items[i].Priority = model.ClampPriority(string(items[i].Priority))
			}
			return items, SourceModern
		}
	}
	if items := legacyActionItems(raw); len(items) > 0 {
		return items, SourceLegacy
	}
	return []model.ActionItem{}, SourceEmpty
}

// legacyActionItems extracts action items from the historical feedback-item
// array: `[{"feedback": "...", "details": "...", "priority": "p1"}, ...]`,
// tolerating the field aliases older workers emitted.
func legacyActionItems(raw json.RawMessage) []model.ActionItem {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		return nil
	}

	var items []model.ActionItem
	parsed.ForEach(func(_, elem gjson.Result) bool {
		if !elem.IsObject() {
			return true
		}
		title := firstString(elem, "feedback", "text", "message", "title")
		if title == "" {
			return true
		}
		items = append(items, model.ActionItem{
			Title:    title,
			Detail:   firstString(elem, "details", "detail"),
			Priority: model.ClampPriority(firstString(elem, "priority", "severity")),
		})
		return true
	})
	return items
}

func firstString(elem gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := elem.Get(key); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// Status coerces a stored status into the closed enum. An unrecognized value
// degrades to failed on read; this is defensive normalization, not a state
// transition, and nothing is written back.
func Status(s model.EvaluationStatus) model.EvaluationStatus {
	if s.Valid() {
		return s
	}
	return model.StatusFailed
}

// Report produces the typed view of an evaluation row. When no overall score
// was stored but category scores parsed, the overall score is their mean.
func Report(ev *model.Evaluation) model.Report {
	scores, _ := CategoryScores(ev.CategoryScores)
	items, _ := ActionItems(ev.ActionItems)
	strengths, _ := StringList(ev.Strengths)
	risks, _ := StringList(ev.Risks)
	notes, _ := StringList(ev.Notes)

	overall := ev.OverallScore
	if overall == nil && len(scores) > 0 {
		var sum float64
		for _, cs := range scores {
			sum += cs.Score
		}
		mean := sum / float64(len(scores))
		overall = &mean
	}

	var summary string
	if ev.Summary != nil {
		summary = *ev.Summary
	}

	return model.Report{
		ID:        ev.ID,
		VersionID: ev.VersionID,
		ProjectID: ev.ProjectID,
		Kind:      ev.Kind,
		Status:    Status(ev.Status),

		QueuedAt:      ev.QueuedAt,
		StartedAt:     ev.StartedAt,
		CompletedAt:   ev.CompletedAt,
		FailureReason: ev.FailureReason,

		OverallScore:   overall,
		Summary:        summary,
		CategoryScores: scores,
		ActionItems:    items,
		Strengths:      strengths,
		Risks:          risks,
		Notes:          notes,
	}
}
