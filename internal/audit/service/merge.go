package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"casedesk_backend/internal/audit/repository"
)

// Sources bundles the raw rows of all seven audit sources for one lead.
type Sources struct {
	Lead           repository.LeadAuditColumns
	Emails         []repository.MessageRow
	Messages       []repository.MessageRow
	PlanChanges    []repository.PlanChangeRow
	FinanceChanges []repository.FinanceChangeRow
	LeadChanges    []repository.LeadChangeRow
	StageAudit     []repository.StageAuditRow
}

// Merge flattens all sources into a single event list sorted ascending by
// timestamp. The sort is stable, so same-timestamp events keep their
// source-scan order; that order is not semantically significant. Identity
// resolution is a separate pass (see ResolveIdentities). The now argument
// substitutes for unparsable timestamps so malformed rows are retained
// rather than dropped.
func Merge(src Sources, now time.Time) []Event {
	events := make([]Event, 0, 16)

	events = append(events, creationEvent(src.Lead, now))

	for _, edit := range src.Lead.FieldEdits {
		events = append(events, Event{
			Kind:      KindEdit,
			Title:     "Field updated",
			Field:     edit.Field,
			ChangedBy: edit.ChangedBy,
			ChangedAt: normalizeTime(edit.ChangedAt, now),
		})
	}

	if sc := src.Lead.StageChange; sc != nil {
		events = append(events, Event{
			Kind:      KindStageChange,
			Title:     "Stage changed",
			StageID:   sc.StageID,
			ChangedBy: sc.ChangedBy,
			ChangedAt: normalizeTime(sc.ChangedAt, now),
		})
	}

	if un := src.Lead.Unactivation; un != nil {
		events = append(events, Event{
			Kind:      KindUnactivation,
			Title:     "Lead unactivated",
			Detail:    un.Reason,
			ChangedBy: un.ChangedBy,
			ChangedAt: normalizeTime(un.ChangedAt, now),
		})
	}

	if act := src.Lead.Activation; act != nil {
		events = append(events, Event{
			Kind:      KindActivation,
			Title:     "Lead activated",
			ChangedBy: act.ChangedBy,
			ChangedAt: normalizeTime(act.ChangedAt, now),
		})
	}

	events = append(events, manualInteractionEvents(src.Lead.ManualInteractionsJSON, now)...)

	for _, m := range src.Emails {
		events = append(events, Event{
			Kind:      KindInteraction,
			Title:     "Email",
			Detail:    m.Subject,
			ChangedBy: m.ChangedBy,
			ChangedAt: normalizeTime(m.ChangedAt, now),
		})
	}
	for _, m := range src.Messages {
		events = append(events, Event{
			Kind:      KindInteraction,
			Title:     "Message",
			Detail:    m.Subject,
			ChangedBy: m.ChangedBy,
			ChangedAt: normalizeTime(m.ChangedAt, now),
		})
	}

	for _, p := range src.PlanChanges {
		events = append(events, planChangeEvent(p, now))
	}

	for _, f := range src.FinanceChanges {
		events = append(events, Event{
			Kind:      KindFinanceChange,
			Title:     "Finance updated",
			Field:     f.Field,
			Detail:    changeDetail(f.OldValue, f.NewValue),
			ChangedBy: f.ChangedBy,
			ChangedAt: normalizeTime(f.ChangedAt, now),
		})
	}

	for _, l := range src.LeadChanges {
		events = append(events, Event{
			Kind:      KindEdit,
			Title:     "Field updated",
			Field:     l.Field,
			Detail:    changeDetail(l.OldValue, l.NewValue),
			ChangedBy: l.ChangedBy,
			ChangedAt: normalizeTime(l.ChangedAt, now),
		})
	}

	for _, s := range src.StageAudit {
		ev := Event{
			Kind:      KindStageChange,
			Title:     "Stage changed",
			StageID:   s.StageID,
			ChangedBy: s.ChangedBy,
			ChangedAt: normalizeTime(s.ChangedAt, now),
		}
		if s.EmployeeID != nil {
			id := *s.EmployeeID
			ev.ChangedByID = &id
			if ev.ChangedBy == "" {
				ev.ChangedBy = fmt.Sprintf("%s%d", actorEmployeePrefix, id)
			}
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ChangedAt.Before(events[j].ChangedAt)
	})

	return events
}

// creationEvent synthesizes the lead-created event. Actor precedence:
// webhook-derived source, creator employee id, plain "System".
func creationEvent(lead repository.LeadAuditColumns, now time.Time) Event {
	actor := ActorSystem
	switch {
	case lead.WebhookSource != "":
		actor = actorAutoleadPrefix + lead.WebhookSource
	case lead.CreatorEmployeeID != nil:
		actor = fmt.Sprintf("%s%d", actorEmployeePrefix, *lead.CreatorEmployeeID)
	}

	ev := Event{
		Kind:      KindLeadCreated,
		Title:     "Lead created",
		ChangedBy: actor,
		ChangedAt: normalizeTime(lead.CreatedAt, now),
	}
	if lead.WebhookSource == "" && lead.CreatorEmployeeID != nil {
		id := *lead.CreatorEmployeeID
		ev.ChangedByID = &id
	}
	return ev
}

// manualInteraction is the normalized shape of one free-form inline
// interaction entry. The source JSON is tolerant of several historical key
// spellings, handled in UnmarshalJSON.
type manualInteraction struct {
	Text      string
	ChangedBy string
	ChangedAt string
}

func (m *manualInteraction) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Text = firstString(raw, "text", "note", "description", "comment")
	m.ChangedBy = firstString(raw, "changed_by", "by", "user", "author")
	m.ChangedAt = firstString(raw, "changed_at", "date", "created_at", "at")
	return nil
}

func manualInteractionEvents(rawJSON []byte, now time.Time) []Event {
	if len(rawJSON) == 0 {
		return nil
	}
	var entries []manualInteraction
	if err := json.Unmarshal(rawJSON, &entries); err != nil {
		return nil
	}

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		if entry.Text == "" && entry.ChangedBy == "" && entry.ChangedAt == "" {
			continue
		}
		events = append(events, Event{
			Kind:      KindInteraction,
			Title:     "Manual interaction",
			Detail:    entry.Text,
			ChangedBy: entry.ChangedBy,
			ChangedAt: parseTimestamp(entry.ChangedAt, now),
		})
	}
	return events
}

// planChangeEvent shapes one payment-plan change-log row. Create and delete
// rows render the JSON-encoded plan value as a sentence; other actions keep
// a plain before/after detail.
func planChangeEvent(p repository.PlanChangeRow, now time.Time) Event {
	ev := Event{
		Kind:      KindFinanceChange,
		ChangedBy: p.ChangedBy,
		ChangedAt: normalizeTime(p.ChangedAt, now),
	}

	switch strings.ToLower(strings.TrimSpace(p.Action)) {
	case "create", "created":
		ev.Title = "Payment plan created"
		ev.Detail = renderPlanSentence(p.After)
	case "delete", "deleted":
		ev.Title = "Payment plan deleted"
		ev.Detail = renderPlanSentence(p.Before)
	default:
		ev.Title = "Payment plan updated"
		ev.Detail = changeDetail(renderPlanSentence(p.Before), renderPlanSentence(p.After))
	}
	return ev
}

// renderPlanSentence turns a JSON-encoded plan value into a readable
// "field: value" sentence with deterministic key order.
func renderPlanSentence(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var value map[string]any
	if err := json.Unmarshal(raw, &value); err != nil {
		return strings.TrimSpace(string(raw))
	}

	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", strings.ReplaceAll(k, "_", " "), value[k]))
	}
	return strings.Join(parts, ", ")
}

func changeDetail(oldValue, newValue string) string {
	if oldValue == "" && newValue == "" {
		return ""
	}
	return fmt.Sprintf("%s -> %s", emptyDash(oldValue), emptyDash(newValue))
}

func emptyDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// timestampLayouts are the formats manual interaction entries have been
// observed to carry.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// parseTimestamp parses a raw timestamp string, substituting now for
// unparsable input so the event is retained.
func parseTimestamp(raw string, now time.Time) time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return now
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t
		}
	}
	return now
}

// normalizeTime substitutes now for zero timestamps scanned from null or
// corrupt columns.
func normalizeTime(t time.Time, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
