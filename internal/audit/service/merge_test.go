package service

import (
	"testing"
	"time"

	"casedesk_backend/internal/audit/repository"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func at(day int) time.Time {
	return time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC)
}

func TestMergeSortsAscending(t *testing.T) {
	src := Sources{
		Lead: repository.LeadAuditColumns{CreatedAt: at(1)},
		Emails: []repository.MessageRow{
			{Subject: "Third", ChangedAt: at(9)},
		},
		LeadChanges: []repository.LeadChangeRow{
			{Field: "notes", OldValue: "a", NewValue: "b", ChangedAt: at(3)},
		},
		StageAudit: []repository.StageAuditRow{
			{StageID: "40", ChangedBy: "Dana", ChangedAt: at(6)},
		},
	}

	events := Merge(src, testNow)

	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].ChangedAt.Before(events[i-1].ChangedAt) {
			t.Fatalf("events out of order at %d: %v before %v", i, events[i].ChangedAt, events[i-1].ChangedAt)
		}
	}
	if events[0].Kind != KindLeadCreated {
		t.Fatalf("first event kind = %q, want creation", events[0].Kind)
	}
	if events[3].Title != "Email" {
		t.Fatalf("last event = %q, want latest email", events[3].Title)
	}
}

func TestMergeCreationActorPrecedence(t *testing.T) {
	seven := int64(7)

	tests := []struct {
		name     string
		lead     repository.LeadAuditColumns
		wantBy   string
		wantByID bool
	}{
		{
			name:   "webhook source wins",
			lead:   repository.LeadAuditColumns{CreatedAt: at(1), WebhookSource: "facebook", CreatorEmployeeID: &seven},
			wantBy: "Autolead - facebook",
		},
		{
			name:     "employee id without webhook",
			lead:     repository.LeadAuditColumns{CreatedAt: at(1), CreatorEmployeeID: &seven},
			wantBy:   "Employee #7",
			wantByID: true,
		},
		{
			name:   "system fallback",
			lead:   repository.LeadAuditColumns{CreatedAt: at(1)},
			wantBy: "System",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Merge(Sources{Lead: tt.lead}, testNow)
			created := events[0]
			if created.ChangedBy != tt.wantBy {
				t.Fatalf("ChangedBy = %q, want %q", created.ChangedBy, tt.wantBy)
			}
			if (created.ChangedByID != nil) != tt.wantByID {
				t.Fatalf("ChangedByID presence = %v, want %v", created.ChangedByID != nil, tt.wantByID)
			}
		})
	}
}

func TestMergeRetainsMalformedTimestamps(t *testing.T) {
	src := Sources{
		Lead: repository.LeadAuditColumns{
			CreatedAt: at(1),
			ManualInteractionsJSON: []byte(`[
				{"text": "called back", "by": "Dana", "date": "not-a-date"},
				{"note": "left voicemail", "changed_by": "Yossi", "changed_at": "2024-03-05 09:30:00"}
			]`),
		},
	}

	events := Merge(src, testNow)
	if len(events) != 3 {
		t.Fatalf("got %d events, want creation + 2 interactions", len(events))
	}

	var malformed, parsed *Event
	for i := range events {
		switch events[i].Detail {
		case "called back":
			malformed = &events[i]
		case "left voicemail":
			parsed = &events[i]
		}
	}
	if malformed == nil || parsed == nil {
		t.Fatalf("interactions missing from %+v", events)
	}
	if !malformed.ChangedAt.Equal(testNow) {
		t.Fatalf("malformed timestamp = %v, want substitution with now", malformed.ChangedAt)
	}
	if parsed.ChangedAt != time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC) {
		t.Fatalf("parsed timestamp = %v", parsed.ChangedAt)
	}
}

func TestMergeManualInteractionKeySpellings(t *testing.T) {
	src := Sources{
		Lead: repository.LeadAuditColumns{
			CreatedAt:              at(1),
			ManualInteractionsJSON: []byte(`[{"comment": "spoke with client", "author": "Dana", "at": "2024-03-02"}]`),
		},
	}

	events := Merge(src, testNow)
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	interaction := events[1]
	if interaction.Detail != "spoke with client" || interaction.ChangedBy != "Dana" {
		t.Fatalf("interaction = %+v", interaction)
	}
}

func TestMergeSkipsCorruptInteractionsJSON(t *testing.T) {
	src := Sources{
		Lead: repository.LeadAuditColumns{
			CreatedAt:              at(1),
			ManualInteractionsJSON: []byte(`{not json`),
		},
	}
	if events := Merge(src, testNow); len(events) != 1 {
		t.Fatalf("corrupt JSON should contribute nothing, got %d events", len(events))
	}
}

func TestMergePlanChangeSentences(t *testing.T) {
	src := Sources{
		Lead: repository.LeadAuditColumns{CreatedAt: at(1)},
		PlanChanges: []repository.PlanChangeRow{
			{Action: "create", After: []byte(`{"monthly_amount": 500, "installments": 12}`), ChangedBy: "Dana", ChangedAt: at(2)},
			{Action: "delete", Before: []byte(`{"monthly_amount": 500}`), ChangedBy: "Dana", ChangedAt: at(3)},
		},
	}

	events := Merge(src, testNow)
	if len(events) != 3 {
		t.Fatalf("got %d events", len(events))
	}

	created := events[1]
	if created.Title != "Payment plan created" {
		t.Fatalf("title = %q", created.Title)
	}
	if created.Detail != "installments: 12, monthly amount: 500" {
		t.Fatalf("detail = %q", created.Detail)
	}

	deleted := events[2]
	if deleted.Title != "Payment plan deleted" || deleted.Detail != "monthly amount: 500" {
		t.Fatalf("deleted = %+v", deleted)
	}
}

func TestMergeChangeDetail(t *testing.T) {
	src := Sources{
		Lead: repository.LeadAuditColumns{CreatedAt: at(1)},
		FinanceChanges: []repository.FinanceChangeRow{
			{Field: "total", OldValue: "", NewValue: "1000", ChangedAt: at(2)},
		},
	}

	events := Merge(src, testNow)
	if events[1].Detail != "- -> 1000" {
		t.Fatalf("detail = %q", events[1].Detail)
	}
}

func TestMergeStageAuditSynthesizesEmployeeRef(t *testing.T) {
	seven := int64(7)
	src := Sources{
		Lead: repository.LeadAuditColumns{CreatedAt: at(1)},
		StageAudit: []repository.StageAuditRow{
			{StageID: "100", EmployeeID: &seven, ChangedAt: at(2)},
		},
	}

	events := Merge(src, testNow)
	stage := events[1]
	if stage.ChangedBy != "Employee #7" {
		t.Fatalf("ChangedBy = %q", stage.ChangedBy)
	}
	if stage.ChangedByID == nil || *stage.ChangedByID != 7 {
		t.Fatalf("ChangedByID = %v", stage.ChangedByID)
	}
	if stage.StageID != "100" {
		t.Fatalf("StageID = %q", stage.StageID)
	}
}
