// Package repository provides data access for the audit trail module: seven
// independent change-log sources, each externally owned and read-only.
package repository

import "time"

// LeadAuditColumns is everything the lead row itself contributes to the
// trail: the synthetic creation event inputs, the per-field last-edited
// column pairs, the stage-change pair, the activation/unactivation pairs and
// the inline manual-interactions JSON.
type LeadAuditColumns struct {
	CreatedAt         time.Time
	CreatorEmployeeID *int64
	WebhookSource     string

	FieldEdits   []FieldEdit
	StageChange  *StageChangePair
	Unactivation *UnactivationPair
	Activation   *ActorPair

	ManualInteractionsJSON []byte
}

// FieldEdit is one per-field last-edited column pair. Only pairs actually
// present on the row are materialized.
type FieldEdit struct {
	Field     string
	ChangedBy string
	ChangedAt time.Time
}

// StageChangePair is the stage-change column pair.
type StageChangePair struct {
	StageID   string
	ChangedBy string
	ChangedAt time.Time
}

// UnactivationPair is the unactivation column triple (reason, actor, time).
type UnactivationPair struct {
	Reason    string
	ChangedBy string
	ChangedAt time.Time
}

// ActorPair is a bare actor/timestamp column pair.
type ActorPair struct {
	ChangedBy string
	ChangedAt time.Time
}

// MessageRow is one email or messaging row; each becomes one interaction
// event.
type MessageRow struct {
	Subject   string
	ChangedBy string
	ChangedAt time.Time
}

// PlanChangeRow is one payment-plan change-log row. Before/After hold the
// JSON-encoded plan values; create and delete rows are rendered as sentences.
type PlanChangeRow struct {
	Action    string
	Before    []byte
	After     []byte
	ChangedBy string
	ChangedAt time.Time
}

// FinanceChangeRow is one finance-change history row.
type FinanceChangeRow struct {
	Field     string
	OldValue  string
	NewValue  string
	ChangedBy string
	ChangedAt time.Time
}

// LeadChangeRow is one generic lead-changes row.
type LeadChangeRow struct {
	Field     string
	OldValue  string
	NewValue  string
	ChangedBy string
	ChangedAt time.Time
}

// StageAuditRow is one employee-joined stage-audit row.
type StageAuditRow struct {
	StageID    string
	EmployeeID *int64
	ChangedBy  string
	ChangedAt  time.Time
}

// User is a user-table row consulted by the batched identity pass for
// changed_by values that are not employee references.
type User struct {
	ID          int64
	Email       string
	FirstName   string
	LastName    string
	DisplayName string
}
