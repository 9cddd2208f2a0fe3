// Package service reconstructs a single chronologically ordered audit trail
// for a lead from seven independent change-log sources.
package service

import "time"

// Kind identifies the nature of an audit event.
type Kind string

const (
	KindEdit          Kind = "edit"
	KindInteraction   Kind = "interaction"
	KindStageChange   Kind = "stage_change"
	KindLeadCreated   Kind = "lead_created"
	KindFinanceChange Kind = "finance_change"
	KindUnactivation  Kind = "unactivation"
	KindActivation    Kind = "activation"
)

// Actor name constants for synthetic events.
const (
	ActorSystem         = "System"
	actorEmployeePrefix = "Employee #"
	actorAutoleadPrefix = "Autolead - "
)

// Event is one reconciled audit trail entry. ChangedBy starts as the raw
// identity string from the source and is replaced by a display name in the
// batched identity pass; unresolved values stay raw rather than erroring.
type Event struct {
	Kind        Kind       `json:"kind"`
	Title       string     `json:"title"`
	Detail      string     `json:"detail,omitempty"`
	Field       string     `json:"field,omitempty"`
	StageID     string     `json:"stage_id,omitempty"`
	StageName   string     `json:"stage_name,omitempty"`
	ChangedBy   string     `json:"changed_by"`
	ChangedByID *int64     `json:"changed_by_id,omitempty"`
	ChangedAt   time.Time  `json:"changed_at"`
}
