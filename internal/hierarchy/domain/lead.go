// Package domain defines the schema-agnostic lead reconciliation model.
// Lead records live in two parallel schema families with incompatible column
// conventions; both lead sources project their rows into the types here so
// that resolution logic never branches on schema beyond the few fields that
// genuinely diverge (ids and monetary columns).
package domain

import (
	"strconv"
	"strings"
)

// Schema identifies which table family a record originates from.
type Schema string

const (
	SchemaModern Schema = "modern"
	SchemaLegacy Schema = "legacy"
)

// LeadRecord is the unified projection of a lead row from either schema.
// Modern rows carry a UUID in ID and zero NumericID; legacy rows carry their
// integer primary key in NumericID and its decimal form in ID.
type LeadRecord struct {
	Schema    Schema
	ID        string
	NumericID int64

	// LeadNumber is the stored display number: the full business number for
	// modern rows, the bare primary key for legacy rows.
	LeadNumber string
	// MasterRef is the master-lead reference this row hangs under, empty for
	// roots. Legacy rows store the master's integer id, modern rows the
	// master's lead number.
	MasterRef string
	// ManualID is the legacy alternate manually assigned identifier.
	ManualID string

	Name       string
	StageID    string
	CategoryID *int64
	Topic      string

	// Monetary fields. Modern rows populate Balance/ProposalTotal and
	// CurrencyCode; legacy rows populate Total/TotalBase and CurrencyID.
	Balance       *float64
	ProposalTotal *float64
	Total         *float64
	TotalBase     *float64
	CurrencyID    *int64
	CurrencyCode  string
	CurrencyName  string

	// Role assignments, each an ambiguous union of directory id or raw name.
	Scheduler RoleRef
	Closer    RoleRef
	Handler   RoleRef

	// Contact fallbacks consulted when no contact row qualifies.
	AnchorFullName     string
	ContactName        string
	PrimaryContactName string
	ExtraContacts      []ExtraContact

	ApplicantCount int
}

// IsRoot reports whether the record has no master reference.
func (l LeadRecord) IsRoot() bool {
	return strings.TrimSpace(l.MasterRef) == ""
}

// ExtraContact is an entry of the inline additional-contacts list some leads
// carry next to their proper contact rows.
type ExtraContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// RoleRef is a scheduler/closer/handler assignment: sometimes an employee
// directory id, sometimes a raw display name, depending on which era of the
// system wrote the row.
type RoleRef struct {
	EmployeeID int64
	RawName    string
	IsID       bool
}

// IsZero reports whether the role field was empty.
func (r RoleRef) IsZero() bool {
	return !r.IsID && r.RawName == ""
}

// ParseRoleRef classifies a raw role column value. A value that parses as a
// positive integer is an employee id; anything else is kept as a name.
func ParseRoleRef(raw string) RoleRef {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return RoleRef{}
	}
	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil && id > 0 {
		return RoleRef{EmployeeID: id, IsID: true}
	}
	return RoleRef{RawName: trimmed}
}
