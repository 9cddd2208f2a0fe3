package domain

import (
	"strings"
	"time"
)

// Contact is a person attached to a lead. A lead may list several people;
// only the principal applicant belongs in hierarchy displays.
type Contact struct {
	ID              string
	LeadID          string
	Name            string
	IsMainApplicant bool
	// Relationship is free text. "persecuted_person" is treated as a
	// main-applicant synonym for historical reasons.
	Relationship string
}

// RelationshipMainApplicant is the legacy free-text marker equivalent to
// IsMainApplicant.
const RelationshipMainApplicant = "persecuted_person"

// IsPrincipal reports whether the contact qualifies as the lead's canonical
// contact candidate.
func (c Contact) IsPrincipal() bool {
	return c.IsMainApplicant || strings.EqualFold(strings.TrimSpace(c.Relationship), RelationshipMainApplicant)
}

// ContractStatus is the resolved signing state of a matched contract.
type ContractStatus string

const (
	ContractStatusSigned ContractStatus = "signed"
	ContractStatusDraft  ContractStatus = "draft"
)

// Contract is a contract row from either schema. Legacy rows carry the
// contract bodies inline as HTML; modern rows are structured references.
type Contract struct {
	Schema    Schema
	ID        string
	LeadID    string
	ContactID string // empty = NULL in source

	// Legacy-only fields.
	ContractHTML       string
	SignedContractHTML string
	PublicToken        string

	SignedAt *time.Time
}

// StageDefinition is a workflow-state reference row.
type StageDefinition struct {
	ID     string
	Name   string
	Colour string
}

// Employee is an employee directory row.
type Employee struct {
	ID    int64
	Name  string
	Email string
}

// Category is a case category reference row, optionally nested under a main
// category.
type Category struct {
	ID         int64
	Name       string
	ParentID   *int64
	ParentName string
}

// DisplayName returns the category label with the parent category appended
// in parentheses when present.
func (c Category) DisplayName() string {
	if c.ParentName == "" {
		return c.Name
	}
	return c.Name + " (" + c.ParentName + ")"
}

// Currency is a currency reference row.
type Currency struct {
	ID     int64
	Code   string
	Name   string
	Symbol string
}
