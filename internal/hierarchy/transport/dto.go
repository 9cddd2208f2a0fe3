// Package transport defines the request/response shapes for the hierarchy
// module. SubLead is the aggregator's output unit; outputs are ephemeral and
// recomputed per call.
package transport

import "time"

// RoleView is a resolved scheduler/closer/handler assignment: always a
// display name, with the directory id attached when one could be resolved.
type RoleView struct {
	ID   *int64 `json:"id,omitempty"`
	Name string `json:"name"`
}

// ContractView is the resolved contract reference attached to a node.
type ContractView struct {
	ID          string     `json:"id"`
	Schema      string     `json:"schema"`
	Status      string     `json:"status"`
	PublicToken string     `json:"public_token,omitempty"`
	SignedAt    *time.Time `json:"signed_at,omitempty"`
}

// SubLead is the unified projection of one hierarchy node.
type SubLead struct {
	ID             string        `json:"id"`
	LeadNumber     string        `json:"lead_number"`
	Name           string        `json:"name"`
	Total          float64       `json:"total"`
	CurrencySymbol string        `json:"currency_symbol"`
	Category       string        `json:"category"`
	Topic          string        `json:"topic"`
	StageID        string        `json:"stage_id"`
	StageName      string        `json:"stage_name"`
	StageColour    string        `json:"stage_colour,omitempty"`
	ContactName    string        `json:"contact_name"`
	ApplicantCount int           `json:"applicant_count"`
	Contract       *ContractView `json:"contract,omitempty"`
	Scheduler      RoleView      `json:"scheduler"`
	Closer         RoleView      `json:"closer"`
	Handler        RoleView      `json:"handler"`
	IsMaster       bool          `json:"is_master"`
	Route          string        `json:"route"`
}

// HierarchyResponse is the ordered master plus sub-lead list. Degraded is
// set when one or more concurrent reference fetches failed and resolution
// proceeded with empty inputs.
type HierarchyResponse struct {
	Master   SubLead   `json:"master"`
	SubLeads []SubLead `json:"sub_leads"`
	Degraded bool      `json:"degraded,omitempty"`
}

// StageResponse is the standalone stage lookup payload.
type StageResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Colour string `json:"colour,omitempty"`
}
