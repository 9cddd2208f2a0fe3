// Package transport defines the request/response DTOs for the audit module.
package transport

import "casedesk_backend/internal/audit/service"

// AuditTrailResponse wraps the reconciled event list for a single lead.
type AuditTrailResponse struct {
	LeadNumber string          `json:"lead_number"`
	Events     []service.Event `json:"events"`
}
