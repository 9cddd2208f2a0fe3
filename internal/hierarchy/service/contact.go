package service

import (
	"strings"

	"casedesk_backend/internal/hierarchy/domain"
)

// ContactPlaceholder is displayed when no contact name can be resolved.
const ContactPlaceholder = "---"

// ResolvedContact is the canonical contact picked for a lead. ID is empty
// when the name came from an inline list or a lead-level fallback field
// rather than a proper contact row.
type ResolvedContact struct {
	ID   string
	Name string
}

// ResolveContact picks the single canonical contact for a lead from its
// candidate rows. First match wins:
//
//  1. a contact row flagged main applicant, or whose relationship is the
//     persecuted-person synonym, first in original fetch order;
//  2. the first inline additional-contact entry with a non-empty name;
//  3. lead-level fallback fields, in fixed order;
//  4. the "---" placeholder.
//
// A lead may list several people; only the principal applicant's name
// belongs in hierarchy displays.
func ResolveContact(lead domain.LeadRecord, contacts []domain.Contact) ResolvedContact {
	for _, c := range contacts {
		if c.IsPrincipal() {
			return ResolvedContact{ID: c.ID, Name: displayName(c.Name)}
		}
	}

	for _, extra := range lead.ExtraContacts {
		if name := strings.TrimSpace(extra.Name); name != "" {
			return ResolvedContact{Name: name}
		}
	}

	for _, fallback := range []string{
		lead.AnchorFullName,
		lead.ContactName,
		lead.PrimaryContactName,
		lead.Name,
	} {
		if name := strings.TrimSpace(fallback); name != "" {
			return ResolvedContact{Name: name}
		}
	}

	return ResolvedContact{Name: ContactPlaceholder}
}

func displayName(name string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return ContactPlaceholder
}
