package service

import (
	"strings"

	"casedesk_backend/internal/hierarchy/domain"
)

// contractNullPlaceholder is the literal backslash-N some legacy exports
// wrote into contract columns instead of a SQL NULL.
const contractNullPlaceholder = `\N`

// MatchedContract is the single contract resolved for a node.
type MatchedContract struct {
	Contract domain.Contract
	Status   domain.ContractStatus
}

// MatchContract finds the one contract that truly belongs to a lead's
// canonical contact. Two passes in precedence order: legacy inline-HTML
// contracts win over modern structured rows when both exist for the same
// lead. Per schema, a contract qualifies only if its contact id equals the
// canonical contact id; a null contact id with a resolved canonical contact
// is assigned anyway (historical gap). A contract is never assigned to a
// non-canonical contact. First assignment wins; later candidates are
// discarded.
func MatchContract(lead domain.LeadRecord, canonicalContactID string, contracts []domain.Contract) *MatchedContract {
	if canonicalContactID == "" {
		return nil
	}

	for _, c := range contracts {
		if c.Schema != domain.SchemaLegacy || c.LeadID != lead.ID {
			continue
		}
		if !legacyContractHasContent(c) {
			continue
		}
		if !contactMatches(c, canonicalContactID) {
			continue
		}
		return &MatchedContract{Contract: c, Status: legacyContractStatus(c)}
	}

	for _, c := range contracts {
		if c.Schema != domain.SchemaModern || c.LeadID != lead.ID {
			continue
		}
		if !contactMatches(c, canonicalContactID) {
			continue
		}
		status := domain.ContractStatusDraft
		if c.SignedAt != nil {
			status = domain.ContractStatusSigned
		}
		return &MatchedContract{Contract: c, Status: status}
	}

	return nil
}

func contactMatches(c domain.Contract, canonicalContactID string) bool {
	if c.ContactID == "" {
		// Historical gap: legacy rows predating the contact link.
		return true
	}
	return c.ContactID == canonicalContactID
}

// legacyContractHasContent reports whether either contract body passes the
// content predicate: non-null, not the backslash-N placeholder, and
// non-blank after trimming.
func legacyContractHasContent(c domain.Contract) bool {
	return contractFieldHasContent(c.ContractHTML) || contractFieldHasContent(c.SignedContractHTML)
}

func legacyContractStatus(c domain.Contract) domain.ContractStatus {
	if contractFieldHasContent(c.SignedContractHTML) {
		return domain.ContractStatusSigned
	}
	return domain.ContractStatusDraft
}

func contractFieldHasContent(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed != "" && trimmed != contractNullPlaceholder
}
