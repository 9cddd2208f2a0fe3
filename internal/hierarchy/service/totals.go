package service

import "casedesk_backend/internal/hierarchy/domain"

// legacyCurrencyILS is the legacy currency id whose amounts live in the
// base-currency column.
const legacyCurrencyILS int64 = 1

// ResolveTotal computes a lead's currency-normalized total.
//
// Legacy schema: currency id 1 (the default when absent) reads total_base,
// any other currency reads total; neither falls back to the other column.
// Modern schema: balance when present, else proposal total, else zero.
func ResolveTotal(lead domain.LeadRecord) float64 {
	if lead.Schema == domain.SchemaLegacy {
		currencyID := legacyCurrencyILS
		if lead.CurrencyID != nil {
			currencyID = *lead.CurrencyID
		}
		if currencyID == legacyCurrencyILS {
			if lead.TotalBase != nil {
				return *lead.TotalBase
			}
			return 0
		}
		if lead.Total != nil {
			return *lead.Total
		}
		return 0
	}

	if lead.Balance != nil {
		return *lead.Balance
	}
	if lead.ProposalTotal != nil {
		return *lead.ProposalTotal
	}
	return 0
}
