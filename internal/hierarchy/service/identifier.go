package service

import (
	"sort"
	"strconv"
	"strings"

	"casedesk_backend/internal/hierarchy/domain"
)

// SignedNumberPrefix marks display numbers of leads at the signed/won stage.
const SignedNumberPrefix = "✓ "

// UnknownOrdinalPlaceholder is emitted when a sub-lead carries a master
// reference but no suffix could be determined from its sibling group. Pure
// degraded display; nothing parses it back.
const UnknownOrdinalPlaceholder = "?"

// DefaultCurrencySymbol is the fixed fallback symbol.
const DefaultCurrencySymbol = "₪"

// isoCurrencySymbols maps currency codes to display symbols.
var isoCurrencySymbols = map[string]string{
	"ILS": "₪",
	"NIS": "₪",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "C$",
	"AUD": "A$",
	"JPY": "¥",
}

// legacyCurrencySymbols maps the legacy numeric currency ids. Last-resort
// fallback when neither code nor display name is available.
var legacyCurrencySymbols = map[int64]string{
	1: "₪",
	2: "$",
	3: "€",
	4: "£",
}

// FormatLegacyLeadNumber computes a legacy lead's display number.
//
// A lead with no master reference is a root: its bare id, or "{id}/1" when
// it has sub-leads (the master occupies implicit position 1). A lead with a
// master reference displays "{master}/{suffix}"; when no suffix could be
// determined from inconsistent input, the "?" placeholder stands in.
func FormatLegacyLeadNumber(lead domain.LeadRecord, ordinalSuffix int, hasSubLeads bool) string {
	if lead.IsRoot() {
		if hasSubLeads {
			return lead.LeadNumber + "/1"
		}
		return lead.LeadNumber
	}
	if ordinalSuffix < 2 {
		return lead.MasterRef + "/" + UnknownOrdinalPlaceholder
	}
	return lead.MasterRef + "/" + strconv.Itoa(ordinalSuffix)
}

// SiblingOrdinals assigns ordinal suffixes to a sibling group: ascending
// primary key order, starting at 2. For any input ordering the result is
// exactly the sequence 2..n+1 with no gaps or duplicates.
func SiblingOrdinals(siblings []domain.LeadRecord) map[int64]int {
	ids := make([]int64, 0, len(siblings))
	for _, s := range siblings {
		ids = append(ids, s.NumericID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ordinals := make(map[int64]int, len(ids))
	for i, id := range ids {
		ordinals[id] = i + 2
	}
	return ordinals
}

// CurrencySymbolFor resolves a display symbol: the explicit code table, then
// the currency display name, then the numeric legacy id table, then the
// fixed default.
func CurrencySymbolFor(code, name string, legacyID *int64) string {
	if sym, ok := isoCurrencySymbols[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return sym
	}
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	if legacyID != nil {
		if sym, ok := legacyCurrencySymbols[*legacyID]; ok {
			return sym
		}
	}
	return DefaultCurrencySymbol
}

// MarkSigned prepends the signed-status prefix to a display number.
func MarkSigned(number string) string {
	return SignedNumberPrefix + number
}

// StripSignedPrefix removes a leading signed-status prefix, if present.
func StripSignedPrefix(number string) string {
	return strings.TrimPrefix(number, SignedNumberPrefix)
}

// TailOrdinal parses the numeric ordinal from the tail of a display lead
// number, after any signed prefix has been stripped. Returns 0 when the
// number has no parsable ordinal (including the "?" placeholder).
func TailOrdinal(number string) int {
	stripped := StripSignedPrefix(number)
	i := strings.LastIndexByte(stripped, '/')
	if i < 0 || i+1 >= len(stripped) {
		return 0
	}
	ordinal, err := strconv.Atoi(stripped[i+1:])
	if err != nil {
		return 0
	}
	return ordinal
}
