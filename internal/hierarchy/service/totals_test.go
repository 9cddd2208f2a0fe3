package service

import (
	"testing"

	"casedesk_backend/internal/hierarchy/domain"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func TestResolveTotalLegacy(t *testing.T) {
	tests := []struct {
		name string
		lead domain.LeadRecord
		want float64
	}{
		{
			name: "base currency reads total_base",
			lead: domain.LeadRecord{Schema: domain.SchemaLegacy, CurrencyID: i64(1), TotalBase: f64(1000), Total: f64(250)},
			want: 1000,
		},
		{
			name: "absent currency defaults to base",
			lead: domain.LeadRecord{Schema: domain.SchemaLegacy, TotalBase: f64(1000), Total: f64(250)},
			want: 1000,
		},
		{
			name: "foreign currency reads total",
			lead: domain.LeadRecord{Schema: domain.SchemaLegacy, CurrencyID: i64(2), TotalBase: f64(1000), Total: f64(500)},
			want: 500,
		},
		{
			name: "base currency with null total_base does not fall back",
			lead: domain.LeadRecord{Schema: domain.SchemaLegacy, CurrencyID: i64(1), Total: f64(250)},
			want: 0,
		},
		{
			name: "foreign currency with null total does not fall back",
			lead: domain.LeadRecord{Schema: domain.SchemaLegacy, CurrencyID: i64(3), TotalBase: f64(1000)},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveTotal(tt.lead); got != tt.want {
				t.Fatalf("ResolveTotal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveTotalModern(t *testing.T) {
	tests := []struct {
		name string
		lead domain.LeadRecord
		want float64
	}{
		{
			name: "balance wins",
			lead: domain.LeadRecord{Schema: domain.SchemaModern, Balance: f64(750), ProposalTotal: f64(900)},
			want: 750,
		},
		{
			name: "zero balance still wins over proposal",
			lead: domain.LeadRecord{Schema: domain.SchemaModern, Balance: f64(0), ProposalTotal: f64(900)},
			want: 0,
		},
		{
			name: "proposal total when balance null",
			lead: domain.LeadRecord{Schema: domain.SchemaModern, ProposalTotal: f64(900)},
			want: 900,
		},
		{
			name: "both null yields zero",
			lead: domain.LeadRecord{Schema: domain.SchemaModern},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveTotal(tt.lead); got != tt.want {
				t.Fatalf("ResolveTotal = %v, want %v", got, tt.want)
			}
		})
	}
}
