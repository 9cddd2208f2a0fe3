package service

import (
	"testing"

	"casedesk_backend/internal/hierarchy/domain"
)

func TestResolveContactPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		lead     domain.LeadRecord
		contacts []domain.Contact
		want     ResolvedContact
	}{
		{
			name: "main applicant flag wins",
			contacts: []domain.Contact{
				{ID: "c1", Name: "Spouse Name"},
				{ID: "c2", Name: "Principal Name", IsMainApplicant: true},
			},
			want: ResolvedContact{ID: "c2", Name: "Principal Name"},
		},
		{
			name: "persecuted-person relationship counts as principal",
			contacts: []domain.Contact{
				{ID: "c1", Name: "Child"},
				{ID: "c2", Name: "Survivor", Relationship: "Persecuted_Person"},
			},
			want: ResolvedContact{ID: "c2", Name: "Survivor"},
		},
		{
			name: "first principal in fetch order wins",
			contacts: []domain.Contact{
				{ID: "c1", Name: "First", IsMainApplicant: true},
				{ID: "c2", Name: "Second", IsMainApplicant: true},
			},
			want: ResolvedContact{ID: "c1", Name: "First"},
		},
		{
			name: "extra contacts before lead fallbacks",
			lead: domain.LeadRecord{
				AnchorFullName: "Anchor Person",
				ExtraContacts: []domain.ExtraContact{
					{Name: "  "},
					{Name: "Inline Person"},
				},
			},
			contacts: []domain.Contact{{ID: "c1", Name: "Non-principal"}},
			want:     ResolvedContact{Name: "Inline Person"},
		},
		{
			name: "anchor name before contact name",
			lead: domain.LeadRecord{
				AnchorFullName: "Anchor Person",
				ContactName:    "Contact Field",
			},
			want: ResolvedContact{Name: "Anchor Person"},
		},
		{
			name: "lead name is the last fallback",
			lead: domain.LeadRecord{Name: "The Lead"},
			want: ResolvedContact{Name: "The Lead"},
		},
		{
			name: "placeholder when nothing resolves",
			want: ResolvedContact{Name: "---"},
		},
		{
			name: "principal with blank name still wins, placeholder name",
			contacts: []domain.Contact{
				{ID: "c1", Name: "   ", IsMainApplicant: true},
			},
			lead: domain.LeadRecord{Name: "The Lead"},
			want: ResolvedContact{ID: "c1", Name: "---"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveContact(tt.lead, tt.contacts)
			if got != tt.want {
				t.Fatalf("ResolveContact = %+v, want %+v", got, tt.want)
			}
		})
	}
}
