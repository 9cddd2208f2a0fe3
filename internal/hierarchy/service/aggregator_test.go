package service

import (
	"context"
	"errors"
	"testing"

	"casedesk_backend/internal/hierarchy/domain"
	"casedesk_backend/internal/hierarchy/repository"
	"casedesk_backend/internal/refcache"
	"casedesk_backend/platform/apperr"
	"casedesk_backend/platform/logger"
)

type fakeLeadSource struct {
	schema      domain.Schema
	byNumber    map[string]domain.LeadRecord
	siblings    map[string][]domain.LeadRecord
	contacts    []domain.Contact
	contracts   []domain.Contract
	siblingsErr error
}

func (f *fakeLeadSource) Schema() domain.Schema { return f.schema }

func (f *fakeLeadSource) FetchByNumber(ctx context.Context, number string) (domain.LeadRecord, error) {
	lead, ok := f.byNumber[number]
	if !ok {
		return domain.LeadRecord{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeadSource) FetchSiblings(ctx context.Context, masterRef string) ([]domain.LeadRecord, error) {
	if f.siblingsErr != nil {
		return nil, f.siblingsErr
	}
	return f.siblings[masterRef], nil
}

func (f *fakeLeadSource) FetchContactsForLeads(ctx context.Context, leadIDs []string) ([]domain.Contact, error) {
	return f.contacts, nil
}

func (f *fakeLeadSource) FetchContractsForLeads(ctx context.Context, leadIDs []string) ([]domain.Contract, error) {
	return f.contracts, nil
}

type fakeReference struct {
	categories []domain.Category
	employees  []domain.Employee
}

func (f *fakeReference) FetchEmployees(ctx context.Context) ([]domain.Employee, error) {
	return f.employees, nil
}

func (f *fakeReference) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	return f.categories, nil
}

func (f *fakeReference) FetchCurrencies(ctx context.Context) ([]domain.Currency, error) {
	return []domain.Currency{{ID: 1, Code: "ILS", Symbol: "₪"}, {ID: 2, Code: "USD", Symbol: "$"}}, nil
}

func (f *fakeReference) FetchStageDefinitions(ctx context.Context) ([]domain.StageDefinition, error) {
	return []domain.StageDefinition{{ID: "qualified", Name: "Qualified", Colour: "#2196f3"}}, nil
}

func newAggregator(modern, legacy *fakeLeadSource, ref *fakeReference) *Service {
	log := logger.New("test")
	refs := refcache.New(ref, log)
	return New(modern, legacy, ref, refs, log)
}

func emptySource(schema domain.Schema) *fakeLeadSource {
	return &fakeLeadSource{schema: schema, byNumber: map[string]domain.LeadRecord{}}
}

func TestResolveModernSoloLead(t *testing.T) {
	modern := &fakeLeadSource{
		schema: domain.SchemaModern,
		byNumber: map[string]domain.LeadRecord{
			"A-100": {
				Schema:       domain.SchemaModern,
				ID:           "uuid-1",
				LeadNumber:   "A-100",
				Name:         "Restitution Case",
				StageID:      "qualified",
				Balance:      f64(750),
				CurrencyCode: "USD",
			},
		},
	}
	svc := newAggregator(modern, emptySource(domain.SchemaLegacy), &fakeReference{})

	resp, err := svc.Resolve(context.Background(), "A-100")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resp.Master.LeadNumber != "A-100" {
		t.Fatalf("master number = %q, want stored number unchanged", resp.Master.LeadNumber)
	}
	if len(resp.SubLeads) != 0 {
		t.Fatalf("sub-leads = %d, want 0", len(resp.SubLeads))
	}
	if resp.Master.Total != 750 || resp.Master.CurrencySymbol != "$" {
		t.Fatalf("total/symbol = %v %q", resp.Master.Total, resp.Master.CurrencySymbol)
	}
	if resp.Master.StageName != "Qualified" {
		t.Fatalf("stage name = %q", resp.Master.StageName)
	}
	if resp.Master.Route != "/leads/uuid-1" {
		t.Fatalf("route = %q", resp.Master.Route)
	}
	if resp.Degraded {
		t.Fatal("unexpected degraded flag")
	}
}

func TestResolveModernSlashOneStrategy(t *testing.T) {
	modern := &fakeLeadSource{
		schema: domain.SchemaModern,
		byNumber: map[string]domain.LeadRecord{
			"B-7/1": {Schema: domain.SchemaModern, ID: "uuid-7", LeadNumber: "B-7/1", StageID: "qualified"},
		},
		siblings: map[string][]domain.LeadRecord{
			// Sub-leads reference the base number, not the master's stored
			// "/1" number.
			"B-7": {
				{Schema: domain.SchemaModern, ID: "uuid-8", LeadNumber: "B-7/2", MasterRef: "B-7", StageID: "qualified"},
			},
		},
	}
	svc := newAggregator(modern, emptySource(domain.SchemaLegacy), &fakeReference{})

	resp, err := svc.Resolve(context.Background(), "B-7")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resp.Master.ID != "uuid-7" {
		t.Fatalf("master id = %q, want slash-one match", resp.Master.ID)
	}
	if len(resp.SubLeads) != 1 || resp.SubLeads[0].ID != "uuid-8" {
		t.Fatalf("sub-leads = %+v, want the base-number sibling attached", resp.SubLeads)
	}
	if resp.SubLeads[0].LeadNumber != "B-7/2" {
		t.Fatalf("sub-lead number = %q", resp.SubLeads[0].LeadNumber)
	}
	if resp.Degraded {
		t.Fatal("unexpected degraded flag")
	}
}

func TestResolveLegacyHierarchyNumbering(t *testing.T) {
	legacy := &fakeLeadSource{
		schema: domain.SchemaLegacy,
		byNumber: map[string]domain.LeadRecord{
			"55": {Schema: domain.SchemaLegacy, ID: "55", NumericID: 55, LeadNumber: "55", StageID: "40", CurrencyID: i64(1), TotalBase: f64(1000)},
		},
		siblings: map[string][]domain.LeadRecord{
			"55": {
				// Scrambled insertion order: ordinals must follow primary key.
				{Schema: domain.SchemaLegacy, ID: "81", NumericID: 81, LeadNumber: "81", MasterRef: "55", StageID: "40"},
				{Schema: domain.SchemaLegacy, ID: "80", NumericID: 80, LeadNumber: "80", MasterRef: "55", StageID: "40"},
			},
		},
	}
	svc := newAggregator(emptySource(domain.SchemaModern), legacy, &fakeReference{})

	resp, err := svc.Resolve(context.Background(), "55")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resp.Master.LeadNumber != "55/1" {
		t.Fatalf("master number = %q, want 55/1", resp.Master.LeadNumber)
	}
	if len(resp.SubLeads) != 2 {
		t.Fatalf("sub-leads = %d, want 2", len(resp.SubLeads))
	}
	if resp.SubLeads[0].LeadNumber != "55/2" || resp.SubLeads[1].LeadNumber != "55/3" {
		t.Fatalf("sub-lead numbers = %q, %q", resp.SubLeads[0].LeadNumber, resp.SubLeads[1].LeadNumber)
	}
	if resp.SubLeads[0].ID != "80" {
		t.Fatalf("ordinal 2 assigned to %q, want lowest primary key", resp.SubLeads[0].ID)
	}
	if resp.Master.Route != "/legacy-leads/55" {
		t.Fatalf("route = %q", resp.Master.Route)
	}
	if resp.Master.Total != 1000 {
		t.Fatalf("master total = %v, want total_base", resp.Master.Total)
	}
}

func TestResolveSignedPrefix(t *testing.T) {
	legacy := &fakeLeadSource{
		schema: domain.SchemaLegacy,
		byNumber: map[string]domain.LeadRecord{
			"55": {Schema: domain.SchemaLegacy, ID: "55", NumericID: 55, LeadNumber: "55", StageID: "40"},
		},
		siblings: map[string][]domain.LeadRecord{
			"55": {
				{Schema: domain.SchemaLegacy, ID: "80", NumericID: 80, LeadNumber: "80", MasterRef: "55", StageID: "100"},
			},
		},
	}
	svc := newAggregator(emptySource(domain.SchemaModern), legacy, &fakeReference{})

	resp, err := svc.Resolve(context.Background(), "55")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Stage 40 (In Treatment) carries no prefix; stage 100 (Success) does.
	if resp.Master.LeadNumber != "55/1" {
		t.Fatalf("master number = %q, want unprefixed", resp.Master.LeadNumber)
	}
	if resp.SubLeads[0].LeadNumber != "✓ 55/2" {
		t.Fatalf("signed sub-lead number = %q, want prefix", resp.SubLeads[0].LeadNumber)
	}
	// Ordering still parses through the prefix.
	if got := TailOrdinal(resp.SubLeads[0].LeadNumber); got != 2 {
		t.Fatalf("tail ordinal through prefix = %d", got)
	}
}

func TestResolveDegradedSiblingFetch(t *testing.T) {
	legacy := &fakeLeadSource{
		schema: domain.SchemaLegacy,
		byNumber: map[string]domain.LeadRecord{
			"55": {Schema: domain.SchemaLegacy, ID: "55", NumericID: 55, LeadNumber: "55", StageID: "40"},
		},
		siblingsErr: errors.New("connection reset"),
	}
	svc := newAggregator(emptySource(domain.SchemaModern), legacy, &fakeReference{})

	resp, err := svc.Resolve(context.Background(), "55")
	if err != nil {
		t.Fatalf("Resolve must not fail on sibling fetch errors: %v", err)
	}
	if !resp.Degraded {
		t.Fatal("degraded flag not set")
	}
	// With no sibling information the master presents as a solo lead.
	if resp.Master.LeadNumber != "55" {
		t.Fatalf("master number = %q", resp.Master.LeadNumber)
	}
}

func TestResolveContactAndContract(t *testing.T) {
	legacy := &fakeLeadSource{
		schema: domain.SchemaLegacy,
		byNumber: map[string]domain.LeadRecord{
			"55": {Schema: domain.SchemaLegacy, ID: "55", NumericID: 55, LeadNumber: "55", StageID: "40"},
		},
		contacts: []domain.Contact{
			{ID: "c0", LeadID: "55", Name: "Relative"},
			{ID: "c1", LeadID: "55", Name: "Principal Person", IsMainApplicant: true},
		},
		contracts: []domain.Contract{
			{Schema: domain.SchemaLegacy, ID: "l1", LeadID: "55", ContactID: "c1", SignedContractHTML: "<p>signed</p>"},
		},
	}
	svc := newAggregator(emptySource(domain.SchemaModern), legacy, &fakeReference{})

	resp, err := svc.Resolve(context.Background(), "55")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resp.Master.ContactName != "Principal Person" {
		t.Fatalf("contact name = %q", resp.Master.ContactName)
	}
	if resp.Master.Contract == nil || resp.Master.Contract.ID != "l1" {
		t.Fatalf("contract = %+v", resp.Master.Contract)
	}
	if resp.Master.Contract.Status != "signed" {
		t.Fatalf("contract status = %q", resp.Master.Contract.Status)
	}
	if resp.Master.ApplicantCount != 2 {
		t.Fatalf("applicant count = %d, want contact row fallback", resp.Master.ApplicantCount)
	}
}

func TestResolveRoleViews(t *testing.T) {
	modern := &fakeLeadSource{
		schema: domain.SchemaModern,
		byNumber: map[string]domain.LeadRecord{
			"A-1": {
				Schema:     domain.SchemaModern,
				ID:         "uuid-1",
				LeadNumber: "A-1",
				StageID:    "qualified",
				Scheduler:  domain.RoleRef{EmployeeID: 7, IsID: true},
				Closer:     domain.RoleRef{RawName: "Dana Levi"},
			},
		},
	}
	ref := &fakeReference{employees: []domain.Employee{{ID: 7, Name: "Dana Levi"}}}
	svc := newAggregator(modern, emptySource(domain.SchemaLegacy), ref)

	resp, err := svc.Resolve(context.Background(), "A-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	sched := resp.Master.Scheduler
	if sched.ID == nil || *sched.ID != 7 || sched.Name != "Dana Levi" {
		t.Fatalf("scheduler = %+v", sched)
	}
	closer := resp.Master.Closer
	if closer.Name != "Dana Levi" || closer.ID == nil || *closer.ID != 7 {
		t.Fatalf("closer reverse lookup = %+v", closer)
	}
	if h := resp.Master.Handler; h.ID != nil || h.Name != "" {
		t.Fatalf("empty role = %+v", h)
	}
}

func TestResolveNotFound(t *testing.T) {
	svc := newAggregator(emptySource(domain.SchemaModern), emptySource(domain.SchemaLegacy), &fakeReference{})

	_, err := svc.Resolve(context.Background(), "does-not-exist")
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("error kind = %v, want not found", apperr.GetKind(err))
	}
}
