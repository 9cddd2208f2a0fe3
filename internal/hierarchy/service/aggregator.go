// Package service contains the lead hierarchy resolution logic: schema
// detection, concurrent reference fan-out, per-node contact/contract/total
// resolution and display numbering.
package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"casedesk_backend/internal/hierarchy/domain"
	"casedesk_backend/internal/hierarchy/repository"
	"casedesk_backend/internal/hierarchy/transport"
	"casedesk_backend/internal/refcache"
	"casedesk_backend/platform/apperr"
	"casedesk_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Service orchestrates hierarchy resolution across both lead sources.
type Service struct {
	modern    repository.LeadSource
	legacy    repository.LeadSource
	reference repository.ReferenceSource
	refs      *refcache.Cache
	log       *logger.Logger
}

// New creates the hierarchy aggregation service.
func New(modern, legacy repository.LeadSource, reference repository.ReferenceSource, refs *refcache.Cache, log *logger.Logger) *Service {
	return &Service{
		modern:    modern,
		legacy:    legacy,
		reference: reference,
		refs:      refs,
		log:       log,
	}
}

// Detect locates the owning schema for a base lead number. Strategies in
// order: exact modern match, modern match with an appended "/1", legacy
// primary key extracted from the number, legacy manual id. Exhausting all
// four yields a NotFound error.
func (s *Service) Detect(ctx context.Context, leadNumber string) (domain.LeadRecord, repository.LeadSource, error) {
	lead, err := s.modern.FetchByNumber(ctx, leadNumber)
	if err == nil {
		return lead, s.modern, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.LeadRecord{}, nil, err
	}

	lead, err = s.modern.FetchByNumber(ctx, leadNumber+"/1")
	if err == nil {
		return lead, s.modern, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.LeadRecord{}, nil, err
	}

	// The legacy source tries the numeric primary key, then the manual id.
	lead, err = s.legacy.FetchByNumber(ctx, leadNumber)
	if err == nil {
		return lead, s.legacy, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.LeadRecord{}, nil, err
	}

	return domain.LeadRecord{}, nil, repository.ErrNotFound
}

// Resolve builds the ordered master plus sub-lead list for a base lead
// number. Partial reference fetch failures degrade to empty collections and
// set the Degraded flag; only an unmatched base number yields NotFound.
func (s *Service) Resolve(ctx context.Context, leadNumber string) (transport.HierarchyResponse, error) {
	master, source, err := s.Detect(ctx, leadNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.HierarchyResponse{}, apperr.NotFound("lead not found").WithOp("hierarchy.Resolve")
		}
		return transport.HierarchyResponse{}, apperr.Wrap(apperr.KindInternal, "lead lookup failed", err).WithOp("hierarchy.Resolve")
	}

	// Modern sub-leads reference the caller-supplied base number, not the
	// master's stored number: a master renumbered to "{base}/1" still keys
	// its group by the base. Legacy rows reference the master's integer id.
	masterRef := leadNumber
	if source.Schema() == domain.SchemaLegacy {
		masterRef = master.ID
	}

	var (
		mu         sync.Mutex
		degraded   bool
		siblings   []domain.LeadRecord
		categories map[int64]domain.Category
	)
	markDegraded := func(fetch string, err error) {
		s.log.DegradedFetch(fetch, err)
		mu.Lock()
		degraded = true
		mu.Unlock()
	}

	// Wave one: siblings plus all reference data, joined before any
	// resolution logic runs. A failed fetch degrades to an empty collection.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := source.FetchSiblings(gctx, masterRef)
		if err != nil {
			markDegraded("hierarchy.siblings", err)
			rows = nil
		}
		siblings = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.reference.FetchCategories(gctx)
		if err != nil {
			markDegraded("hierarchy.categories", err)
			rows = nil
		}
		index := make(map[int64]domain.Category, len(rows))
		for _, c := range rows {
			index[c.ID] = c
		}
		categories = index
		return nil
	})
	g.Go(func() error {
		s.refs.Warm(gctx)
		return nil
	})
	_ = g.Wait()

	participants := append([]domain.LeadRecord{master}, siblings...)
	leadIDs := make([]string, 0, len(participants))
	for _, p := range participants {
		leadIDs = append(leadIDs, p.ID)
	}

	// Wave two: contacts and contracts for all participating leads.
	var (
		contacts  []domain.Contact
		contracts []domain.Contract
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := source.FetchContactsForLeads(gctx, leadIDs)
		if err != nil {
			markDegraded("hierarchy.contacts", err)
			rows = nil
		}
		contacts = rows
		return nil
	})
	g.Go(func() error {
		rows, err := source.FetchContractsForLeads(gctx, leadIDs)
		if err != nil {
			markDegraded("hierarchy.contracts", err)
			rows = nil
		}
		contracts = rows
		return nil
	})
	_ = g.Wait()

	contactsByLead := make(map[string][]domain.Contact, len(participants))
	for _, c := range contacts {
		contactsByLead[c.LeadID] = append(contactsByLead[c.LeadID], c)
	}

	ordinals := SiblingOrdinals(siblings)
	hasSubLeads := len(siblings) > 0

	masterNumber := s.displayNumber(ctx, master, source.Schema(), ordinals, hasSubLeads)
	response := transport.HierarchyResponse{
		Master:   s.buildNode(ctx, master, masterNumber, true, contactsByLead[master.ID], contracts, categories),
		SubLeads: make([]transport.SubLead, 0, len(siblings)),
		Degraded: degraded,
	}

	for _, sib := range siblings {
		number := s.displayNumber(ctx, sib, source.Schema(), ordinals, false)
		response.SubLeads = append(response.SubLeads, s.buildNode(ctx, sib, number, false, contactsByLead[sib.ID], contracts, categories))
	}

	// Master first, then ascending numeric ordinal parsed from the number
	// tail. The signed prefix is stripped before parsing.
	sort.SliceStable(response.SubLeads, func(i, j int) bool {
		return TailOrdinal(response.SubLeads[i].LeadNumber) < TailOrdinal(response.SubLeads[j].LeadNumber)
	})

	return response, nil
}

// displayNumber stamps a node's display number, including the signed-status
// prefix for leads at the signed/won stage.
func (s *Service) displayNumber(ctx context.Context, lead domain.LeadRecord, schema domain.Schema, ordinals map[int64]int, hasSubLeads bool) string {
	var number string
	if schema == domain.SchemaLegacy {
		number = FormatLegacyLeadNumber(lead, ordinals[lead.NumericID], hasSubLeads)
	} else {
		number = lead.LeadNumber
	}

	stageName := s.refs.StageName(ctx, lead.StageID)
	if s.refs.StagesEquivalent(stageName, refcache.StageNameSuccess) {
		number = MarkSigned(number)
	}
	return number
}

func (s *Service) buildNode(
	ctx context.Context,
	lead domain.LeadRecord,
	displayNumber string,
	isMaster bool,
	leadContacts []domain.Contact,
	contracts []domain.Contract,
	categories map[int64]domain.Category,
) transport.SubLead {
	contact := ResolveContact(lead, leadContacts)

	node := transport.SubLead{
		ID:             lead.ID,
		LeadNumber:     displayNumber,
		Name:           lead.Name,
		Total:          ResolveTotal(lead),
		CurrencySymbol: s.currencySymbol(ctx, lead),
		Topic:          lead.Topic,
		StageID:        lead.StageID,
		StageName:      s.refs.StageName(ctx, lead.StageID),
		StageColour:    s.refs.StageColour(ctx, lead.StageID),
		ContactName:    contact.Name,
		ApplicantCount: lead.ApplicantCount,
		Scheduler:      s.resolveRole(ctx, lead.Scheduler),
		Closer:         s.resolveRole(ctx, lead.Closer),
		Handler:        s.resolveRole(ctx, lead.Handler),
		IsMaster:       isMaster,
		Route:          leadRoute(lead),
	}

	if node.ApplicantCount == 0 {
		node.ApplicantCount = len(leadContacts)
	}

	if lead.CategoryID != nil {
		if cat, ok := categories[*lead.CategoryID]; ok {
			node.Category = cat.DisplayName()
		}
	}

	if matched := MatchContract(lead, contact.ID, contracts); matched != nil {
		node.Contract = &transport.ContractView{
			ID:          matched.Contract.ID,
			Schema:      string(matched.Contract.Schema),
			Status:      string(matched.Status),
			PublicToken: matched.Contract.PublicToken,
			SignedAt:    matched.Contract.SignedAt,
		}
	}

	return node
}

// resolveRole resolves an ambiguous role field: integer ids are looked up in
// the employee directory, anything else is treated as a literal display name
// with an opportunistic reverse name lookup for downstream consumers.
func (s *Service) resolveRole(ctx context.Context, ref domain.RoleRef) transport.RoleView {
	if ref.IsZero() {
		return transport.RoleView{}
	}

	if ref.IsID {
		view := transport.RoleView{ID: &ref.EmployeeID}
		if name, ok := s.refs.EmployeeName(ctx, ref.EmployeeID); ok {
			view.Name = name
		}
		return view
	}

	view := transport.RoleView{Name: ref.RawName}
	if id, ok := s.refs.EmployeeIDByName(ctx, ref.RawName); ok {
		view.ID = &id
	}
	return view
}

func (s *Service) currencySymbol(ctx context.Context, lead domain.LeadRecord) string {
	if lead.Schema == domain.SchemaLegacy {
		currencyID := legacyCurrencyILS
		if lead.CurrencyID != nil {
			currencyID = *lead.CurrencyID
		}
		if sym, ok := s.refs.CurrencySymbol(ctx, currencyID); ok {
			return sym
		}
		return CurrencySymbolFor("", "", &currencyID)
	}
	return CurrencySymbolFor(lead.CurrencyCode, lead.CurrencyName, nil)
}

func leadRoute(lead domain.LeadRecord) string {
	if lead.Schema == domain.SchemaLegacy {
		return "/legacy-leads/" + lead.ID
	}
	return "/leads/" + lead.ID
}
