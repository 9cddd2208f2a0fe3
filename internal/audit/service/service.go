package service

import (
	"context"
	"errors"
	"time"

	"casedesk_backend/internal/audit/repository"
	"casedesk_backend/internal/hierarchy/domain"
	hierrepo "casedesk_backend/internal/hierarchy/repository"
	"casedesk_backend/internal/refcache"
	"casedesk_backend/platform/apperr"
	"casedesk_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// LeadFinder locates a lead and its owning schema. Satisfied by the
// hierarchy service's Detect.
type LeadFinder interface {
	Detect(ctx context.Context, leadNumber string) (domain.LeadRecord, hierrepo.LeadSource, error)
}

// SourceReader is the data access interface needed by the reconciler.
// This is a consumer-driven interface - only what the reconciler needs.
type SourceReader interface {
	UserLookup
	FetchLeadAuditColumns(ctx context.Context, lead domain.LeadRecord) (repository.LeadAuditColumns, error)
	FetchEmailRows(ctx context.Context, lead domain.LeadRecord) ([]repository.MessageRow, error)
	FetchMessageRows(ctx context.Context, lead domain.LeadRecord) ([]repository.MessageRow, error)
	FetchPlanChanges(ctx context.Context, lead domain.LeadRecord) ([]repository.PlanChangeRow, error)
	FetchFinanceChanges(ctx context.Context, lead domain.LeadRecord) ([]repository.FinanceChangeRow, error)
	FetchLeadChanges(ctx context.Context, lead domain.LeadRecord) ([]repository.LeadChangeRow, error)
	FetchStageAudit(ctx context.Context, lead domain.LeadRecord) ([]repository.StageAuditRow, error)
}

// Service reconciles a lead's audit trail.
type Service struct {
	finder LeadFinder
	repo   SourceReader
	refs   *refcache.Cache
	log    *logger.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// New creates the audit trail service.
func New(finder LeadFinder, repo SourceReader, refs *refcache.Cache, log *logger.Logger) *Service {
	return &Service{
		finder: finder,
		repo:   repo,
		refs:   refs,
		log:    log,
		now:    time.Now,
	}
}

// Trail produces the flat, time-sorted audit event list for a lead. Source
// fetch failures degrade that source to empty rather than failing the call.
func (s *Service) Trail(ctx context.Context, leadNumber string) ([]Event, error) {
	lead, _, err := s.finder.Detect(ctx, leadNumber)
	if err != nil {
		if errors.Is(err, hierrepo.ErrNotFound) {
			return nil, apperr.NotFound("lead not found").WithOp("audit.Trail")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "lead lookup failed", err).WithOp("audit.Trail")
	}

	var src Sources

	// All seven sources are fetched concurrently and joined before the
	// merge runs.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cols, err := s.repo.FetchLeadAuditColumns(gctx, lead)
		if err != nil {
			// A zero CreatedAt is normalized to "now" during the merge,
			// so the creation event survives a degraded lead row.
			s.log.DegradedFetch("audit.lead_columns", err)
			cols = repository.LeadAuditColumns{}
		}
		src.Lead = cols
		return nil
	})
	g.Go(func() error {
		src.Emails = degradable(gctx, s.log, "audit.emails", lead, s.repo.FetchEmailRows)
		return nil
	})
	g.Go(func() error {
		src.Messages = degradable(gctx, s.log, "audit.messages", lead, s.repo.FetchMessageRows)
		return nil
	})
	g.Go(func() error {
		src.PlanChanges = degradable(gctx, s.log, "audit.plan_changes", lead, s.repo.FetchPlanChanges)
		return nil
	})
	g.Go(func() error {
		src.FinanceChanges = degradable(gctx, s.log, "audit.finance_changes", lead, s.repo.FetchFinanceChanges)
		return nil
	})
	g.Go(func() error {
		src.LeadChanges = degradable(gctx, s.log, "audit.lead_changes", lead, s.repo.FetchLeadChanges)
		return nil
	})
	g.Go(func() error {
		src.StageAudit = degradable(gctx, s.log, "audit.stage_audit", lead, s.repo.FetchStageAudit)
		return nil
	})
	_ = g.Wait()

	events := Merge(src, s.now())
	events = ResolveIdentities(ctx, events, s.refs, s.repo)

	for i := range events {
		if events[i].StageID != "" {
			events[i].StageName = s.refs.StageName(ctx, events[i].StageID)
		}
	}

	return events, nil
}

// degradable runs one source fetch, degrading failures to an empty slice.
func degradable[T any](ctx context.Context, log *logger.Logger, name string, lead domain.LeadRecord, fetch func(context.Context, domain.LeadRecord) ([]T, error)) []T {
	rows, err := fetch(ctx, lead)
	if err != nil {
		log.DegradedFetch(name, err)
		return nil
	}
	return rows
}
