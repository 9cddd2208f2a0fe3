// Package audit provides the audit trail bounded context module. It
// reconciles a lead's change history from the scattered per-concern tables
// into one chronological event stream.
package audit

import (
	"casedesk_backend/internal/audit/handler"
	"casedesk_backend/internal/audit/repository"
	"casedesk_backend/internal/audit/service"
	apphttp "casedesk_backend/internal/http"
	"casedesk_backend/internal/refcache"
	"casedesk_backend/platform/logger"
	"casedesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the audit bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the audit module. The lead finder is
// supplied by the hierarchy module so both contexts share one set of lead
// lookup strategies.
func NewModule(modernPool, legacyPool *pgxpool.Pool, finder service.LeadFinder, refs *refcache.Cache, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(modernPool, legacyPool)
	svc := service.New(finder, repo, refs, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "audit"
}

// RegisterRoutes mounts audit routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
