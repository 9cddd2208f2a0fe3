// Package hierarchy provides the lead hierarchy bounded context module.
// This file defines the module that encapsulates all hierarchy setup and
// route registration.
package hierarchy

import (
	apphttp "casedesk_backend/internal/http"
	"casedesk_backend/internal/hierarchy/handler"
	"casedesk_backend/internal/hierarchy/repository"
	"casedesk_backend/internal/hierarchy/service"
	"casedesk_backend/internal/refcache"
	"casedesk_backend/platform/logger"
	"casedesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the hierarchy bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	modern  *repository.ModernSource
	legacy  *repository.LegacySource
}

// NewModule creates and initializes the hierarchy module with all its
// dependencies.
func NewModule(modernPool, legacyPool *pgxpool.Pool, refs *refcache.Cache, val *validator.Validator, log *logger.Logger) *Module {
	modern := repository.NewModernSource(modernPool)
	legacy := repository.NewLegacySource(legacyPool)
	reference := repository.NewReferenceRepository(modernPool)

	svc := service.New(modern, legacy, reference, refs, log)
	h := handler.New(svc, refs, val)

	return &Module{
		handler: h,
		service: svc,
		modern:  modern,
		legacy:  legacy,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "hierarchy"
}

// Service returns the hierarchy service for in-process consumers.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts hierarchy routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
