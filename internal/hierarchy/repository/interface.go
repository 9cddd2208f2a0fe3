// Package repository provides data access for the lead hierarchy module.
// Each schema family (modern, legacy) implements LeadSource once so that
// resolution logic above stays schema-agnostic.
package repository

import (
	"context"
	"errors"

	"casedesk_backend/internal/hierarchy/domain"
)

// ErrNotFound is returned when a lead cannot be located in a source.
var ErrNotFound = errors.New("lead not found")

// LeadSource is the per-schema adapter for lead, contact and contract reads.
// All collections are externally owned, read-only inputs.
type LeadSource interface {
	// Schema identifies the table family this source reads.
	Schema() domain.Schema
	// FetchByNumber locates a lead by its business number. Returns
	// ErrNotFound after the source has exhausted its lookup strategies.
	FetchByNumber(ctx context.Context, number string) (domain.LeadRecord, error)
	// FetchSiblings returns all rows whose master reference equals masterRef,
	// excluding the master itself.
	FetchSiblings(ctx context.Context, masterRef string) ([]domain.LeadRecord, error)
	// FetchContactsForLeads returns all contact rows for the given lead ids,
	// in stable source order.
	FetchContactsForLeads(ctx context.Context, leadIDs []string) ([]domain.Contact, error)
	// FetchContractsForLeads returns all contract rows for the given lead ids.
	FetchContractsForLeads(ctx context.Context, leadIDs []string) ([]domain.Contract, error)
}

// ReferenceSource reads the shared reference tables. Implemented over the
// modern schema, which owns the canonical reference data.
type ReferenceSource interface {
	FetchEmployees(ctx context.Context) ([]domain.Employee, error)
	FetchCategories(ctx context.Context) ([]domain.Category, error)
	FetchCurrencies(ctx context.Context) ([]domain.Currency, error)
	FetchStageDefinitions(ctx context.Context) ([]domain.StageDefinition, error)
}
