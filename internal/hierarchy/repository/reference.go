package repository

import (
	"context"

	"casedesk_backend/internal/hierarchy/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferenceRepository reads the shared reference tables from the modern
// schema: employees, categories (with parent names), currencies and stage
// definitions.
type ReferenceRepository struct {
	pool *pgxpool.Pool
}

// NewReferenceRepository creates a reference reader over the modern pool.
func NewReferenceRepository(pool *pgxpool.Pool) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

// FetchEmployees returns the employee directory.
func (r *ReferenceRepository) FetchEmployees(ctx context.Context) ([]domain.Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(display_name, ''), COALESCE(email, '')
		FROM employees
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Employee, 0)
	for rows.Next() {
		var e domain.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Email); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// FetchCategories returns case categories with their parent category name
// resolved in the same query.
func (r *ReferenceRepository) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.parent_id, COALESCE(p.name, '')
		FROM categories c
		LEFT JOIN categories p ON p.id = c.parent_id
		ORDER BY c.id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.ParentName); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FetchCurrencies returns the currency reference table.
func (r *ReferenceRepository) FetchCurrencies(ctx context.Context) ([]domain.Currency, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(code, ''), COALESCE(name, ''), COALESCE(symbol, '')
		FROM currencies
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Currency, 0)
	for rows.Next() {
		var c domain.Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FetchStageDefinitions returns the live stage reference table. Known legacy
// numeric ids missing from this table are covered by the hardcoded table in
// the reference cache.
func (r *ReferenceRepository) FetchStageDefinitions(ctx context.Context) ([]domain.StageDefinition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, COALESCE(name, ''), COALESCE(colour, '')
		FROM stage_definitions
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.StageDefinition, 0)
	for rows.Next() {
		var s domain.StageDefinition
		if err := rows.Scan(&s.ID, &s.Name, &s.Colour); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
