package repository

import (
	"context"
	"strings"
	"time"

	"casedesk_backend/internal/hierarchy/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the seven audit sources from the schema-appropriate pool.
// The four standalone change-log tables are legacy-family history tables
// keyed by the numeric lead id; for modern leads those sources are empty.
type Repository struct {
	modern *pgxpool.Pool
	legacy *pgxpool.Pool
}

// New creates an audit source repository over both schema pools.
func New(modern, legacy *pgxpool.Pool) *Repository {
	return &Repository{modern: modern, legacy: legacy}
}

func (r *Repository) pool(lead domain.LeadRecord) *pgxpool.Pool {
	if lead.Schema == domain.SchemaLegacy {
		return r.legacy
	}
	return r.modern
}

func (r *Repository) leadTable(lead domain.LeadRecord) string {
	if lead.Schema == domain.SchemaLegacy {
		return "legacy_leads"
	}
	return "crm_leads"
}

// auditedFields are the lead columns carrying last-edited pairs, in fixed
// scan order.
var auditedFields = []string{"notes", "tags", "anchor", "facts", "summary"}

// FetchLeadAuditColumns pulls the lead row's own audit contributions.
func (r *Repository) FetchLeadAuditColumns(ctx context.Context, lead domain.LeadRecord) (LeadAuditColumns, error) {
	row := r.pool(lead).QueryRow(ctx, `
		SELECT
			created_at, creator_employee_id, webhook_source,
			notes_changed_by, notes_changed_at,
			tags_changed_by, tags_changed_at,
			anchor_changed_by, anchor_changed_at,
			facts_changed_by, facts_changed_at,
			summary_changed_by, summary_changed_at,
			stage, stage_changed_by, stage_changed_at,
			unactivation_reason, unactivated_by, unactivated_at,
			activated_by, activated_at,
			manual_interactions
		FROM `+r.leadTable(lead)+`
		WHERE id = $1
	`, lead.ID)

	var (
		cols          LeadAuditColumns
		webhookSource *string

		fieldBy [5]*string
		fieldAt [5]*time.Time

		stageID        *string
		stageBy        *string
		stageAt        *time.Time
		unactReason    *string
		unactBy        *string
		unactAt        *time.Time
		activatedBy    *string
		activatedAt    *time.Time
		manualInteract []byte
	)

	if err := row.Scan(
		&cols.CreatedAt, &cols.CreatorEmployeeID, &webhookSource,
		&fieldBy[0], &fieldAt[0],
		&fieldBy[1], &fieldAt[1],
		&fieldBy[2], &fieldAt[2],
		&fieldBy[3], &fieldAt[3],
		&fieldBy[4], &fieldAt[4],
		&stageID, &stageBy, &stageAt,
		&unactReason, &unactBy, &unactAt,
		&activatedBy, &activatedAt,
		&manualInteract,
	); err != nil {
		return LeadAuditColumns{}, err
	}

	cols.WebhookSource = derefStr(webhookSource)

	// A pair contributes an edit event only when its timestamp is present.
	for i, field := range auditedFields {
		if fieldAt[i] == nil {
			continue
		}
		cols.FieldEdits = append(cols.FieldEdits, FieldEdit{
			Field:     field,
			ChangedBy: derefStr(fieldBy[i]),
			ChangedAt: *fieldAt[i],
		})
	}

	if stageAt != nil {
		cols.StageChange = &StageChangePair{
			StageID:   derefStr(stageID),
			ChangedBy: derefStr(stageBy),
			ChangedAt: *stageAt,
		}
	}
	if unactAt != nil {
		cols.Unactivation = &UnactivationPair{
			Reason:    derefStr(unactReason),
			ChangedBy: derefStr(unactBy),
			ChangedAt: *unactAt,
		}
	}
	if activatedAt != nil {
		cols.Activation = &ActorPair{
			ChangedBy: derefStr(activatedBy),
			ChangedAt: *activatedAt,
		}
	}
	cols.ManualInteractionsJSON = manualInteract

	return cols, nil
}

// FetchEmailRows returns email rows for the lead, one interaction event each.
func (r *Repository) FetchEmailRows(ctx context.Context, lead domain.LeadRecord) ([]MessageRow, error) {
	table := "crm_lead_emails"
	if lead.Schema == domain.SchemaLegacy {
		table = "legacy_lead_emails"
	}
	return r.fetchMessageRows(ctx, lead, table)
}

// FetchMessageRows returns messaging rows for the lead.
func (r *Repository) FetchMessageRows(ctx context.Context, lead domain.LeadRecord) ([]MessageRow, error) {
	table := "crm_lead_messages"
	if lead.Schema == domain.SchemaLegacy {
		table = "legacy_lead_messages"
	}
	return r.fetchMessageRows(ctx, lead, table)
}

func (r *Repository) fetchMessageRows(ctx context.Context, lead domain.LeadRecord, table string) ([]MessageRow, error) {
	rows, err := r.pool(lead).Query(ctx, `
		SELECT COALESCE(subject, ''), COALESCE(changed_by, ''), changed_at
		FROM `+table+`
		WHERE lead_id = $1
		ORDER BY changed_at ASC, id ASC
	`, lead.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]MessageRow, 0)
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.Subject, &m.ChangedBy, &m.ChangedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// FetchPlanChanges returns payment-plan change-log rows.
func (r *Repository) FetchPlanChanges(ctx context.Context, lead domain.LeadRecord) ([]PlanChangeRow, error) {
	if lead.Schema != domain.SchemaLegacy {
		return []PlanChangeRow{}, nil
	}

	rows, err := r.legacy.Query(ctx, `
		SELECT COALESCE(action, ''), before_value, after_value, COALESCE(changed_by, ''), changed_at
		FROM legacy_plan_changes
		WHERE lead_id = $1
		ORDER BY changed_at ASC, id ASC
	`, lead.NumericID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]PlanChangeRow, 0)
	for rows.Next() {
		var p PlanChangeRow
		if err := rows.Scan(&p.Action, &p.Before, &p.After, &p.ChangedBy, &p.ChangedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// FetchFinanceChanges returns finance-change history rows.
func (r *Repository) FetchFinanceChanges(ctx context.Context, lead domain.LeadRecord) ([]FinanceChangeRow, error) {
	if lead.Schema != domain.SchemaLegacy {
		return []FinanceChangeRow{}, nil
	}

	rows, err := r.legacy.Query(ctx, `
		SELECT COALESCE(field, ''), COALESCE(old_value, ''), COALESCE(new_value, ''), COALESCE(changed_by, ''), changed_at
		FROM legacy_finance_changes
		WHERE lead_id = $1
		ORDER BY changed_at ASC, id ASC
	`, lead.NumericID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]FinanceChangeRow, 0)
	for rows.Next() {
		var f FinanceChangeRow
		if err := rows.Scan(&f.Field, &f.OldValue, &f.NewValue, &f.ChangedBy, &f.ChangedAt); err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// FetchLeadChanges returns generic lead-changes rows.
func (r *Repository) FetchLeadChanges(ctx context.Context, lead domain.LeadRecord) ([]LeadChangeRow, error) {
	if lead.Schema != domain.SchemaLegacy {
		return []LeadChangeRow{}, nil
	}

	rows, err := r.legacy.Query(ctx, `
		SELECT COALESCE(field, ''), COALESCE(old_value, ''), COALESCE(new_value, ''), COALESCE(changed_by, ''), changed_at
		FROM legacy_lead_changes
		WHERE lead_id = $1
		ORDER BY changed_at ASC, id ASC
	`, lead.NumericID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]LeadChangeRow, 0)
	for rows.Next() {
		var l LeadChangeRow
		if err := rows.Scan(&l.Field, &l.OldValue, &l.NewValue, &l.ChangedBy, &l.ChangedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

// FetchStageAudit returns employee-joined stage-audit rows.
func (r *Repository) FetchStageAudit(ctx context.Context, lead domain.LeadRecord) ([]StageAuditRow, error) {
	if lead.Schema != domain.SchemaLegacy {
		return []StageAuditRow{}, nil
	}

	rows, err := r.legacy.Query(ctx, `
		SELECT a.stage, a.employee_id, COALESCE(e.display_name, ''), a.changed_at
		FROM legacy_stage_audit a
		LEFT JOIN legacy_employees e ON e.id = a.employee_id
		WHERE a.lead_id = $1
		ORDER BY a.changed_at ASC, a.id ASC
	`, lead.NumericID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StageAuditRow, 0)
	for rows.Next() {
		var s StageAuditRow
		if err := rows.Scan(&s.StageID, &s.EmployeeID, &s.ChangedBy, &s.ChangedAt); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// FetchUsers returns user rows whose email or name matches any of the given
// identifiers, for the batched identity pass. Matching is finalized
// in-memory by the caller; this query only narrows the candidate set.
func (r *Repository) FetchUsers(ctx context.Context, identifiers []string) ([]User, error) {
	if len(identifiers) == 0 {
		return []User{}, nil
	}

	lowered := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		lowered = append(lowered, lowerTrim(id))
	}

	rows, err := r.modern.Query(ctx, `
		SELECT id, COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(display_name, '')
		FROM users
		WHERE lower(email) = ANY($1)
		   OR lower(display_name) = ANY($1)
		   OR lower(first_name || ' ' || last_name) = ANY($1)
		   OR lower(first_name) = ANY($1)
		   OR lower(last_name) = ANY($1)
	`, lowered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.DisplayName); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
