package repository

import (
	"context"
	"encoding/json"
	"errors"

	"casedesk_backend/internal/hierarchy/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ModernSource reads the current-era lead tables. Modern leads are keyed by
// UUID and addressed by their textual lead number.
type ModernSource struct {
	pool *pgxpool.Pool
}

// NewModernSource creates a lead source over the modern schema pool.
func NewModernSource(pool *pgxpool.Pool) *ModernSource {
	return &ModernSource{pool: pool}
}

// Schema identifies this source as the modern table family.
func (s *ModernSource) Schema() domain.Schema {
	return domain.SchemaModern
}

const modernLeadSelectCols = `
	id, lead_number, master_number, name, stage, category_id, topic,
	balance, proposal_total, currency_code, currency_name,
	scheduler, closer, handler,
	anchor_full_name, contact_name, primary_contact_name,
	extra_contacts, applicant_count`

// FetchByNumber locates a modern lead by exact lead number.
func (s *ModernSource) FetchByNumber(ctx context.Context, number string) (domain.LeadRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+modernLeadSelectCols+`
		FROM crm_leads
		WHERE lead_number = $1
	`, number)

	lead, err := scanModernLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LeadRecord{}, ErrNotFound
		}
		return domain.LeadRecord{}, err
	}
	return lead, nil
}

// FetchSiblings returns modern leads grouped under the given master number,
// ordered by creation for stable downstream numbering.
func (s *ModernSource) FetchSiblings(ctx context.Context, masterRef string) ([]domain.LeadRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT`+modernLeadSelectCols+`
		FROM crm_leads
		WHERE master_number = $1
		ORDER BY created_at ASC, lead_number ASC
	`, masterRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.LeadRecord, 0)
	for rows.Next() {
		lead, err := scanModernLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	return items, rows.Err()
}

// FetchContactsForLeads returns contact rows for the given lead ids in
// insertion order. Order matters: the canonical contact tie-break takes the
// first qualifying row in fetch order.
func (s *ModernSource) FetchContactsForLeads(ctx context.Context, leadIDs []string) ([]domain.Contact, error) {
	if len(leadIDs) == 0 {
		return []domain.Contact{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, lead_id, name, is_main_applicant, COALESCE(relationship, '')
		FROM crm_contacts
		WHERE lead_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`, leadIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Contact, 0)
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.LeadID, &c.Name, &c.IsMainApplicant, &c.Relationship); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FetchContractsForLeads returns modern structured contract rows.
func (s *ModernSource) FetchContractsForLeads(ctx context.Context, leadIDs []string) ([]domain.Contract, error) {
	if len(leadIDs) == 0 {
		return []domain.Contract{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, lead_id, contact_id, signed_at
		FROM crm_contracts
		WHERE lead_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`, leadIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Contract, 0)
	for rows.Next() {
		c := domain.Contract{Schema: domain.SchemaModern}
		var contactID *string
		if err := rows.Scan(&c.ID, &c.LeadID, &contactID, &c.SignedAt); err != nil {
			return nil, err
		}
		if contactID != nil {
			c.ContactID = *contactID
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// modernRowScanner is satisfied by pgx.Rows and pgx.Row so scanModernLead can
// be shared between single-row and multi-row queries.
type modernRowScanner interface {
	Scan(dest ...any) error
}

func scanModernLead(row modernRowScanner) (domain.LeadRecord, error) {
	lead := domain.LeadRecord{Schema: domain.SchemaModern}

	var (
		masterNumber  *string
		categoryID    *int64
		topic         *string
		currencyCode  *string
		currencyName  *string
		scheduler     *string
		closer        *string
		handler       *string
		anchorName    *string
		contactName   *string
		primaryName   *string
		extraContacts []byte
		applicants    *int
	)

	if err := row.Scan(
		&lead.ID,
		&lead.LeadNumber,
		&masterNumber,
		&lead.Name,
		&lead.StageID,
		&categoryID,
		&topic,
		&lead.Balance,
		&lead.ProposalTotal,
		&currencyCode,
		&currencyName,
		&scheduler,
		&closer,
		&handler,
		&anchorName,
		&contactName,
		&primaryName,
		&extraContacts,
		&applicants,
	); err != nil {
		return domain.LeadRecord{}, err
	}

	lead.CategoryID = categoryID
	lead.MasterRef = deref(masterNumber)
	lead.Topic = deref(topic)
	lead.CurrencyCode = deref(currencyCode)
	lead.CurrencyName = deref(currencyName)
	lead.Scheduler = domain.ParseRoleRef(deref(scheduler))
	lead.Closer = domain.ParseRoleRef(deref(closer))
	lead.Handler = domain.ParseRoleRef(deref(handler))
	lead.AnchorFullName = deref(anchorName)
	lead.ContactName = deref(contactName)
	lead.PrimaryContactName = deref(primaryName)
	if applicants != nil {
		lead.ApplicantCount = *applicants
	}
	if len(extraContacts) > 0 {
		_ = json.Unmarshal(extraContacts, &lead.ExtraContacts)
	}

	return lead, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
