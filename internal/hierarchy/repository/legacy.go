package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"casedesk_backend/internal/hierarchy/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// legacyStageClientSigned is the sentinel stage value in the legacy stage
// audit table marking the client-signed-agreement transition. The most
// recent such row supplies a contract's signed timestamp.
const legacyStageClientSigned = "client_signed_agreement"

// LegacySource reads the historical lead tables. Legacy leads are keyed by
// an integer primary key, with an alternate manually assigned identifier as
// a fallback address.
type LegacySource struct {
	pool *pgxpool.Pool
}

// NewLegacySource creates a lead source over the legacy schema pool.
func NewLegacySource(pool *pgxpool.Pool) *LegacySource {
	return &LegacySource{pool: pool}
}

// Schema identifies this source as the legacy table family.
func (s *LegacySource) Schema() domain.Schema {
	return domain.SchemaLegacy
}

const legacyLeadSelectCols = `
	id, master_id, manual_id, name, stage, category_id, topic,
	total, total_base, currency_id,
	scheduler, closer, handler,
	anchor_full_name, contact_name, primary_contact_name,
	extra_contacts, applicant_count`

// FetchByNumber locates a legacy lead. The number's leading digits are tried
// against the primary key first; failing that, the raw value is tried
// against the manual id column.
func (s *LegacySource) FetchByNumber(ctx context.Context, number string) (domain.LeadRecord, error) {
	if id, ok := extractNumericID(number); ok {
		lead, err := s.fetchByID(ctx, id)
		if err == nil {
			return lead, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return domain.LeadRecord{}, err
		}
	}
	return s.fetchByManualID(ctx, number)
}

func (s *LegacySource) fetchByID(ctx context.Context, id int64) (domain.LeadRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+legacyLeadSelectCols+`
		FROM legacy_leads
		WHERE id = $1
	`, id)
	return scanLegacyLead(row)
}

func (s *LegacySource) fetchByManualID(ctx context.Context, manualID string) (domain.LeadRecord, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT`+legacyLeadSelectCols+`
		FROM legacy_leads
		WHERE manual_id = $1
		ORDER BY id ASC
		LIMIT 1
	`, strings.TrimSpace(manualID))
	return scanLegacyLead(row)
}

// FetchSiblings returns legacy leads carrying the given master id, ordered
// by ascending primary key. Ordinal suffixes are assigned in this order.
func (s *LegacySource) FetchSiblings(ctx context.Context, masterRef string) ([]domain.LeadRecord, error) {
	masterID, ok := extractNumericID(masterRef)
	if !ok {
		return []domain.LeadRecord{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT`+legacyLeadSelectCols+`
		FROM legacy_leads
		WHERE master_id = $1
		ORDER BY id ASC
	`, masterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.LeadRecord, 0)
	for rows.Next() {
		lead, err := scanLegacyLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, lead)
	}
	return items, rows.Err()
}

// FetchContactsForLeads returns legacy contact rows in stable source order.
func (s *LegacySource) FetchContactsForLeads(ctx context.Context, leadIDs []string) ([]domain.Contact, error) {
	ids := numericIDs(leadIDs)
	if len(ids) == 0 {
		return []domain.Contact{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, lead_id, COALESCE(name, ''), COALESCE(is_main_applicant, false), COALESCE(relationship, '')
		FROM legacy_contacts
		WHERE lead_id = ANY($1)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Contact, 0)
	for rows.Next() {
		var c domain.Contact
		var id, leadID int64
		if err := rows.Scan(&id, &leadID, &c.Name, &c.IsMainApplicant, &c.Relationship); err != nil {
			return nil, err
		}
		c.ID = strconv.FormatInt(id, 10)
		c.LeadID = strconv.FormatInt(leadID, 10)
		items = append(items, c)
	}
	return items, rows.Err()
}

// FetchContractsForLeads returns legacy inline-HTML contract rows. The
// signed timestamp is the most recent stage audit row at the client-signed
// sentinel for the owning lead.
func (s *LegacySource) FetchContractsForLeads(ctx context.Context, leadIDs []string) ([]domain.Contract, error) {
	ids := numericIDs(leadIDs)
	if len(ids) == 0 {
		return []domain.Contract{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT
			c.id, c.lead_id, c.contact_id,
			COALESCE(c.contract_html, ''), COALESCE(c.signed_contract_html, ''),
			COALESCE(c.public_token, ''),
			signed.changed_at
		FROM legacy_contracts_docs c
		LEFT JOIN LATERAL (
			SELECT a.changed_at
			FROM legacy_stage_audit a
			WHERE a.lead_id = c.lead_id AND a.stage = $2
			ORDER BY a.changed_at DESC
			LIMIT 1
		) signed ON true
		WHERE c.lead_id = ANY($1)
		ORDER BY c.id ASC
	`, ids, legacyStageClientSigned)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Contract, 0)
	for rows.Next() {
		c := domain.Contract{Schema: domain.SchemaLegacy}
		var id, leadID int64
		var contactID *int64
		if err := rows.Scan(&id, &leadID, &contactID, &c.ContractHTML, &c.SignedContractHTML, &c.PublicToken, &c.SignedAt); err != nil {
			return nil, err
		}
		c.ID = strconv.FormatInt(id, 10)
		c.LeadID = strconv.FormatInt(leadID, 10)
		if contactID != nil {
			c.ContactID = strconv.FormatInt(*contactID, 10)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type legacyRowScanner interface {
	Scan(dest ...any) error
}

func scanLegacyLead(row legacyRowScanner) (domain.LeadRecord, error) {
	lead := domain.LeadRecord{Schema: domain.SchemaLegacy}

	var (
		id            int64
		masterID      *int64
		manualID      *string
		name          *string
		stage         *int64
		categoryID    *int64
		topic         *string
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
		&id,
		&masterID,
		&manualID,
		&name,
		&stage,
		&categoryID,
		&topic,
		&lead.Total,
		&lead.TotalBase,
		&lead.CurrencyID,
		&scheduler,
		&closer,
		&handler,
		&anchorName,
		&contactName,
		&primaryName,
		&extraContacts,
		&applicants,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LeadRecord{}, ErrNotFound
		}
		return domain.LeadRecord{}, err
	}

	lead.NumericID = id
	lead.ID = strconv.FormatInt(id, 10)
	lead.LeadNumber = lead.ID
	if masterID != nil {
		lead.MasterRef = strconv.FormatInt(*masterID, 10)
	}
	lead.ManualID = deref(manualID)
	lead.Name = deref(name)
	if stage != nil {
		lead.StageID = strconv.FormatInt(*stage, 10)
	}
	lead.CategoryID = categoryID
	lead.Topic = deref(topic)
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

// extractNumericID pulls the leading integer out of a lead number, tolerating
// an ordinal tail like "55/2".
func extractNumericID(number string) (int64, bool) {
	trimmed := strings.TrimSpace(number)
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(trimmed[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func numericIDs(leadIDs []string) []int64 {
	ids := make([]int64, 0, len(leadIDs))
	for _, raw := range leadIDs {
		if id, ok := extractNumericID(raw); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
