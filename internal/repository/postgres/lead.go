package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/leadline/leadline/internal/domain"
)

// LeadRepo provides lead persistence.
type LeadRepo struct {
	db     *sql.DB
	prefix string
}

// NewLeadRepo creates a Postgres-backed lead repository.
func NewLeadRepo(db *sql.DB, prefix string) *LeadRepo {
	return &LeadRepo{db: db, prefix: prefix}
}

func (r *LeadRepo) table() string { return r.prefix + "leads" }

// LeadKeysByTenant snapshots the composite keys of all leads for a
// tenant.
func (r *LeadRepo) LeadKeysByTenant(ctx context.Context, tenantID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT company_name, contact_person FROM %s WHERE tenant_id = $1`, r.table()),
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("lead key snapshot: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var company, contact string
		if err := rows.Scan(&company, &contact); err != nil {
			return nil, fmt.Errorf("scan lead key: %w", err)
		}
		out[domain.LeadKey(tenantID, company, contact)] = struct{}{}
	}
	return out, rows.Err()
}

// InsertLeads inserts a batch in one statement. Ids are assigned
// client-side and returned on the copies. A uniqueness violation fails
// the whole batch with reconcile.ErrConflict.
func (r *LeadRepo) InsertLeads(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	const width = 11
	args := make([]interface{}, 0, len(leads)*width)
	out := make([]domain.Lead, len(leads))
	for i, l := range leads {
		l.ID = uuid.New().String()
		out[i] = l
		args = append(args, l.ID, l.TenantID, l.CompanyName, l.ContactPerson,
			l.ContactEmail, l.Role, string(l.Status), string(l.Tier),
			l.TierReason, l.WarmConnections, l.IsConnectedToTenant)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, company_name, contact_person, contact_email, role, status, tier, tier_reason, warm_connections, is_connected_to_tenant, created_at, updated_at)
		VALUES %s
	`, r.table(), placeholders(len(leads), width))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, mapConflict("insert leads", err)
	}
	return out, nil
}

// InsertLead inserts one lead and returns its id.
func (r *LeadRepo) InsertLead(ctx context.Context, l domain.Lead) (string, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, company_name, contact_person, contact_email, role, status, tier, tier_reason, warm_connections, is_connected_to_tenant, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`, r.table()),
		id, l.TenantID, l.CompanyName, l.ContactPerson, l.ContactEmail, l.Role,
		string(l.Status), string(l.Tier), l.TierReason, l.WarmConnections, l.IsConnectedToTenant)
	if err != nil {
		return "", mapConflict("insert lead", err)
	}
	return id, nil
}

// Store bundles both repositories behind reconcile.Repository.
type Store struct {
	*CompanyRepo
	*LeadRepo
}

// NewStore creates the combined store the engine consumes.
func NewStore(db *sql.DB, prefix string) *Store {
	return &Store{
		CompanyRepo: NewCompanyRepo(db, prefix),
		LeadRepo:    NewLeadRepo(db, prefix),
	}
}
