package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/leadline/leadline/internal/domain"
	"github.com/leadline/leadline/internal/service/reconcile"
)

// CompanyRepo provides company persistence.
type CompanyRepo struct {
	db     *sql.DB
	prefix string
}

// NewCompanyRepo creates a Postgres-backed company repository. prefix is
// the environment table prefix ("" or "dev_").
func NewCompanyRepo(db *sql.DB, prefix string) *CompanyRepo {
	return &CompanyRepo{db: db, prefix: prefix}
}

func (r *CompanyRepo) table() string { return r.prefix + "companies" }

// CompaniesByTenant snapshots all companies for a tenant, keyed by
// normalized name. Full scan; acceptable at the data volumes this serves.
func (r *CompanyRepo) CompaniesByTenant(ctx context.Context, tenantID string) (map[string]reconcile.CompanyRef, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, name FROM %s WHERE tenant_id = $1`, r.table()),
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("company snapshot: %w", err)
	}
	defer rows.Close()

	out := make(map[string]reconcile.CompanyRef)
	for rows.Next() {
		var ref reconcile.CompanyRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out[domain.CompanyKey(ref.Name)] = ref
	}
	return out, rows.Err()
}

// InsertCompanies inserts a batch in one statement. Ids are assigned
// client-side and returned on the copies. A uniqueness violation fails
// the whole batch with reconcile.ErrConflict.
func (r *CompanyRepo) InsertCompanies(ctx context.Context, companies []domain.Company) ([]domain.Company, error) {
	if len(companies) == 0 {
		return nil, nil
	}

	const width = 8
	args := make([]interface{}, 0, len(companies)*width)
	out := make([]domain.Company, len(companies))
	for i, c := range companies {
		c.ID = uuid.New().String()
		out[i] = c
		args = append(args, c.ID, c.TenantID, c.Name, c.Location,
			c.Industry, c.SubIndustry, c.AnnualRevenue, c.Description)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, name, location, industry, sub_industry, annual_revenue, description, created_at, updated_at)
		VALUES %s
	`, r.table(), placeholders(len(companies), width))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, mapConflict("insert companies", err)
	}
	return out, nil
}

// InsertCompany inserts one company and returns its id.
func (r *CompanyRepo) InsertCompany(ctx context.Context, c domain.Company) (string, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, name, location, industry, sub_industry, annual_revenue, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, r.table()),
		id, c.TenantID, c.Name, c.Location, c.Industry, c.SubIndustry, c.AnnualRevenue, c.Description)
	if err != nil {
		return "", mapConflict("insert company", err)
	}
	return id, nil
}

// FindCompanyByName recovers the winning row after a conflict: exact
// name match first, then a case-insensitive fallback. Returns nil when
// nothing matches.
func (r *CompanyRepo) FindCompanyByName(ctx context.Context, tenantID, name string) (*reconcile.CompanyRef, error) {
	var ref reconcile.CompanyRef
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, name FROM %s WHERE tenant_id = $1 AND name = $2 LIMIT 1`, r.table()),
		tenantID, name,
	).Scan(&ref.ID, &ref.Name)
	if err == nil {
		return &ref, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("find company: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, name FROM %s WHERE tenant_id = $1 AND LOWER(TRIM(name)) = LOWER(TRIM($2)) LIMIT 1`, r.table()),
		tenantID, name,
	).Scan(&ref.ID, &ref.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find company (case-insensitive): %w", err)
	}
	return &ref, nil
}
