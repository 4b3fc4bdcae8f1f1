package reconcile

import (
	"context"

	"github.com/leadline/leadline/internal/domain"
)

// CompanyRef identifies an existing company: its id and the canonical
// name as stored, which may differ in case/whitespace from what a
// candidate row typed.
type CompanyRef struct {
	ID   string
	Name string
}

// Repository defines the store operations the engine needs.
// Implementations must report uniqueness violations as ErrConflict
// (wrapped) and must be safe for concurrent use.
type Repository interface {
	// CompaniesByTenant returns a snapshot of all companies for the
	// tenant, keyed by domain.CompanyKey of the stored name.
	CompaniesByTenant(ctx context.Context, tenantID string) (map[string]CompanyRef, error)

	// LeadKeysByTenant returns a snapshot of all lead composite keys
	// (domain.LeadKey) for the tenant.
	LeadKeysByTenant(ctx context.Context, tenantID string) (map[string]struct{}, error)

	// InsertCompanies inserts a batch and returns the rows with their
	// assigned ids. A uniqueness violation anywhere in the batch fails
	// the whole batch with ErrConflict.
	InsertCompanies(ctx context.Context, companies []domain.Company) ([]domain.Company, error)

	// InsertCompany inserts one company and returns its id.
	InsertCompany(ctx context.Context, c domain.Company) (string, error)

	// FindCompanyByName looks up a company by exact name first, then by
	// case-insensitive match. Returns nil when no row matches.
	FindCompanyByName(ctx context.Context, tenantID, name string) (*CompanyRef, error)

	// InsertLeads inserts a batch and returns the rows with their
	// assigned ids. Conflict semantics as for InsertCompanies.
	InsertLeads(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error)

	// InsertLead inserts one lead and returns its id.
	InsertLead(ctx context.Context, l domain.Lead) (string, error)
}
