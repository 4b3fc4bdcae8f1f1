package domain

import (
	"strings"
	"time"
)

// Company is a tenant-scoped company record. Name is the reconciliation
// key: two companies whose names differ only by case or surrounding
// whitespace are the same entity.
type Company struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	Name          string    `json:"name"`
	Location      string    `json:"location"`
	Industry      string    `json:"industry"`
	SubIndustry   string    `json:"sub_industry"`
	AnnualRevenue string    `json:"annual_revenue"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CompanyKey returns the normalized identity key for a company name:
// lowercased and trimmed of surrounding whitespace.
func CompanyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
