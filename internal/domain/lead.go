package domain

import (
	"strings"
	"time"
)

// LeadStatus is the workflow status of a lead.
type LeadStatus string

const (
	StatusNotContacted     LeadStatus = "not_contacted"
	StatusContacted        LeadStatus = "contacted"
	StatusInDiscussion     LeadStatus = "in_discussion"
	StatusMeetingScheduled LeadStatus = "meeting_scheduled"
	StatusQualified        LeadStatus = "qualified"
	StatusDisqualified     LeadStatus = "disqualified"

	// StatusIgnored exists as a first-class status elsewhere in the
	// product. Whether the ingestion path stores it is configuration
	// (config.Ingest.AllowedStatuses); by default it is folded into
	// StatusNotContacted.
	StatusIgnored LeadStatus = "ignored"
)

// DefaultIngestStatuses is the set of statuses the ingestion path accepts
// when no override is configured. Deliberately excludes StatusIgnored.
var DefaultIngestStatuses = []LeadStatus{
	StatusNotContacted,
	StatusContacted,
	StatusInDiscussion,
	StatusMeetingScheduled,
	StatusQualified,
	StatusDisqualified,
}

// LeadTier grades a lead's fit.
type LeadTier string

const (
	TierGood   LeadTier = "good"
	TierMedium LeadTier = "medium"
	TierBad    LeadTier = "bad"
)

// Lead is a tenant-scoped contact at a company. Identity within a tenant
// is the composite (company_name, contact_person), both normalized.
type Lead struct {
	ID                  string     `json:"id"`
	TenantID            string     `json:"tenant_id"`
	CompanyName         string     `json:"company_name"`
	ContactPerson       string     `json:"contact_person"`
	ContactEmail        string     `json:"contact_email"`
	Role                string     `json:"role"`
	Status              LeadStatus `json:"status"`
	Tier                LeadTier   `json:"tier"`
	TierReason          string     `json:"tier_reason,omitempty"`
	WarmConnections     string     `json:"warm_connections,omitempty"`
	IsConnectedToTenant bool       `json:"is_connected_to_tenant"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// LeadKey returns the composite identity key for a lead within a tenant.
// Company and contact are lowercased and trimmed so case and whitespace
// variants collide. The unit separator keeps the parts unambiguous.
func LeadKey(tenantID, companyName, contactPerson string) string {
	return tenantID + "\x1f" + CompanyKey(companyName) + "\x1f" +
		strings.ToLower(strings.TrimSpace(contactPerson))
}
