package ingest

import (
	"strings"

	"github.com/leadline/leadline/internal/domain"
)

// Candidate is a normalized, staged company+lead pair awaiting
// reconciliation. It is only ever staged when company name, contact
// person, and role are all non-empty after trimming.
type Candidate struct {
	Company domain.Company `json:"company"`
	Lead    domain.Lead    `json:"lead"`
}

// Normalizer converts raw string cells into typed, canonical field
// values. The accepted status set is configuration: statuses outside it
// (including the legacy "ignored" unless explicitly allowed) fold into
// not_contacted.
type Normalizer struct {
	statuses map[string]domain.LeadStatus // canonicalized form -> status
}

// NewNormalizer builds a Normalizer accepting the given statuses. A nil
// or empty slice means domain.DefaultIngestStatuses.
func NewNormalizer(allowed []domain.LeadStatus) *Normalizer {
	if len(allowed) == 0 {
		allowed = domain.DefaultIngestStatuses
	}
	statuses := make(map[string]domain.LeadStatus, len(allowed))
	for _, s := range allowed {
		statuses[canonicalToken(string(s))] = s
	}
	return &Normalizer{statuses: statuses}
}

// Row normalizes one RawRow under the given mapping. The second return
// is false when the row is unusable (a required field empty after
// trimming); such rows are silently dropped, not errors.
func (n *Normalizer) Row(tenantID string, row RawRow, m FieldMapping) (Candidate, bool) {
	get := func(f Field) string {
		h := m[f]
		if h == "" {
			return ""
		}
		return strings.TrimSpace(row[h])
	}

	companyName := get(FieldCompanyName)
	contactPerson := get(FieldContactPerson)
	role := get(FieldRole)
	if companyName == "" || contactPerson == "" || role == "" {
		return Candidate{}, false
	}

	industry := get(FieldCompanyIndustry)
	if industry == "" {
		industry = "Unknown"
	}

	c := Candidate{
		Company: domain.Company{
			TenantID:      tenantID,
			Name:          companyName,
			Location:      ReduceLocation(get(FieldCompanyLocation)),
			Industry:      industry,
			SubIndustry:   get(FieldCompanySubIndustry),
			AnnualRevenue: get(FieldCompanyRevenue),
			Description:   get(FieldCompanyDescription),
		},
		Lead: domain.Lead{
			TenantID:            tenantID,
			CompanyName:         companyName,
			ContactPerson:       contactPerson,
			ContactEmail:        get(FieldContactEmail),
			Role:                role,
			Status:              n.ParseStatus(get(FieldStatus)),
			Tier:                ParseTier(get(FieldTier)),
			TierReason:          get(FieldTierReason),
			WarmConnections:     get(FieldWarmConnections),
			IsConnectedToTenant: Truthy(get(FieldIsConnectedToTenant)),
		},
	}
	return c, true
}

// Candidates normalizes all rows under the mapping, dropping unusable
// rows. Returns nil when a required field is unmapped: staging is
// blocked, not partially filled, until the mapping is complete.
func (n *Normalizer) Candidates(tenantID string, rows []RawRow, m FieldMapping) []Candidate {
	if !m.Complete() {
		return nil
	}
	out := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		if c, ok := n.Row(tenantID, row, m); ok {
			out = append(out, c)
		}
	}
	return out
}

// ParseStatus matches the input against the accepted status set,
// insensitive to case, spaces, underscores, and hyphens. Unrecognized or
// empty input defaults to not_contacted.
func (n *Normalizer) ParseStatus(s string) domain.LeadStatus {
	if status, ok := n.statuses[canonicalToken(s)]; ok {
		return status
	}
	return domain.StatusNotContacted
}

// ParseTier matches good/medium/bad plus the numeric shorthands
// 1/2/3. Unrecognized or empty input defaults to medium.
func ParseTier(s string) domain.LeadTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "good", "1":
		return domain.TierGood
	case "medium", "2":
		return domain.TierMedium
	case "bad", "3":
		return domain.TierBad
	default:
		return domain.TierMedium
	}
}

// Truthy reports whether the cell represents true: one of
// true/1/yes/y, case-insensitive. Everything else is false.
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

// ReduceLocation reduces a free-text address to "City, Country" by
// taking the last two comma-separated segments. A second-to-last segment
// matching the two-letter region-code pattern (state, province, Land) is
// skipped, so "123 Main St, Springfield, IL, USA" becomes
// "Springfield, USA". Inputs with two or fewer segments pass through
// unchanged (joined).
func ReduceLocation(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}

	raw := strings.Split(address, ",")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		parts = append(parts, strings.TrimSpace(p))
	}

	if len(parts) <= 2 {
		return strings.Join(parts, ", ")
	}

	city := parts[len(parts)-2]
	country := parts[len(parts)-1]
	if len(parts) >= 3 && isRegionCode(parts[len(parts)-2]) {
		city = parts[len(parts)-3]
	}
	return city + ", " + country
}

// isRegionCode reports whether the segment is exactly two ASCII letters,
// any case. Pattern-based rather than an enumerated code list, so "IL",
// "on", and "BY" all match.
func isRegionCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	c0, c1 := s[0]|0x20, s[1]|0x20
	return c0 >= 'a' && c0 <= 'z' && c1 >= 'a' && c1 <= 'z'
}

// canonicalToken lowercases and strips spaces, underscores, and hyphens
// so "Not Contacted", "not-contacted", and "not_contacted" all match.
func canonicalToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
