package ingest

import "strings"

// Field names the internal schema a sheet column can map to.
type Field string

const (
	FieldCompanyName         Field = "company_name"
	FieldContactPerson       Field = "contact_person"
	FieldContactEmail        Field = "contact_email"
	FieldRole                Field = "role"
	FieldStatus              Field = "status"
	FieldTier                Field = "tier"
	FieldTierReason          Field = "tier_reason"
	FieldWarmConnections     Field = "warm_connections"
	FieldIsConnectedToTenant Field = "is_connected_to_tenant"
	FieldCompanyLocation     Field = "company_location"
	FieldCompanyIndustry     Field = "company_industry"
	FieldCompanySubIndustry  Field = "company_sub_industry"
	FieldCompanyRevenue      Field = "company_annual_revenue"
	FieldCompanyDescription  Field = "company_description"
)

// RequiredFields must all be mapped before candidates can be staged.
var RequiredFields = []Field{FieldCompanyName, FieldContactPerson, FieldRole}

// FieldMapping maps internal fields to header labels. A missing or empty
// entry means the field is unmapped and treated as absent downstream.
type FieldMapping map[Field]string

// fieldKeywords drives auto-mapping. The order is load-bearing: more
// specific fields come first so that e.g. "Contact Email" reaches
// contact_email before the contact_person keywords see it, and
// "Company Location" reaches company_location before company_name.
var fieldKeywords = []struct {
	field    Field
	keywords []string
}{
	{FieldContactEmail, []string{"email", "e-mail", "mail"}},
	{FieldCompanyLocation, []string{"location", "address", "city", "country", "headquarters", "hq"}},
	{FieldCompanySubIndustry, []string{"sub industry", "sub-industry", "sub_industry", "subindustry", "niche"}},
	{FieldCompanyIndustry, []string{"industry", "sector", "vertical"}},
	{FieldCompanyRevenue, []string{"revenue", "turnover", "arr"}},
	{FieldCompanyDescription, []string{"description", "about", "summary", "overview"}},
	{FieldTierReason, []string{"reason", "rationale", "why"}},
	{FieldTier, []string{"tier", "rating", "priority", "grade"}},
	{FieldStatus, []string{"status", "stage"}},
	{FieldWarmConnections, []string{"warm", "connections", "referral"}},
	{FieldIsConnectedToTenant, []string{"connected", "network"}},
	{FieldRole, []string{"role", "title", "position", "job"}},
	{FieldCompanyName, []string{"company", "organization", "organisation", "firm", "account"}},
	{FieldContactPerson, []string{"contact", "person", "name"}},
}

// AutoMap suggests a FieldMapping from header labels. Headers are
// checked in order; for each header the first field whose keyword set
// matches wins, and a field already matched by an earlier header is
// never overwritten. The caller may override any entry afterwards.
func AutoMap(headers []string) FieldMapping {
	m := make(FieldMapping, len(fieldKeywords))
	for _, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}
		for _, fk := range fieldKeywords {
			if m[fk.field] != "" {
				continue
			}
			if containsAny(h, fk.keywords) {
				m[fk.field] = header
				break
			}
		}
	}
	return m
}

// Complete reports whether every required field is mapped.
func (m FieldMapping) Complete() bool {
	for _, f := range RequiredFields {
		if m[f] == "" {
			return false
		}
	}
	return true
}

// Header returns the header label mapped to the field, or "".
func (m FieldMapping) Header(f Field) string { return m[f] }

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
