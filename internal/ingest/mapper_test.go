package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutoMapCommonHeaders(t *testing.T) {
	headers := []string{
		"Company", "Contact Person", "Contact Email", "Role",
		"Status", "Tier", "Tier Reason", "Company Location", "Industry",
	}
	m := AutoMap(headers)

	assert.Equal(t, "Company", m[FieldCompanyName])
	assert.Equal(t, "Contact Person", m[FieldContactPerson])
	assert.Equal(t, "Contact Email", m[FieldContactEmail])
	assert.Equal(t, "Role", m[FieldRole])
	assert.Equal(t, "Status", m[FieldStatus])
	assert.Equal(t, "Tier", m[FieldTier])
	assert.Equal(t, "Tier Reason", m[FieldTierReason])
	assert.Equal(t, "Company Location", m[FieldCompanyLocation])
	assert.Equal(t, "Industry", m[FieldCompanyIndustry])
	assert.True(t, m.Complete())
}

// Ambiguous headers must resolve to the more specific field: an email
// column contains "contact", a location column contains "company".
func TestAutoMapSpecificBeforeGeneric(t *testing.T) {
	m := AutoMap([]string{"Contact Email", "Company Location", "Sub-Industry", "Industry"})

	assert.Equal(t, "Contact Email", m[FieldContactEmail])
	assert.Empty(t, m[FieldContactPerson])
	assert.Equal(t, "Company Location", m[FieldCompanyLocation])
	assert.Empty(t, m[FieldCompanyName])
	assert.Equal(t, "Sub-Industry", m[FieldCompanySubIndustry])
	assert.Equal(t, "Industry", m[FieldCompanyIndustry])
}

func TestAutoMapFirstHeaderWins(t *testing.T) {
	m := AutoMap([]string{"Company Name", "Parent Company"})
	assert.Equal(t, "Company Name", m[FieldCompanyName])
}

func TestAutoMapIgnoresUnknownHeaders(t *testing.T) {
	m := AutoMap([]string{"Favorite Color", "", "Shoe Size"})
	assert.Empty(t, m)
	assert.False(t, m.Complete())
}

func TestMappingComplete(t *testing.T) {
	m := FieldMapping{
		FieldCompanyName:   "Company",
		FieldContactPerson: "Contact",
	}
	assert.False(t, m.Complete(), "role missing")

	m[FieldRole] = "Title"
	assert.True(t, m.Complete())

	m[FieldContactPerson] = ""
	assert.False(t, m.Complete(), "cleared required field")
}
