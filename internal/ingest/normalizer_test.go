package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadline/leadline/internal/domain"
)

const testTenant = "9f4a2c1e-0000-0000-0000-000000000001"

var testMapping = FieldMapping{
	FieldCompanyName:     "Company",
	FieldContactPerson:   "Contact",
	FieldRole:            "Role",
	FieldStatus:          "Status",
	FieldTier:            "Tier",
	FieldCompanyLocation: "Location",
	FieldCompanyIndustry: "Industry",
}

func TestRowNormalization(t *testing.T) {
	n := NewNormalizer(nil)
	c, ok := n.Row(testTenant, RawRow{
		"Company":  "  Acme Corp  ",
		"Contact":  "Jane Smith",
		"Role":     "CTO",
		"Status":   "Contacted",
		"Tier":     "1",
		"Location": "123 Main St, Springfield, IL, USA",
		"Industry": "",
	}, testMapping)
	require.True(t, ok)

	assert.Equal(t, "Acme Corp", c.Company.Name)
	assert.Equal(t, "Springfield, USA", c.Company.Location)
	assert.Equal(t, "Unknown", c.Company.Industry, "empty industry gets the default")
	assert.Equal(t, "Jane Smith", c.Lead.ContactPerson)
	assert.Equal(t, domain.StatusContacted, c.Lead.Status)
	assert.Equal(t, domain.TierGood, c.Lead.Tier)
	assert.Equal(t, testTenant, c.Lead.TenantID)
}

func TestRowRejectsEmptyRequiredFields(t *testing.T) {
	n := NewNormalizer(nil)
	base := RawRow{"Company": "Acme", "Contact": "Jane", "Role": "CTO"}

	for _, header := range []string{"Company", "Contact", "Role"} {
		row := RawRow{}
		for k, v := range base {
			row[k] = v
		}
		row[header] = "   "
		if _, ok := n.Row(testTenant, row, testMapping); ok {
			t.Errorf("row with blank %s should be dropped", header)
		}
	}
}

func TestCandidatesBlockedByIncompleteMapping(t *testing.T) {
	n := NewNormalizer(nil)
	rows := []RawRow{{"Company": "Acme", "Contact": "Jane", "Role": "CTO"}}

	m := FieldMapping{FieldCompanyName: "Company", FieldContactPerson: "Contact"}
	assert.Nil(t, n.Candidates(testTenant, rows, m), "no role mapped")

	m[FieldRole] = "Role"
	assert.Len(t, n.Candidates(testTenant, rows, m), 1)
}

func TestParseStatus(t *testing.T) {
	n := NewNormalizer(nil)
	cases := map[string]domain.LeadStatus{
		"not_contacted":     domain.StatusNotContacted,
		"Not Contacted":     domain.StatusNotContacted,
		"NOT-CONTACTED":     domain.StatusNotContacted,
		"contacted":         domain.StatusContacted,
		"in_discussion":     domain.StatusInDiscussion,
		"In Discussion":     domain.StatusInDiscussion,
		"meeting_scheduled": domain.StatusMeetingScheduled,
		"Meeting Scheduled": domain.StatusMeetingScheduled,
		"qualified":         domain.StatusQualified,
		"disqualified":      domain.StatusDisqualified,
		"ignored":           domain.StatusNotContacted, // not accepted by default
		"garbage":           domain.StatusNotContacted,
		"":                  domain.StatusNotContacted,
	}
	for input, want := range cases {
		assert.Equal(t, want, n.ParseStatus(input), "input %q", input)
	}
}

func TestParseStatusIgnoredWhenAllowed(t *testing.T) {
	n := NewNormalizer(append(domain.DefaultIngestStatuses, domain.StatusIgnored))
	assert.Equal(t, domain.StatusIgnored, n.ParseStatus("Ignored"))
}

func TestParseTier(t *testing.T) {
	cases := map[string]domain.LeadTier{
		"good":   domain.TierGood,
		"GOOD":   domain.TierGood,
		"1":      domain.TierGood,
		"medium": domain.TierMedium,
		"2":      domain.TierMedium,
		"bad":    domain.TierBad,
		"3":      domain.TierBad,
		"":       domain.TierMedium,
		"great":  domain.TierMedium,
	}
	for input, want := range cases {
		assert.Equal(t, want, ParseTier(input), "input %q", input)
	}
}

func TestTruthy(t *testing.T) {
	for _, s := range []string{"true", "TRUE", "1", "yes", "Yes", "y"} {
		assert.True(t, Truthy(s), "input %q", s)
	}
	for _, s := range []string{"", "0", "no", "false", "maybe"} {
		assert.False(t, Truthy(s), "input %q", s)
	}
}

func TestReduceLocation(t *testing.T) {
	cases := map[string]string{
		"123 Main St, Springfield, IL, USA": "Springfield, USA",
		"Springfield, il, USA":              "Springfield, USA",
		"Paris, France":                     "Paris, France",
		"Toronto, ON, Canada":               "Toronto, Canada",
		"Munich, BY, Germany":               "Munich, Germany",
		"London, UK":                        "London, UK",
		"Berlin":                            "Berlin",
		"  Oslo , Norway ":                  "Oslo, Norway",
		"":                                  "",
	}
	for input, want := range cases {
		assert.Equal(t, want, ReduceLocation(input), "input %q", input)
	}
}
