package domain

import (
	"fmt"
	"strings"
)

// UploadOutcome accumulates the per-entity counters for one ingestion
// pass. Conflicts recovered as "already exists" land in the Skipped
// counters; only non-conflict write errors land in CompaniesFailed.
type UploadOutcome struct {
	CompaniesCreated int `json:"companies_created"`
	CompaniesSkipped int `json:"companies_skipped"`
	CompaniesFailed  int `json:"companies_failed"`
	LeadsCreated     int `json:"leads_created"`
	LeadsSkipped     int `json:"leads_skipped"`
}

// Summary renders a human-readable one-liner listing only the non-zero
// counters, e.g. "2 companies created, 1 company skipped, 5 leads created".
func (o UploadOutcome) Summary() string {
	var parts []string
	add := func(n int, singular, plural string) {
		if n == 0 {
			return
		}
		label := plural
		if n == 1 {
			label = singular
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, label))
	}
	add(o.CompaniesCreated, "company created", "companies created")
	add(o.CompaniesSkipped, "company skipped (existing)", "companies skipped (existing)")
	add(o.CompaniesFailed, "company failed", "companies failed")
	add(o.LeadsCreated, "lead created", "leads created")
	add(o.LeadsSkipped, "lead skipped (duplicate)", "leads skipped (duplicate)")
	if len(parts) == 0 {
		return "nothing to import"
	}
	return strings.Join(parts, ", ")
}
