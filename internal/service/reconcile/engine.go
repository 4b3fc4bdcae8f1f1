package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/leadline/leadline/internal/domain"
	"github.com/leadline/leadline/internal/ingest"
)

// WriteStatus classifies the outcome of one write attempt.
type WriteStatus int

const (
	// Created: the row was inserted by this pass.
	Created WriteStatus = iota
	// AlreadyExists: another writer won the race; the winning row was
	// recovered. Success, not an error.
	AlreadyExists
	// Failed: a non-conflict error that survived all recovery attempts.
	Failed
)

// WriteResult is the explicit result of a single write attempt. The
// retry policy in the engine is a small state machine over this type
// rather than nested error handling.
type WriteResult struct {
	Status WriteStatus
	ID     string
	Name   string // canonical stored name, for AlreadyExists recoveries
	Err    error
}

// ProgressFunc receives incremental commit progress per phase
// ("companies", "leads"): rows completed out of rows total.
type ProgressFunc func(phase string, done, total int)

// Notifier receives the ids of leads created by a pass. Implementations
// must not block; the engine calls it once, fire-and-forget, after the
// outcome is final.
type Notifier interface {
	LeadsCreated(tenantID string, leadIDs []string)
}

// DefaultBatchSize is the insert chunk size when none is configured.
const DefaultBatchSize = 500

// Engine reconciles staged candidates against the store.
type Engine struct {
	repo       Repository
	batchSize  int
	notifier   Notifier
	onProgress ProgressFunc
}

// NewEngine creates an engine. batchSize <= 0 uses DefaultBatchSize.
func NewEngine(repo Repository, batchSize int) *Engine {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Engine{repo: repo, batchSize: batchSize}
}

// SetNotifier installs the post-ingestion classification hook.
func (e *Engine) SetNotifier(n Notifier) { e.notifier = n }

// SetProgressFunc installs the progress callback.
func (e *Engine) SetProgressFunc(f ProgressFunc) { e.onProgress = f }

// Run reconciles the candidates for one tenant and performs the writes.
//
// The pass is sequenced: snapshot build, then company writes, then lead
// writes; lead rows need resolved company ids, so no reordering is safe. Per-row
// conflicts are recovered, non-conflict row failures are counted and the
// pass continues; only snapshot failure or context cancellation aborts.
// Effects of completed chunks are never rolled back: re-running the
// whole pass is safe because recovered conflicts converge to "skipped".
func (e *Engine) Run(ctx context.Context, tenantID string, candidates []ingest.Candidate) (*domain.UploadOutcome, error) {
	outcome := &domain.UploadOutcome{}
	if len(candidates) == 0 {
		return outcome, ErrNoCandidates
	}

	companies, err := e.repo.CompaniesByTenant(ctx, tenantID)
	if err != nil {
		return outcome, fmt.Errorf("company snapshot: %w", err)
	}
	leadKeys, err := e.repo.LeadKeysByTenant(ctx, tenantID)
	if err != nil {
		return outcome, fmt.Errorf("lead key snapshot: %w", err)
	}

	// Partition distinct candidate company names into hits against the
	// snapshot and companies to create. First occurrence of a name wins
	// the draft attributes.
	resolved := make(map[string]CompanyRef, len(candidates))
	seen := make(map[string]bool, len(candidates))
	var toCreate []domain.Company
	for _, c := range candidates {
		key := domain.CompanyKey(c.Company.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if ref, ok := companies[key]; ok {
			resolved[key] = ref
			outcome.CompaniesSkipped++
			continue
		}
		toCreate = append(toCreate, c.Company)
	}

	done, total := 0, len(toCreate)
	for _, chunk := range chunks(toCreate, e.batchSize) {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		inserted, err := e.repo.InsertCompanies(ctx, chunk)
		if err == nil {
			for _, c := range inserted {
				resolved[domain.CompanyKey(c.Name)] = CompanyRef{ID: c.ID, Name: c.Name}
			}
			outcome.CompaniesCreated += len(inserted)
		} else {
			// Batch failed (conflict or transient): retry once at row
			// granularity so one bad row doesn't sink the chunk.
			for _, c := range chunk {
				switch res := e.writeCompany(ctx, c); res.Status {
				case Created:
					resolved[domain.CompanyKey(c.Name)] = CompanyRef{ID: res.ID, Name: c.Name}
					outcome.CompaniesCreated++
				case AlreadyExists:
					resolved[domain.CompanyKey(c.Name)] = CompanyRef{ID: res.ID, Name: res.Name}
					outcome.CompaniesSkipped++
				case Failed:
					outcome.CompaniesFailed++
					log.Printf("[reconcile] company %q: insert failed: %v", c.Name, res.Err)
				}
			}
		}
		done += len(chunk)
		e.progress("companies", done, total)
	}

	// Leads are written with the resolved canonical company name so
	// rows that differed only by case stay consistent. Leads whose
	// company failed have no id to reference and are excluded. The key
	// set is updated within the pass so in-file duplicates are caught
	// without another round-trip.
	var toInsert []domain.Lead
	for _, c := range candidates {
		ref, ok := resolved[domain.CompanyKey(c.Lead.CompanyName)]
		if !ok {
			continue
		}
		lead := c.Lead
		lead.CompanyName = ref.Name
		key := domain.LeadKey(tenantID, lead.CompanyName, lead.ContactPerson)
		if _, dup := leadKeys[key]; dup {
			outcome.LeadsSkipped++
			continue
		}
		leadKeys[key] = struct{}{}
		toInsert = append(toInsert, lead)
	}

	var createdIDs []string
	done, total = 0, len(toInsert)
	for _, chunk := range chunks(toInsert, e.batchSize) {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		inserted, err := e.repo.InsertLeads(ctx, chunk)
		if err == nil {
			outcome.LeadsCreated += len(inserted)
			for _, l := range inserted {
				createdIDs = append(createdIDs, l.ID)
			}
		} else {
			for _, l := range chunk {
				id, rowErr := e.repo.InsertLead(ctx, l)
				switch {
				case rowErr == nil:
					outcome.LeadsCreated++
					createdIDs = append(createdIDs, id)
				case errors.Is(rowErr, ErrConflict):
					// Someone else created it; that satisfies the
					// uniqueness invariant.
					outcome.LeadsSkipped++
				default:
					outcome.LeadsSkipped++
					log.Printf("[reconcile] lead %q@%q: insert failed: %v",
						l.ContactPerson, l.CompanyName, rowErr)
				}
			}
		}
		done += len(chunk)
		e.progress("leads", done, total)
	}

	log.Printf("[reconcile] tenant %s: %s", tenantID, outcome.Summary())

	if e.notifier != nil && len(createdIDs) > 0 {
		e.notifier.LeadsCreated(tenantID, createdIDs)
	}
	return outcome, nil
}

// writeCompany is the per-row fallback: insert, and on conflict recover
// the winning row by re-query instead of failing.
func (e *Engine) writeCompany(ctx context.Context, c domain.Company) WriteResult {
	id, err := e.repo.InsertCompany(ctx, c)
	if err == nil {
		return WriteResult{Status: Created, ID: id, Name: c.Name}
	}
	if errors.Is(err, ErrConflict) {
		ref, ferr := e.repo.FindCompanyByName(ctx, c.TenantID, c.Name)
		if ferr == nil && ref != nil {
			return WriteResult{Status: AlreadyExists, ID: ref.ID, Name: ref.Name}
		}
		if ferr != nil {
			err = fmt.Errorf("recover after conflict: %w", ferr)
		}
	}
	return WriteResult{Status: Failed, Err: err}
}

func (e *Engine) progress(phase string, done, total int) {
	if e.onProgress != nil {
		e.onProgress(phase, done, total)
	}
}

// chunks splits items into fixed-size batches, preserving order.
func chunks[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		out = append(out, items[:size])
		items = items[size:]
	}
	return append(out, items)
}
