package reconcile

import "errors"

// Sentinel errors for the reconciliation layer.
var (
	// ErrConflict marks a store uniqueness violation. Repositories must
	// return it (wrapped is fine) for that condition and nothing else;
	// the engine's recovery protocol depends on the distinction.
	ErrConflict = errors.New("uniqueness conflict")

	// ErrNoCandidates is returned when a commit is requested with an
	// empty staged set.
	ErrNoCandidates = errors.New("no candidates to reconcile")
)
