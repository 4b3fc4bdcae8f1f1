// Package reconcile resolves staged candidate records against the
// existing company and lead dataset and performs the writes.
//
// The engine never holds a lock on the store. Convergence under
// concurrent uploads relies on the store's uniqueness constraints: a
// batch insert that hits a conflict falls back to per-row inserts, and a
// per-row conflict is recovered by re-querying the winning row rather
// than treated as a failure. Repository implementations live in
// repository/postgres/.
package reconcile
