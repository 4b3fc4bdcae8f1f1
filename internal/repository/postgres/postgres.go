// Package postgres implements reconcile.Repository against PostgreSQL.
//
// Uniqueness violations (pq error 23505) are mapped to
// reconcile.ErrConflict so the engine can tell a lost race apart from a
// real failure. Table names take an environment prefix (dev_ in
// development) so development and production share a database.
package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/leadline/leadline/internal/service/reconcile"
)

// uniqueViolation is the Postgres error code for unique constraint hits.
const uniqueViolation = "23505"

func mapConflict(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, reconcile.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// placeholders builds "($1,$2,...),($k,...)" groups for a multi-row
// insert with width columns and rows rows.
func placeholders(rows, width int) string {
	var b strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for c := 0; c < width; c++ {
			if c > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteString(",NOW(),NOW())")
	}
	return b.String()
}
