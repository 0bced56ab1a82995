// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"strconv"
	"strings"

	"github.com/lib/pq"

	"sekolahku/core"
)

func pqStringArray(vals []string) pq.StringArray { return pq.StringArray(vals) }

func itoa(n int) string { return strconv.Itoa(n) }

// orderClause renders an ORDER BY from the service-level ordering, falling
// back to `fallback` when none is given. Field names come from our own
// bindings, never from user input.
func orderClause(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + fallback
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
