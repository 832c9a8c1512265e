package sqldb

import "strings"

// OrderBy defines a validated ORDER BY clause item.
type OrderBy struct {
	Column Column
	Desc   bool
}

// OrderByClause joins items into " ORDER BY a ASC, b DESC", or "" for none.
func OrderByClause(orders []OrderBy) string {
	if len(orders) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(16 * len(orders))
	b.WriteString(" ORDER BY ")
	for i, o := range orders {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(o.Column.Name())
		if o.Desc {
			b.WriteString(" DESC")
		} else {
			b.WriteString(" ASC")
		}
	}
	return b.String()
}
