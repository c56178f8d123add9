package database

import "strings"

// QueryBuilder rewrites queries written with ? markers for the active dialect.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build replaces each ? outside a quoted string literal with the dialect's
// placeholder for its position.
//
//	input:    "SELECT * FROM maps WHERE id = ? AND name <> '?'"
//	SQLite:   unchanged
//	Postgres: "SELECT * FROM maps WHERE id = $1 AND name <> '?'"
func (qb *QueryBuilder) Build(query string) string {
	if _, ok := qb.dialect.(*SQLiteDialect); ok {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	position := 1
	inString := false

	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inString = !inString
			sb.WriteByte(ch)
		case ch == '?' && !inString:
			sb.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			sb.WriteByte(ch)
		}
	}

	return sb.String()
}
