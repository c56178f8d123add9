package database

// Dialect covers the SQL differences between SQLite and PostgreSQL that the
// map store runs into.
type Dialect interface {
	// DriverName returns the name registered with database/sql.
	DriverName() string

	// Placeholder returns the parameter marker for a 1-indexed position.
	Placeholder(position int) string

	// InitStatements run once after connecting, before migrations.
	InitStatements() []string

	// JSONType is the column type used for JSON documents.
	JSONType() string

	// TimestampType is the column type used for creation and usage times.
	TimestampType() string

	// IsDuplicateKeyError reports a unique constraint violation.
	IsDuplicateKeyError(err error) bool
}

// DialectType identifies the database dialect.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect returns the Dialect for a driver name; unknown names get SQLite.
func NewDialect(dialectType DialectType) Dialect {
	switch dialectType {
	case DialectPostgres:
		return &PostgresDialect{}
	default:
		return &SQLiteDialect{}
	}
}
