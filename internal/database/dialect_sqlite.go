package database

import "strings"

// SQLiteDialect implements Dialect for modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string { return "sqlite" }

// Placeholder returns "?" for every position.
func (d *SQLiteDialect) Placeholder(int) string { return "?" }

// InitStatements enables WAL and a busy timeout so concurrent request
// handlers wait on locks instead of failing.
func (d *SQLiteDialect) InitStatements() []string {
	return []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
}

func (d *SQLiteDialect) JSONType() string { return "TEXT" }

func (d *SQLiteDialect) TimestampType() string { return "TIMESTAMP" }

func (d *SQLiteDialect) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
