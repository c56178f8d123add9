// Package database persists generated maps, terrain types and API keys in
// SQLite or PostgreSQL.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database wraps the connection and its dialect.
type Database struct {
	db      *sql.DB
	dialect Dialect
	qb      *QueryBuilder
}

// Open opens or creates the SQLite database at path.
func Open(path string) (*Database, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig connects to the configured driver and runs migrations.
func OpenWithConfig(cfg Config) (*Database, error) {
	dialect := NewDialect(DialectType(cfg.Driver))

	var dsn string
	switch DialectType(cfg.Driver) {
	case DialectPostgres:
		dsn = cfg.Postgres.DSN()
	case DialectSQLite, "":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = cfg.SQLitePath
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if DialectType(cfg.Driver) == DialectPostgres {
		if cfg.Postgres.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		}
		if cfg.Postgres.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		}
		if cfg.Postgres.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init statement %q failed: %w", stmt, err)
		}
	}

	d := &Database{db: db, dialect: dialect, qb: NewQueryBuilder(dialect)}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Dialect returns the active dialect.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// DB returns the underlying sql.DB.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Ping checks the connection; used by the health endpoint.
func (d *Database) Ping() error {
	return d.db.Ping()
}

func (d *Database) exec(query string, args ...any) (sql.Result, error) {
	return d.db.Exec(d.qb.Build(query), args...)
}

func (d *Database) query(query string, args ...any) (*sql.Rows, error) {
	return d.db.Query(d.qb.Build(query), args...)
}

func (d *Database) queryRow(query string, args ...any) *sql.Row {
	return d.db.QueryRow(d.qb.Build(query), args...)
}

// migrate creates the schema if it doesn't exist.
func (d *Database) migrate() error {
	jsonType := d.dialect.JSONType()
	tsType := d.dialect.TimestampType()

	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS maps (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			seed BIGINT NOT NULL DEFAULT 0,
			has_seed INTEGER NOT NULL DEFAULT 0,
			terrains %[1]s NOT NULL,
			hexes %[1]s NOT NULL,
			created_at %[2]s NOT NULL
		)`, jsonType, tsType),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS terrain_types (
			category TEXT NOT NULL DEFAULT 'standard',
			name TEXT NOT NULL,
			symbol TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			compatibility_data %s NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (category, name)
		)`, jsonType),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS api_keys (
			id TEXT PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			key_prefix TEXT UNIQUE NOT NULL,
			key_hash TEXT NOT NULL,
			created_at %[1]s NOT NULL,
			last_used %[1]s
		)`, tsType),

		`CREATE INDEX IF NOT EXISTS idx_maps_created_at ON maps(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_terrain_types_category ON terrain_types(category, position)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
