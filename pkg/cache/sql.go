package cache

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLStore is a SQL-backed Store. It works with any database/sql
// compatible driver (PostgreSQL, MySQL, SQLite). Requires a table with
// schema:
//
//	CREATE TABLE weft_renders (
//	    path VARCHAR(512) PRIMARY KEY,
//	    markup TEXT NOT NULL,
//	    generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
//	    stale BOOLEAN NOT NULL DEFAULT FALSE
//	);
type SQLStore struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
	closed    bool
}

// SQLDialect represents the SQL dialect for query generation.
type SQLDialect int

const (
	// DialectPostgreSQL uses PostgreSQL syntax ($1, $2 placeholders).
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses MySQL syntax (? placeholders).
	DialectMySQL
	// DialectSQLite uses SQLite syntax (? placeholders).
	DialectSQLite
)

// SQLStoreOption configures SQLStore behavior.
type SQLStoreOption func(*sqlStoreConfig)

type sqlStoreConfig struct {
	tableName string
	dialect   SQLDialect
}

// WithSQLTableName sets the table name. Default: "weft_renders".
func WithSQLTableName(name string) SQLStoreOption {
	return func(c *sqlStoreConfig) {
		c.tableName = name
	}
}

// WithSQLDialect sets the SQL dialect for query generation.
// Default: DialectPostgreSQL.
func WithSQLDialect(dialect SQLDialect) SQLStoreOption {
	return func(c *sqlStoreConfig) {
		c.dialect = dialect
	}
}

// NewSQLStore creates a SQL-backed store.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) *SQLStore {
	cfg := &sqlStoreConfig{
		tableName: "weft_renders",
		dialect:   DialectPostgreSQL,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &SQLStore{
		db:        db,
		tableName: cfg.tableName,
		dialect:   cfg.dialect,
	}
}

// placeholder returns the placeholder syntax for the dialect.
func (s *SQLStore) placeholder(n int) string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Get retrieves an entry if it exists.
func (s *SQLStore) Get(ctx context.Context, key string) (*Entry, error) {
	if s.closed {
		return nil, ErrStoreClosed{}
	}

	query := fmt.Sprintf(`
		SELECT markup, generated_at, stale FROM %s WHERE path = %s
	`, s.tableName, s.placeholder(1))

	var entry Entry
	err := s.db.QueryRowContext(ctx, query, key).Scan(&entry.Markup, &entry.GeneratedAt, &entry.Stale)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Set stores an entry with a single upsert so readers never see a
// partial row.
func (s *SQLStore) Set(ctx context.Context, key string, entry *Entry) error {
	if s.closed {
		return ErrStoreClosed{}
	}

	var query string
	switch s.dialect {
	case DialectPostgreSQL:
		query = fmt.Sprintf(`
			INSERT INTO %s (path, markup, generated_at, stale)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (path) DO UPDATE SET
				markup = EXCLUDED.markup,
				generated_at = EXCLUDED.generated_at,
				stale = EXCLUDED.stale
		`, s.tableName)
	case DialectMySQL:
		query = fmt.Sprintf(`
			INSERT INTO %s (path, markup, generated_at, stale)
			VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				markup = VALUES(markup),
				generated_at = VALUES(generated_at),
				stale = VALUES(stale)
		`, s.tableName)
	case DialectSQLite:
		query = fmt.Sprintf(`
			INSERT OR REPLACE INTO %s (path, markup, generated_at, stale)
			VALUES (?, ?, ?, ?)
		`, s.tableName)
	}

	_, err := s.db.ExecContext(ctx, query, key, entry.Markup, entry.GeneratedAt, entry.Stale)
	return err
}

// Delete removes an entry.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if s.closed {
		return ErrStoreClosed{}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE path = %s`, s.tableName, s.placeholder(1))
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

// Clear removes all entries.
func (s *SQLStore) Clear(ctx context.Context) error {
	if s.closed {
		return ErrStoreClosed{}
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.tableName))
	return err
}

// Close marks the store closed. The underlying database connection is
// not closed, as it may be shared with other components.
func (s *SQLStore) Close() error {
	s.closed = true
	return nil
}

// CreateTable creates the render table if it doesn't exist.
// This is a convenience method for development/testing.
func (s *SQLStore) CreateTable(ctx context.Context) error {
	var query string
	switch s.dialect {
	case DialectPostgreSQL:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				path VARCHAR(512) PRIMARY KEY,
				markup TEXT NOT NULL,
				generated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				stale BOOLEAN NOT NULL DEFAULT FALSE
			)
		`, s.tableName)
	case DialectMySQL:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				path VARCHAR(512) PRIMARY KEY,
				markup MEDIUMTEXT NOT NULL,
				generated_at DATETIME NOT NULL,
				stale BOOLEAN NOT NULL DEFAULT FALSE
			)
		`, s.tableName)
	case DialectSQLite:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				path TEXT PRIMARY KEY,
				markup TEXT NOT NULL,
				generated_at TEXT NOT NULL,
				stale INTEGER NOT NULL DEFAULT 0
			)
		`, s.tableName)
	}

	_, err := s.db.ExecContext(ctx, query)
	return err
}
