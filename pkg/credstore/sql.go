package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLStore is a SQL-backed credential store. It works with any
// database/sql compatible driver using ? placeholders; OpenSQLite is
// the usual entry point. Schema:
//
//	CREATE TABLE sweetshop_credentials (
//	    key        TEXT PRIMARY KEY,
//	    value      TEXT NOT NULL,
//	    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
//	);
type SQLStore struct {
	db        *sql.DB
	tableName string
}

// SQLStoreOption configures SQLStore behavior.
type SQLStoreOption func(*SQLStore)

// WithTableName sets the table name for credential storage.
// Default: "sweetshop_credentials".
func WithTableName(name string) SQLStoreOption {
	return func(s *SQLStore) {
		if name != "" {
			s.tableName = name
		}
	}
}

// NewSQLStore creates a credential store over an existing database
// handle and ensures the schema exists.
func NewSQLStore(db *sql.DB, opts ...SQLStoreOption) (*SQLStore, error) {
	store := &SQLStore{
		db:        db,
		tableName: "sweetshop_credentials",
	}
	for _, opt := range opts {
		opt(store)
	}

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`, store.tableName)
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("credstore: create schema: %w", err)
	}
	return store, nil
}

// Save stores the token and username in a single transaction.
func (s *SQLStore) Save(ctx context.Context, creds Credentials) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("credstore: begin save: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`, s.tableName)
	pairs := []struct{ key, value string }{
		{keyToken, creds.Token},
		{keyUsername, creds.Username},
	}
	for _, p := range pairs {
		if _, err := tx.ExecContext(ctx, query, p.key, p.value); err != nil {
			return fmt.Errorf("credstore: save %s: %w", p.key, err)
		}
	}
	return tx.Commit()
}

// Load retrieves the persisted credentials, or (nil, nil) when no token
// is stored.
func (s *SQLStore) Load(ctx context.Context) (*Credentials, error) {
	query := fmt.Sprintf(`SELECT key, value FROM %s WHERE key IN (?, ?)`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query, keyToken, keyUsername)
	if err != nil {
		return nil, fmt.Errorf("credstore: load: %w", err)
	}
	defer rows.Close()

	var creds Credentials
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("credstore: scan: %w", err)
		}
		switch key {
		case keyToken:
			creds.Token = value
		case keyUsername:
			creds.Username = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("credstore: load: %w", err)
	}

	if creds.Token == "" {
		return nil, nil
	}
	return &creds, nil
}

// Clear removes the token and username together.
func (s *SQLStore) Clear(ctx context.Context) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key IN (?, ?)`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, keyToken, keyUsername); err != nil {
		return fmt.Errorf("credstore: clear: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return errors.New("credstore: already closed")
	}
	err := s.db.Close()
	s.db = nil
	return err
}
