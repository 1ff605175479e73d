package credstore

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens (creating if needed) a SQLite-backed credential
// store at the given path. The caller owns the store and must Close it.
func OpenSQLite(path string, opts ...SQLStoreOption) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("credstore: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("credstore: ping %s: %w", path, err)
	}
	// A credential store is single-writer; contention is not expected.
	db.SetMaxOpenConns(1)

	store, err := NewSQLStore(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
