// Package db opens the blog's SQLite database and applies its embedded
// schema migrations.
package db

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/oops"
)

// WAL keeps concurrent readers off the writer's back, busy_timeout makes the
// single writer queue instead of failing, and foreign_keys turns on the
// referential-integrity checks the schema relies on.
const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// Open opens (creating if needed) the SQLite database at path and brings its
// schema up to date.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, oops.Code("DB_OPEN_FAILED").With("path", path).Wrap(err)
		}
	}
	database, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, oops.Code("DB_OPEN_FAILED").With("path", path).Wrap(err)
	}
	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, oops.Code("DB_PING_FAILED").With("path", path).Wrap(err)
	}
	if err := Migrate(database); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}
