package engine

import (
	"database/sql"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./db.sqlite". For in-memory
// databases, pass ":memory:".
func Open(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) }

// OpenIndexed opens a SQLite database with the a5_* cell functions already
// registered. Registration happens before the first connection is created,
// so every connection in the pool sees the functions.
func OpenIndexed(dsn string) (*sql.DB, error) {
	if err := RegisterCellFunctions(nil); err != nil {
		return nil, err
	}
	return Open(dsn)
}
