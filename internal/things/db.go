// Package things reads completed tasks out of a Things 3 logbook
// database. The database is opened read-only; loggbok never writes to
// it.
package things

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Things task status codes.
const (
	statusCanceled  = 2
	statusCompleted = 3
)

// DB wraps a read-only connection to the Things logbook.
type DB struct {
	conn *sql.DB
}

// Open opens the logbook database at path in read-only mode.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("things: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("things: ping: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
