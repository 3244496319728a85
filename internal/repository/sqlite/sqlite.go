// Package sqlite implements the repository interfaces on an embedded
// SQLite database.
//
// The driver is modernc.org/sqlite — a pure-Go translation of SQLite, so
// no C toolchain is needed and cross-compilation just works. The blank
// import below registers it with database/sql under the name "sqlite".
//
// The UNIQUE constraints in the schema are the authoritative enforcement
// of every uniqueness invariant in the system: users.username, users.email,
// users.github_id, and blogs.slug. Application code treats the resulting
// constraint-violation error (surfaced as apperror.ErrConflict) as the real
// conflict signal; any SELECT-before-INSERT it does first is best-effort.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB pool. The server owns its lifecycle: New at startup,
// Close on shutdown. The repository implementations hang off Users and
// Blogs, sharing the pool.
type DB struct {
	conn *sql.DB
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserStore {
	return &UserStore{db: db}
}

// Blogs returns the blog repository backed by this database.
func (db *DB) Blogs() *BlogStore {
	return &BlogStore{db: db}
}

// New opens (creating if necessary) the database at dbPath and runs the
// schema migration. Use ":memory:" in tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an actual connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight — SQLite's
	// default journal mode locks the whole file per write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	// github_id is nullable: password accounts store NULL there, and
	// SQLite's UNIQUE treats NULLs as distinct, so only real GitHub IDs
	// collide.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			role          TEXT NOT NULL DEFAULT 'reader',
			github_id     INTEGER UNIQUE,
			last_login_at DATETIME,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS blogs (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			subtitle   TEXT NOT NULL DEFAULT '',
			content    TEXT NOT NULL DEFAULT '',
			slug       TEXT NOT NULL UNIQUE,
			author_id  TEXT NOT NULL REFERENCES users(id),
			status     TEXT NOT NULL DEFAULT 'draft',
			image      TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_blogs_status_created ON blogs(status, created_at);
		CREATE INDEX IF NOT EXISTS idx_blogs_author ON blogs(author_id);
	`)
	if err != nil {
		return fmt.Errorf("creating blogs table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite surfaces these as generic driver errors, so
// matching the documented message text is the portable check.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
