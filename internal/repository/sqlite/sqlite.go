// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage. The
// whole system is a single-process, single-database service, which is exactly
// the deployment SQLite is built for.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C
// compiler installed and cross-compilation becomes painful. modernc.org/sqlite
// is a pure Go translation of the SQLite C code — works everywhere Go works.
//
// WHERE THE INVARIANTS LIVE:
// Two of the system's invariants are enforced HERE, at the database, rather
// than by read-then-write checks in the service layer:
//
//   - at most one live (Pending/Approved) charity role request per email
//     → partial unique index ux_requests_live_charity
//   - at most one favorite per (user, donation)
//     → unique index ux_favorites_user_donation
//
// A check-then-insert in application code has a window between the check and
// the insert where a concurrent request slips through. A unique index has no
// such window. The third invariant — at most one Accepted pickup request per
// donation — is enforced by running accept's two phases inside one
// transaction (see request.go).
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// BLANK IMPORT:
	// The underscore import is a "side-effect only" import: the package's
	// init() registers itself with database/sql as a driver named "sqlite".
	// After this import, sql.Open("sqlite", ...) knows how to talk to SQLite.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and owns one repository per aggregate.
// Each repo shares the same pool; splitting them keeps method sets aligned
// with the interfaces in internal/repository (and avoids one giant type with
// six colliding Create methods).
type DB struct {
	conn *sql.DB

	Users        *UserRepo
	Donations    *DonationRepo
	Requests     *RequestRepo
	Reviews      *ReviewRepo
	Favorites    *FavoriteRepo
	Transactions *TransactionRepo
}

type UserRepo struct{ conn *sql.DB }
type DonationRepo struct{ conn *sql.DB }
type RequestRepo struct{ conn *sql.DB }
type ReviewRepo struct{ conn *sql.DB }
type FavoriteRepo struct{ conn *sql.DB }
type TransactionRepo struct{ conn *sql.DB }

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/foodbridge.db"  → file-based database (persistent)
//   - ":memory:"            → in-memory database (great for tests, lost on close)
//
// sql.Open() does NOT actually open a connection — it just creates a pool
// manager. We call Ping() to force an immediate connection so a bad path or
// permissions issue surfaces at startup, not on the first query.
func New(dbPath string) (*DB, error) {
	// busy_timeout is a PER-CONNECTION setting, so it goes in the DSN: the
	// driver applies a _pragma parameter to every connection the pool opens,
	// whereas an Exec'd PRAGMA only reaches whichever connection it ran on.
	// Without it a second concurrent writer fails immediately with
	// SQLITE_BUSY instead of waiting for the first to commit.
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	conn, err := sql.Open("sqlite", dbPath+sep+"_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode:
	// Default SQLite locks the entire database during writes. WAL mode allows
	// concurrent reads WHILE a write is happening — important for a web
	// server where many requests hit the DB at once.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite (for backwards compatibility).
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{
		conn:         conn,
		Users:        &UserRepo{conn: conn},
		Donations:    &DonationRepo{conn: conn},
		Requests:     &RequestRepo{conn: conn},
		Reviews:      &ReviewRepo{conn: conn},
		Favorites:    &FavoriteRepo{conn: conn},
		Transactions: &TransactionRepo{conn: conn},
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Wherever you call New(),
// immediately defer Close() so the WAL is flushed and the file lock released
// even if a panic occurs.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes the migrations
// idempotent — safe to run on every startup.
func (db *DB) migrate() error {
	// Users: email is the natural key (asserted by the identity provider).
	// Role defaults to plain "user"; only admin actions or an approved
	// charity role request change it.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			email       TEXT PRIMARY KEY,
			name        TEXT NOT NULL DEFAULT '',
			photo_url   TEXT NOT NULL DEFAULT '',
			role        TEXT NOT NULL DEFAULT 'user',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_log_in DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS donations (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			food_type        TEXT NOT NULL,
			quantity         TEXT NOT NULL,
			pickup_time      TEXT NOT NULL,
			restaurant_name  TEXT NOT NULL,
			restaurant_email TEXT NOT NULL,
			location         TEXT NOT NULL,
			image            TEXT NOT NULL DEFAULT '',
			status           TEXT NOT NULL DEFAULT 'Pending',
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_donations_restaurant
			ON donations(restaurant_email);
	`)
	if err != nil {
		return fmt.Errorf("creating donations table: %w", err)
	}

	// One table for both request purposes, discriminated by `purpose` —
	// the unified-ledger shape the rest of the system expects. Fields that
	// belong to the other purpose stay at their column default.
	//
	// ux_requests_live_charity is a PARTIAL unique index: it only covers
	// rows that are a charity role request in a live state. That is the
	// "at most one outstanding application per email" invariant, enforced
	// where a race can't get past it.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS requests (
			id                TEXT PRIMARY KEY,
			purpose           TEXT NOT NULL,
			status            TEXT NOT NULL DEFAULT 'Pending',
			email             TEXT NOT NULL,
			donation_id       TEXT NOT NULL DEFAULT '',
			charity_name      TEXT NOT NULL DEFAULT '',
			description       TEXT NOT NULL DEFAULT '',
			pickup_time       TEXT NOT NULL DEFAULT '',
			pickup_date       DATETIME,
			organization_name TEXT NOT NULL DEFAULT '',
			mission_statement TEXT NOT NULL DEFAULT '',
			transaction_id    TEXT NOT NULL DEFAULT '',
			amount            REAL NOT NULL DEFAULT 0,
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_requests_donation ON requests(donation_id);
		CREATE INDEX IF NOT EXISTS idx_requests_email ON requests(email);
		CREATE UNIQUE INDEX IF NOT EXISTS ux_requests_live_charity
			ON requests(email)
			WHERE purpose = 'Charity Role Request'
			  AND status IN ('Pending', 'Approved');
	`)
	if err != nil {
		return fmt.Errorf("creating requests table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS favorites (
			id          TEXT PRIMARY KEY,
			user_email  TEXT NOT NULL,
			donation_id TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS ux_favorites_user_donation
			ON favorites(user_email, donation_id);
	`)
	if err != nil {
		return fmt.Errorf("creating favorites table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reviews (
			id            TEXT PRIMARY KEY,
			donation_id   TEXT NOT NULL,
			charity_email TEXT NOT NULL,
			rating        INTEGER NOT NULL,
			comment       TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_donation ON reviews(donation_id);
		CREATE INDEX IF NOT EXISTS idx_reviews_author ON reviews(charity_email);
	`)
	if err != nil {
		return fmt.Errorf("creating reviews table: %w", err)
	}

	// Append-only. transaction_id is the provider's id, client-supplied;
	// deliberately NOT unique (duplicate submissions are recorded as-is) and
	// NOT a foreign key — the join to requests happens at read time.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id             TEXT PRIMARY KEY,
			email          TEXT NOT NULL,
			amount         REAL NOT NULL DEFAULT 0,
			transaction_id TEXT NOT NULL,
			purpose        TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT 'succeeded',
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_email ON transactions(email);
	`)
	if err != nil {
		return fmt.Errorf("creating transactions table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE index violation.
// The pure-Go driver surfaces constraint failures as plain errors carrying
// SQLite's canonical "UNIQUE constraint failed" text, so string matching is
// the only handle we get.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isLocked reports whether err is SQLite's busy/locked error. With
// busy_timeout set this only surfaces under sustained write contention, or
// when a deferred transaction's read snapshot went stale before its first
// write — both cases where the caller lost a race, not a server fault.
func isLocked(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "SQLITE_BUSY"))
}
