package database

import "fmt"

// migrations are applied in order at startup. Statements must be
// idempotent (CREATE TABLE IF NOT EXISTS) because there is no version
// table; the schema is small enough that re-running is cheap.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		ticker     TEXT PRIMARY KEY,
		body       TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id         TEXT PRIMARY KEY,
		date       TEXT NOT NULL,
		ticker     TEXT NOT NULL,
		side       TEXT NOT NULL CHECK (side IN ('BUY', 'SELL')),
		quantity   REAL NOT NULL,
		price      REAL NOT NULL,
		note       TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_ticker ON trades (ticker, date)`,
	`CREATE TABLE IF NOT EXISTS positions (
		ticker     TEXT PRIMARY KEY,
		quantity   REAL NOT NULL,
		avg_price  REAL,
		currency   TEXT NOT NULL DEFAULT 'EUR',
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		action     TEXT NOT NULL,
		detail     TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS report_snapshots (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		generated_at TEXT NOT NULL,
		markdown     TEXT NOT NULL,
		payload      BLOB,
		slack_status TEXT NOT NULL DEFAULT '',
		email_status TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS client_cache (
		source     TEXT NOT NULL,
		key        TEXT NOT NULL,
		data       BLOB NOT NULL,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (source, key)
	)`,
}

// Migrate applies the schema.
func (db *DB) Migrate() error {
	for i, stmt := range migrations {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
