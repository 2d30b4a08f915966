package store

import (
	"fmt"

	"github.com/pocketbase/dbx"
	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS courts (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	type           TEXT NOT NULL DEFAULT '',
	price_per_hour TEXT NOT NULL,
	capacity       INTEGER NOT NULL,
	is_covered     INTEGER NOT NULL DEFAULT 0,
	is_active      INTEGER NOT NULL DEFAULT 1,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reservations (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL REFERENCES users(id),
	court_id            TEXT NOT NULL REFERENCES courts(id),
	reference           TEXT NOT NULL DEFAULT '',
	start_time          TEXT NOT NULL,
	end_time            TEXT NOT NULL,
	total_price         TEXT NOT NULL,
	status              TEXT NOT NULL,
	notes               TEXT NOT NULL DEFAULT '',
	created_at          TEXT NOT NULL,
	cancelled_at        TEXT,
	cancellation_reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_reservations_court_time ON reservations(court_id, start_time);
CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id);
`

// Open connects to the sqlite database and ensures the schema exists.
func Open(dsn string) (*dbx.DB, error) {
	db, err := dbx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.NewQuery("PRAGMA busy_timeout = 5000").Execute(); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.NewQuery(schema).Execute(); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}
