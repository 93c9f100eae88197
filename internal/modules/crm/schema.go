package crm

import (
	"database/sql"
	"fmt"
)

// schema is the crm.db schema. The wider CRM owns these tables; the engine
// only needs them to exist for tests and first boot.
const schema = `
CREATE TABLE IF NOT EXISTS advisors (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL,
	email TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS households (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	advisor_id       TEXT NOT NULL REFERENCES advisors(id),
	risk_tolerance   TEXT,
	last_review_date INTEGER
);

CREATE TABLE IF NOT EXISTS accounts (
	id           TEXT PRIMARY KEY,
	household_id TEXT NOT NULL REFERENCES households(id),
	name         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id           TEXT NOT NULL REFERENCES accounts(id),
	ticker               TEXT NOT NULL,
	company_name         TEXT,
	current_value        REAL NOT NULL,
	asset_class          TEXT,
	sector               TEXT,
	shares               REAL NOT NULL DEFAULT 0,
	cost_basis_per_share REAL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	recipient  TEXT NOT NULL,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_households_advisor ON households(advisor_id);
CREATE INDEX IF NOT EXISTS idx_accounts_household ON accounts(household_id);
CREATE INDEX IF NOT EXISTS idx_holdings_account ON holdings(account_id);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient);
`

// EnsureSchema creates the crm.db tables if they do not exist
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply crm schema: %w", err)
	}
	return nil
}
