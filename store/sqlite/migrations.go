package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Pension store (SQLite).
var Migrations = migrate.NewGroup("pension")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_pension_accounts",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS pension_accounts (
    id              TEXT PRIMARY KEY,
    corpus          TEXT NOT NULL DEFAULT '0',
    retirement_time TEXT NOT NULL DEFAULT '1970-01-01T00:00:00.000000000Z',
    monthly_percent INTEGER NOT NULL DEFAULT 0 CHECK (monthly_percent BETWEEN 0 AND 100),
    last_payout_at  TEXT,
    created_at      TEXT NOT NULL,
    updated_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pension_accounts_retirement ON pension_accounts (retirement_time);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS pension_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_pension_payouts",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS pension_payouts (
    id            TEXT PRIMARY KEY,
    account_id    TEXT NOT NULL,
    amount        TEXT NOT NULL,
    percent       INTEGER NOT NULL DEFAULT 0,
    corpus_before TEXT NOT NULL,
    corpus_after  TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'executed',
    transfer_ref  TEXT NOT NULL DEFAULT '',
    executed_at   TEXT NOT NULL,
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pension_payouts_account ON pension_payouts (account_id, executed_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS pension_payouts`)
				return err
			},
		},
	)
}
