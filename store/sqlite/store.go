package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/pension"
	"github.com/xraph/pension/account"
	"github.com/xraph/pension/payout"
	pensionstore "github.com/xraph/pension/store"
)

// compile-time interface check
var _ pensionstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("pension/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("pension/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, accountID account.ID) (*account.Account, error) {
	m := new(accountModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", accountID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, pension.ErrAccountNotFound
		}
		return nil, fmt.Errorf("pension/sqlite: get account: %w", err)
	}
	return fromAccountModel(m)
}

func (s *Store) SetAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("corpus = EXCLUDED.corpus").
		Set("retirement_time = EXCLUDED.retirement_time").
		Set("monthly_percent = EXCLUDED.monthly_percent").
		Set("last_payout_at = EXCLUDED.last_payout_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("pension/sqlite: set account: %w", err)
	}
	return nil
}

// ==================== Payout Store ====================

func (s *Store) RecordPayout(ctx context.Context, p *payout.Payout) error {
	m := toPayoutModel(p)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("pension/sqlite: record payout: %w", err)
	}
	return nil
}

func (s *Store) ListPayouts(ctx context.Context, accountID account.ID, opts payout.ListOpts) ([]*payout.Payout, error) {
	var models []payoutModel
	q := s.sdb.NewSelect(&models).
		Where("account_id = ?", accountID.String()).
		OrderExpr("executed_at DESC, id DESC")

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	} else if opts.Offset > 0 {
		q = q.Limit(math.MaxInt) // SQLite only accepts OFFSET after LIMIT
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("pension/sqlite: list payouts: %w", err)
	}

	result := make([]*payout.Payout, len(models))
	for i := range models {
		p, err := fromPayoutModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
