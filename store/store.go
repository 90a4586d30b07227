package store

import (
	"context"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/payout"
)

// Store is the unified storage interface for all Pension entities.
type Store interface {
	// Account methods
	GetAccount(ctx context.Context, accountID account.ID) (*account.Account, error)
	SetAccount(ctx context.Context, a *account.Account) error

	// Payout history methods
	RecordPayout(ctx context.Context, p *payout.Payout) error
	ListPayouts(ctx context.Context, accountID account.ID, opts payout.ListOpts) ([]*payout.Payout, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ account.Store = (Store)(nil)
	_ payout.Store  = (Store)(nil)
)
