// Package plugin provides an extensible plugin system for Pension.
// Plugins can hook into lifecycle and ledger events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/contribution"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/transfer"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. p is the *pension.Pension.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, p interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Account hooks
// ──────────────────────────────────────────────────

// OnContribution is called after a deposit has been persisted.
type OnContribution interface {
	Plugin
	OnContribution(ctx context.Context, c *contribution.Contribution) error
}

// OnAccountConfigured is called after retirement settings have been persisted.
type OnAccountConfigured interface {
	Plugin
	OnAccountConfigured(ctx context.Context, a *account.Account) error
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnPayoutExecuted is called after value was transferred and the corpus debited.
type OnPayoutExecuted interface {
	Plugin
	OnPayoutExecuted(ctx context.Context, p *payout.Payout) error
}

// OnPayoutSkipped is called when a payout computed to zero.
type OnPayoutSkipped interface {
	Plugin
	OnPayoutSkipped(ctx context.Context, p *payout.Payout) error
}

// OnPayoutFailed is called when the transfer was rejected.
type OnPayoutFailed interface {
	Plugin
	OnPayoutFailed(ctx context.Context, p *payout.Payout, err error) error
}

// OnPayoutDenied is called when a payout request was refused before any
// transfer was attempted, e.g. because retirement has not been reached.
type OnPayoutDenied interface {
	Plugin
	OnPayoutDenied(ctx context.Context, accountID account.ID, reason error) error
}

// ──────────────────────────────────────────────────
// Transfer providers
// ──────────────────────────────────────────────────

// TransferProvider supplies the Transferer used for payouts when none was
// configured on the engine directly.
type TransferProvider interface {
	Plugin
	Transferer() transfer.Transferer
}
