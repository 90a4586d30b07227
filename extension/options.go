package extension

import (
	"time"

	"github.com/xraph/pension"
	"github.com/xraph/pension/plugin"
	"github.com/xraph/pension/store"
	"github.com/xraph/pension/transfer"
)

// Option configures the Pension Forge extension.
type Option func(*Extension)

// WithStore sets the store for the pension engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPensionOption passes a pension.Option through to the underlying engine.
func WithPensionOption(opt pension.Option) Option {
	return func(e *Extension) {
		e.pensionOpts = append(e.pensionOpts, opt)
	}
}

// WithPlugin registers a pension plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.pensionOpts = append(e.pensionOpts, pension.WithPlugin(p))
	}
}

// WithTransferer sets the service that releases payout value.
func WithTransferer(t transfer.Transferer) Option {
	return func(e *Extension) {
		e.pensionOpts = append(e.pensionOpts, pension.WithTransferer(t))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithPayoutInterval sets the minimum time between two payouts of one account.
func WithPayoutInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.PayoutInterval = d }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}
