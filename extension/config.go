package extension

import (
	"time"

	"github.com/xraph/pension/plugin"
)

// Config holds the Pension extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.pension" or "pension" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// PayoutInterval is the minimum time between two payouts of the same
	// account (default: 0, no cooldown).
	PayoutInterval time.Duration `json:"payout_interval" mapstructure:"payout_interval" yaml:"payout_interval"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PluginTimeout: plugin.DefaultTimeout,
	}
}
