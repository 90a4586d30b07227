// Package extension provides the Forge extension adapter for Pension.
//
// It implements the forge.Extension interface to integrate Pension
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.pension" or "pension" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/pension"
	"github.com/xraph/pension/store"
	"github.com/xraph/pension/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "pension"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Retirement accrual and payout ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Pension as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config      Config
	engine      *pension.Pension
	store       store.Store
	pensionOpts []pension.Option
}

// New creates a new Pension Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Pension instance.
// This is nil until Register is called.
func (e *Extension) Engine() *pension.Pension { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the pension engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = pension.New(e.store, e.buildPensionOpts()...)

	return vessel.Provide(fapp.Container(), func() (*pension.Pension, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("pension: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("pension: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildPensionOpts constructs pension.Option values from the resolved config.
// Pass-through options come last so they win over config.
func (e *Extension) buildPensionOpts() []pension.Option {
	opts := make([]pension.Option, 0, len(e.pensionOpts)+2)

	if e.config.PluginTimeout > 0 {
		opts = append(opts, pension.WithPluginTimeout(e.config.PluginTimeout))
	}
	if e.config.PayoutInterval > 0 {
		opts = append(opts, pension.WithPayoutInterval(e.config.PayoutInterval))
	}

	return append(opts, e.pensionOpts...)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("pension: configuration is required but not found in config files; " +
				"ensure 'extensions.pension' or 'pension' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("pension: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("payout_interval", e.config.PayoutInterval),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.pension", "pension"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("pension: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("pension: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML wins for valued fields; programmatic values fill gaps and bool flags
// override when true.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.PayoutInterval == 0 && programmaticConfig.PayoutInterval != 0 {
		yamlConfig.PayoutInterval = programmaticConfig.PayoutInterval
	}
	if yamlConfig.PluginTimeout == 0 && programmaticConfig.PluginTimeout != 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	return mergeWithDefaults(yamlConfig)
}
