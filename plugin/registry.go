package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/contribution"
	"github.com/xraph/pension/payout"
)

// DefaultTimeout bounds each hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are discovered once at registration time.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit              []OnInit
	onShutdown          []OnShutdown
	onContribution      []OnContribution
	onAccountConfigured []OnAccountConfigured
	onPayoutExecuted    []OnPayoutExecuted
	onPayoutSkipped     []OnPayoutSkipped
	onPayoutFailed      []OnPayoutFailed
	onPayoutDenied      []OnPayoutDenied
	transferProviders   []TransferProvider
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnContribution); ok {
		r.onContribution = append(r.onContribution, v)
	}
	if v, ok := p.(OnAccountConfigured); ok {
		r.onAccountConfigured = append(r.onAccountConfigured, v)
	}
	if v, ok := p.(OnPayoutExecuted); ok {
		r.onPayoutExecuted = append(r.onPayoutExecuted, v)
	}
	if v, ok := p.(OnPayoutSkipped); ok {
		r.onPayoutSkipped = append(r.onPayoutSkipped, v)
	}
	if v, ok := p.(OnPayoutFailed); ok {
		r.onPayoutFailed = append(r.onPayoutFailed, v)
	}
	if v, ok := p.(OnPayoutDenied); ok {
		r.onPayoutDenied = append(r.onPayoutDenied, v)
	}
	if v, ok := p.(TransferProvider); ok {
		r.transferProviders = append(r.transferProviders, v)
	}

	r.logger.Debug("plugin registered",
		"plugin", p.Name(),
		"hooks", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnContribution)(nil)).Elem(), "OnContribution")
	checkInterface(reflect.TypeOf((*OnAccountConfigured)(nil)).Elem(), "OnAccountConfigured")
	checkInterface(reflect.TypeOf((*OnPayoutExecuted)(nil)).Elem(), "OnPayoutExecuted")
	checkInterface(reflect.TypeOf((*OnPayoutSkipped)(nil)).Elem(), "OnPayoutSkipped")
	checkInterface(reflect.TypeOf((*OnPayoutFailed)(nil)).Elem(), "OnPayoutFailed")
	checkInterface(reflect.TypeOf((*OnPayoutDenied)(nil)).Elem(), "OnPayoutDenied")
	checkInterface(reflect.TypeOf((*TransferProvider)(nil)).Elem(), "TransferProvider")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// TransferProviders returns the registered transfer providers in
// registration order.
func (r *Registry) TransferProviders() []TransferProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]TransferProvider, len(r.transferProviders))
	copy(result, r.transferProviders)
	return result
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnInit", func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnShutdown", func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitContribution emits a deposit event.
func (r *Registry) EmitContribution(ctx context.Context, c *contribution.Contribution) {
	r.mu.RLock()
	plugins := r.onContribution
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnContribution", func() error {
			return p.OnContribution(ctx, c)
		})
	}
}

// EmitAccountConfigured emits a configuration change event.
func (r *Registry) EmitAccountConfigured(ctx context.Context, a *account.Account) {
	r.mu.RLock()
	plugins := r.onAccountConfigured
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnAccountConfigured", func() error {
			return p.OnAccountConfigured(ctx, a)
		})
	}
}

// EmitPayoutExecuted emits a completed payout event.
func (r *Registry) EmitPayoutExecuted(ctx context.Context, po *payout.Payout) {
	r.mu.RLock()
	plugins := r.onPayoutExecuted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPayoutExecuted", func() error {
			return p.OnPayoutExecuted(ctx, po)
		})
	}
}

// EmitPayoutSkipped emits a zero-amount payout event.
func (r *Registry) EmitPayoutSkipped(ctx context.Context, po *payout.Payout) {
	r.mu.RLock()
	plugins := r.onPayoutSkipped
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPayoutSkipped", func() error {
			return p.OnPayoutSkipped(ctx, po)
		})
	}
}

// EmitPayoutFailed emits a failed transfer event.
func (r *Registry) EmitPayoutFailed(ctx context.Context, po *payout.Payout, cause error) {
	r.mu.RLock()
	plugins := r.onPayoutFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPayoutFailed", func() error {
			return p.OnPayoutFailed(ctx, po, cause)
		})
	}
}

// EmitPayoutDenied emits a refused payout event.
func (r *Registry) EmitPayoutDenied(ctx context.Context, accountID account.ID, reason error) {
	r.mu.RLock()
	plugins := r.onPayoutDenied
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPayoutDenied", func() error {
			return p.OnPayoutDenied(ctx, accountID, reason)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the payout pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
