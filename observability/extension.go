// Package observability provides a metrics extension for Pension that records
// ledger event counts and amounts via a MetricFactory.
package observability

import (
	"context"
	"errors"
	"math/big"

	"github.com/xraph/pension"
	"github.com/xraph/pension/account"
	"github.com/xraph/pension/contribution"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/plugin"
	"github.com/xraph/pension/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnContribution      = (*MetricsExtension)(nil)
	_ plugin.OnAccountConfigured = (*MetricsExtension)(nil)
	_ plugin.OnPayoutExecuted    = (*MetricsExtension)(nil)
	_ plugin.OnPayoutSkipped     = (*MetricsExtension)(nil)
	_ plugin.OnPayoutFailed      = (*MetricsExtension)(nil)
	_ plugin.OnPayoutDenied      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger metrics.
// Register it as a Pension plugin to track deposits and disbursements.
type MetricsExtension struct {
	factory MetricFactory

	// Account metrics
	ContributionsRecorded Counter
	ContributionAmount    Histogram
	AccountsConfigured    Counter

	// Payout metrics
	PayoutsExecuted Counter
	PayoutsSkipped  Counter
	PayoutsFailed   Counter
	PayoutAmount    Histogram

	// Denial metrics
	PayoutsNotEligible Counter
	PayoutsTooSoon     Counter
	PayoutsUnknown     Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// A nil factory falls back to NopFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	if factory == nil {
		factory = NopFactory{}
	}
	return &MetricsExtension{
		factory: factory,

		ContributionsRecorded: factory.Counter("pension.contribution.recorded"),
		ContributionAmount:    factory.Histogram("pension.contribution.amount"),
		AccountsConfigured:    factory.Counter("pension.account.configured"),

		PayoutsExecuted: factory.Counter("pension.payout.executed"),
		PayoutsSkipped:  factory.Counter("pension.payout.skipped"),
		PayoutsFailed:   factory.Counter("pension.payout.failed"),
		PayoutAmount:    factory.Histogram("pension.payout.amount"),

		PayoutsNotEligible: factory.Counter("pension.payout.denied.not_eligible"),
		PayoutsTooSoon:     factory.Counter("pension.payout.denied.too_soon"),
		PayoutsUnknown:     factory.Counter("pension.payout.denied.unknown_account"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Account hooks
// ──────────────────────────────────────────────────

// OnContribution implements plugin.OnContribution.
func (m *MetricsExtension) OnContribution(_ context.Context, c *contribution.Contribution) error {
	m.ContributionsRecorded.Inc()
	m.ContributionAmount.Observe(amountFloat(c.Amount))
	return nil
}

// OnAccountConfigured implements plugin.OnAccountConfigured.
func (m *MetricsExtension) OnAccountConfigured(_ context.Context, _ *account.Account) error {
	m.AccountsConfigured.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnPayoutExecuted implements plugin.OnPayoutExecuted.
func (m *MetricsExtension) OnPayoutExecuted(_ context.Context, p *payout.Payout) error {
	m.PayoutsExecuted.Inc()
	m.PayoutAmount.Observe(amountFloat(p.Amount))
	return nil
}

// OnPayoutSkipped implements plugin.OnPayoutSkipped.
func (m *MetricsExtension) OnPayoutSkipped(_ context.Context, _ *payout.Payout) error {
	m.PayoutsSkipped.Inc()
	return nil
}

// OnPayoutFailed implements plugin.OnPayoutFailed.
func (m *MetricsExtension) OnPayoutFailed(_ context.Context, _ *payout.Payout, _ error) error {
	m.PayoutsFailed.Inc()
	return nil
}

// OnPayoutDenied implements plugin.OnPayoutDenied.
func (m *MetricsExtension) OnPayoutDenied(_ context.Context, _ account.ID, reason error) error {
	switch {
	case errors.Is(reason, pension.ErrNotYetEligible):
		m.PayoutsNotEligible.Inc()
	case errors.Is(reason, pension.ErrPayoutTooSoon):
		m.PayoutsTooSoon.Inc()
	case errors.Is(reason, pension.ErrAccountNotFound):
		m.PayoutsUnknown.Inc()
	}
	return nil
}

// amountFloat converts an amount for histogram observation. Precision loss
// beyond 2^53 is acceptable for bucketing.
func amountFloat(a types.Amount) float64 {
	f, _ := new(big.Float).SetInt(a.Big()).Float64()
	return f
}

// ──────────────────────────────────────────────────
// No-op metrics
// ──────────────────────────────────────────────────

// NopFactory creates metrics that discard every observation.
type NopFactory struct{}

// Counter implements MetricFactory.
func (NopFactory) Counter(string) Counter { return nopMetric{} }

// Histogram implements MetricFactory.
func (NopFactory) Histogram(string) Histogram { return nopMetric{} }

type nopMetric struct{}

func (nopMetric) Inc()            {}
func (nopMetric) Add(float64)     {}
func (nopMetric) Observe(float64) {}
