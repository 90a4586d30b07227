// Package audithook bridges Pension ledger events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/pension"
	"github.com/xraph/pension/account"
	"github.com/xraph/pension/contribution"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnContribution      = (*Extension)(nil)
	_ plugin.OnAccountConfigured = (*Extension)(nil)
	_ plugin.OnPayoutExecuted    = (*Extension)(nil)
	_ plugin.OnPayoutSkipped     = (*Extension)(nil)
	_ plugin.OnPayoutFailed      = (*Extension)(nil)
	_ plugin.OnPayoutDenied      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single entry in the audit trail.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Pension ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Account hooks
// ──────────────────────────────────────────────────

// OnContribution implements plugin.OnContribution.
func (e *Extension) OnContribution(ctx context.Context, c *contribution.Contribution) error {
	return e.record(ctx, ActionContribution, SeverityInfo, OutcomeSuccess,
		ResourceAccount, c.AccountID.String(), CategoryLedger, nil,
		"contribution_id", c.ID.String(),
		"amount", c.Amount.String(),
		"corpus", c.Corpus.String(),
	)
}

// OnAccountConfigured implements plugin.OnAccountConfigured.
func (e *Extension) OnAccountConfigured(ctx context.Context, a *account.Account) error {
	return e.record(ctx, ActionAccountConfigured, SeverityInfo, OutcomeSuccess,
		ResourceAccount, a.ID.String(), CategoryLedger, nil,
		"retirement_time", a.RetirementTime,
		"monthly_percent", a.MonthlyPercent,
	)
}

// ──────────────────────────────────────────────────
// Payout hooks
// ──────────────────────────────────────────────────

// OnPayoutExecuted implements plugin.OnPayoutExecuted.
func (e *Extension) OnPayoutExecuted(ctx context.Context, p *payout.Payout) error {
	return e.record(ctx, ActionPayoutExecuted, SeverityInfo, OutcomeSuccess,
		ResourcePayout, p.ID.String(), CategoryDisbursement, nil,
		payoutPairs(p)...,
	)
}

// OnPayoutSkipped implements plugin.OnPayoutSkipped.
func (e *Extension) OnPayoutSkipped(ctx context.Context, p *payout.Payout) error {
	return e.record(ctx, ActionPayoutSkipped, SeverityInfo, OutcomeSkipped,
		ResourcePayout, p.ID.String(), CategoryDisbursement, nil,
		payoutPairs(p)...,
	)
}

// OnPayoutFailed implements plugin.OnPayoutFailed.
func (e *Extension) OnPayoutFailed(ctx context.Context, p *payout.Payout, err error) error {
	return e.record(ctx, ActionPayoutFailed, SeverityCritical, OutcomeFailure,
		ResourcePayout, p.ID.String(), CategoryDisbursement, err,
		payoutPairs(p)...,
	)
}

// OnPayoutDenied implements plugin.OnPayoutDenied. Unknown accounts are
// recorded with warning severity since they usually indicate a bad caller.
func (e *Extension) OnPayoutDenied(ctx context.Context, accountID account.ID, reason error) error {
	severity := SeverityInfo
	if errors.Is(reason, pension.ErrAccountNotFound) {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionPayoutDenied, severity, OutcomeFailure,
		ResourceAccount, accountID.String(), CategoryAccess, reason,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func payoutPairs(p *payout.Payout) []any {
	return []any{
		"account_id", p.AccountID.String(),
		"amount", p.Amount.String(),
		"percent", p.Percent,
		"corpus_before", p.CorpusBefore.String(),
		"corpus_after", p.CorpusAfter.String(),
		"transfer_ref", p.TransferRef,
	}
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
