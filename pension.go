package pension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/clock"
	"github.com/xraph/pension/contribution"
	"github.com/xraph/pension/id"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/plugin"
	"github.com/xraph/pension/store"
	"github.com/xraph/pension/transfer"
	"github.com/xraph/pension/types"
)

// Pension is the account ledger engine. It owns no state of its own beyond
// configuration; every account record lives in the Store.
type Pension struct {
	store      store.Store
	plugins    *plugin.Registry
	logger     *slog.Logger
	clock      clock.Clock
	transferer transfer.Transferer
	fallback   *transfer.Recorder
	locks      *accountLocks

	// Minimum time between two payouts of the same account. Zero disables it.
	payoutInterval time.Duration
}

// New creates a new Pension instance.
func New(s store.Store, opts ...Option) *Pension {
	p := &Pension{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		clock:    clock.System,
		fallback: transfer.NewRecorder(),
		locks:    newAccountLocks(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Option configures a Pension instance.
type Option func(*Pension)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pension) {
		p.logger = logger
		p.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(pl plugin.Plugin) Option {
	return func(p *Pension) {
		_ = p.plugins.Register(pl) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source used by ExecutePayout and record timestamps.
func WithClock(c clock.Clock) Option {
	return func(p *Pension) {
		p.clock = c
	}
}

// WithTransferer sets the service that releases payout value. Without it the
// first registered plugin.TransferProvider is used, and failing that an
// in-process transfer.Recorder.
func WithTransferer(t transfer.Transferer) Option {
	return func(p *Pension) {
		p.transferer = t
	}
}

// WithPluginTimeout bounds how long a single plugin hook may run.
func WithPluginTimeout(d time.Duration) Option {
	return func(p *Pension) {
		p.plugins.WithTimeout(d)
	}
}

// WithPayoutInterval enforces a minimum duration between two payouts of the
// same account.
func WithPayoutInterval(d time.Duration) Option {
	return func(p *Pension) {
		p.payoutInterval = d
	}
}

// Start migrates the store and initializes plugins.
func (p *Pension) Start(ctx context.Context) error {
	if err := p.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	p.plugins.EmitInit(ctx, p)

	p.logger.Info("pension started",
		"plugins", p.plugins.Count(),
		"payout_interval", p.payoutInterval,
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (p *Pension) Stop() error {
	ctx := context.Background()
	p.plugins.EmitShutdown(ctx)

	return p.store.Close()
}

// Store returns the underlying store.
func (p *Pension) Store() store.Store { return p.store }

// Plugins returns the plugin registry.
func (p *Pension) Plugins() *plugin.Registry { return p.plugins }

// ──────────────────────────────────────────────────
// Account operations
// ──────────────────────────────────────────────────

// Contribute credits amount to the account corpus, creating the record on
// first use. Negative amounts are rejected without touching the record.
func (p *Pension) Contribute(ctx context.Context, accountID account.ID, amount types.Amount) (*account.Account, error) {
	if err := validateAccountID(accountID); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("%s is negative", amount),
			Err:     ErrInvalidAmount,
		}
	}

	unlock := p.locks.lock(accountID)
	defer unlock()

	a, err := p.loadOrDefault(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("contribute: %w", err)
	}

	now := p.clock.Now()
	a.Corpus = a.Corpus.Add(amount)
	a.Touch(now)

	if err := p.store.SetAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("contribute: %w", err)
	}

	p.logger.Debug("contribution recorded",
		"account_id", accountID,
		"amount", amount.String(),
		"corpus", a.Corpus.String(),
	)

	p.plugins.EmitContribution(ctx, &contribution.Contribution{
		ID:        id.NewContributionID(),
		AccountID: accountID,
		Amount:    amount,
		Corpus:    a.Corpus,
		At:        now.UTC(),
	})

	return a.Clone(), nil
}

// Configure sets the retirement time and monthly payout percent. The percent
// must be within 0..100; an out-of-range value leaves the record unchanged.
// Calling it again with the same values is a no-op apart from UpdatedAt.
func (p *Pension) Configure(ctx context.Context, accountID account.ID, retirementTime time.Time, monthlyPercent int) (*account.Account, error) {
	if err := validateAccountID(accountID); err != nil {
		return nil, err
	}
	if !account.ValidPercent(monthlyPercent) {
		return nil, ValidationError{
			Field:   "monthly_percent",
			Message: fmt.Sprintf("%d is outside 0..%d", monthlyPercent, account.MaxPercent),
			Err:     ErrInvalidPercent,
		}
	}

	unlock := p.locks.lock(accountID)
	defer unlock()

	a, err := p.loadOrDefault(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}

	a.RetirementTime = retirementTime.UTC()
	a.MonthlyPercent = monthlyPercent
	a.Touch(p.clock.Now())

	if err := p.store.SetAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("configure: %w", err)
	}

	p.logger.Debug("account configured",
		"account_id", accountID,
		"retirement_time", a.RetirementTime,
		"monthly_percent", monthlyPercent,
	)

	p.plugins.EmitAccountConfigured(ctx, a.Clone())

	return a.Clone(), nil
}

// GetAccount returns the stored record, or the default record when the
// account has never been written. It never persists anything.
func (p *Pension) GetAccount(ctx context.Context, accountID account.ID) (*account.Account, error) {
	a, err := p.loadOrDefault(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// ──────────────────────────────────────────────────
// Payouts
// ──────────────────────────────────────────────────

// PreviewPayout returns floor(corpus * monthly_percent / 100) for an existing
// account without checking retirement and without side effects.
func (p *Pension) PreviewPayout(ctx context.Context, accountID account.ID) (types.Amount, error) {
	a, err := p.store.GetAccount(ctx, accountID)
	if err != nil {
		return types.Amount{}, fmt.Errorf("preview payout: %w", err)
	}
	return a.PayoutAmount(), nil
}

// ExecutePayout disburses the monthly amount using the configured clock.
func (p *Pension) ExecutePayout(ctx context.Context, accountID account.ID) (*payout.Payout, error) {
	return p.ExecutePayoutAt(ctx, accountID, p.clock.Now())
}

// ExecutePayoutAt disburses the monthly amount as of now.
//
// The transfer happens before the corpus is debited, and the debit is only
// persisted once the transfer has succeeded. A zero amount skips the transfer
// and leaves the record untouched.
func (p *Pension) ExecutePayoutAt(ctx context.Context, accountID account.ID, now time.Time) (*payout.Payout, error) {
	unlock := p.locks.lock(accountID)
	defer unlock()

	a, err := p.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			p.plugins.EmitPayoutDenied(ctx, accountID, err)
		}
		return nil, fmt.Errorf("execute payout: %w", err)
	}

	if err := p.checkEligible(a, now); err != nil {
		p.logger.Debug("payout denied",
			"account_id", accountID,
			"reason", err,
		)
		p.plugins.EmitPayoutDenied(ctx, accountID, err)
		return nil, fmt.Errorf("execute payout: %w", err)
	}

	amount := a.PayoutAmount()
	po := &payout.Payout{
		Entity:       types.NewEntityAt(now),
		ID:           id.NewPayoutID(),
		AccountID:    accountID,
		Amount:       amount,
		Percent:      a.MonthlyPercent,
		CorpusBefore: a.Corpus,
		CorpusAfter:  a.Corpus,
		ExecutedAt:   now.UTC(),
	}

	if amount.IsZero() {
		po.Status = payout.StatusSkipped
		p.logger.Debug("payout skipped, nothing to disburse", "account_id", accountID)
		p.plugins.EmitPayoutSkipped(ctx, po)
		return po, nil
	}
	if amount.Cmp(a.Corpus) > 0 || amount.IsNegative() {
		return nil, fmt.Errorf("execute payout: computed %s against corpus %s: %w", amount, a.Corpus, ErrInvalidAmount)
	}

	receipt, err := p.resolveTransferer().Transfer(ctx, accountID, amount)
	if err != nil {
		po.Status = payout.StatusFailed
		p.logger.Warn("payout transfer failed",
			"account_id", accountID,
			"amount", amount.String(),
			"error", err,
		)
		p.plugins.EmitPayoutFailed(ctx, po, err)
		return nil, fmt.Errorf("execute payout: %w", &TransferError{
			AccountID: accountID.String(),
			Amount:    amount.String(),
			Err:       err,
		})
	}

	paidAt := now.UTC()
	a.Corpus = a.Corpus.Sub(amount)
	a.LastPayoutAt = &paidAt
	a.Touch(now)

	if err := p.store.SetAccount(ctx, a); err != nil {
		// Value has left the pool; the record must be reconciled by hand.
		p.logger.Error("payout transferred but account update failed",
			"account_id", accountID,
			"amount", amount.String(),
			"transfer_ref", receipt.Ref(),
			"error", err,
		)
		return nil, fmt.Errorf("execute payout: persist account: %w", err)
	}

	po.Status = payout.StatusExecuted
	po.CorpusAfter = a.Corpus
	po.TransferRef = receipt.Ref()

	if err := p.store.RecordPayout(ctx, po); err != nil {
		p.logger.Warn("failed to record payout history",
			"account_id", accountID,
			"payout_id", po.ID.String(),
			"error", err,
		)
	}

	p.logger.Info("payout executed",
		"account_id", accountID,
		"payout_id", po.ID.String(),
		"amount", amount.String(),
		"corpus", a.Corpus.String(),
	)

	p.plugins.EmitPayoutExecuted(ctx, po)

	return po, nil
}

// ListPayouts returns the executed payouts of an account, newest first.
func (p *Pension) ListPayouts(ctx context.Context, accountID account.ID, opts payout.ListOpts) ([]*payout.Payout, error) {
	return p.store.ListPayouts(ctx, accountID, opts)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (p *Pension) loadOrDefault(ctx context.Context, accountID account.ID) (*account.Account, error) {
	a, err := p.store.GetAccount(ctx, accountID)
	if errors.Is(err, ErrAccountNotFound) {
		return account.Default(accountID), nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (p *Pension) checkEligible(a *account.Account, now time.Time) error {
	if !a.EligibleAt(now) {
		return fmt.Errorf("%w: retirement at %s", ErrNotYetEligible, a.RetirementTime.Format(time.RFC3339))
	}
	if p.payoutInterval > 0 && a.LastPayoutAt != nil {
		if next := a.NextPayoutAt(p.payoutInterval); now.Before(next) {
			return fmt.Errorf("%w: next payout at %s", ErrPayoutTooSoon, next.Format(time.RFC3339))
		}
	}
	return nil
}

func (p *Pension) resolveTransferer() transfer.Transferer {
	if p.transferer != nil {
		return p.transferer
	}
	if providers := p.plugins.TransferProviders(); len(providers) > 0 {
		return providers[0].Transferer()
	}
	return p.fallback
}

func validateAccountID(accountID account.ID) error {
	if accountID == "" {
		return ValidationError{Field: "account_id", Message: "must not be empty", Err: ErrInvalidAccount}
	}
	return nil
}
