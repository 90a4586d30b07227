package pension_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/xraph/pension"
	"github.com/xraph/pension/account"
	"github.com/xraph/pension/clock"
	"github.com/xraph/pension/contribution"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/store/memory"
	"github.com/xraph/pension/transfer"
	"github.com/xraph/pension/types"
)

var retireAt = time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	p     *pension.Pension
	store *memory.Store
	bank  *transfer.Recorder
	clock *clock.Manual
}

func newFixture(t *testing.T, opts ...pension.Option) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.New(),
		bank:  transfer.NewRecorder(),
		clock: clock.NewManual(retireAt.Add(-365 * 24 * time.Hour)),
	}
	opts = append([]pension.Option{
		pension.WithTransferer(f.bank),
		pension.WithClock(f.clock),
	}, opts...)
	f.p = pension.New(f.store, opts...)
	if err := f.p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = f.p.Stop() })
	return f
}

func amt(n int64) types.Amount { return types.NewAmount(n) }

func mustCorpus(t *testing.T, p *pension.Pension, accountID account.ID, want int64) {
	t.Helper()
	a, err := p.GetAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if !a.Corpus.Equal(amt(want)) {
		t.Fatalf("corpus: got %s, want %d", a.Corpus, want)
	}
}

func TestContributeAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var total int64
	for _, n := range []int64{100, 250, 0, 650} {
		a, err := f.p.Contribute(ctx, "alice", amt(n))
		if err != nil {
			t.Fatalf("Contribute(%d): %v", n, err)
		}
		total += n
		if !a.Corpus.Equal(amt(total)) {
			t.Errorf("after %d: got %s, want %d", n, a.Corpus, total)
		}
	}
	mustCorpus(t, f.p, "alice", 1000)

	a, _ := f.p.GetAccount(ctx, "alice")
	if !a.RetirementTime.Equal(account.Epoch) || a.MonthlyPercent != 0 {
		t.Errorf("contribute must not change configuration: %+v", a)
	}
	if !a.IsPersisted() {
		t.Error("contributed account should carry timestamps")
	}
}

func TestContributeRejectsNegative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.p.Contribute(ctx, "alice", amt(-5))
	if !errors.Is(err, pension.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Error("rejected contribution must not create a record")
	}

	if _, err := f.p.Contribute(ctx, "alice", amt(10)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.p.Contribute(ctx, "alice", amt(-1)); !pension.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	mustCorpus(t, f.p, "alice", 10)
}

func TestContributeRejectsEmptyAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.p.Contribute(context.Background(), "", amt(1))
	if !errors.Is(err, pension.ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestConfigure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.p.Configure(ctx, "bob", retireAt, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !a.RetirementTime.Equal(retireAt) || a.MonthlyPercent != 10 || !a.Corpus.IsZero() {
		t.Errorf("unexpected record: %+v", a)
	}

	// Same arguments again leave the same state.
	b, err := f.p.Configure(ctx, "bob", retireAt, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !b.RetirementTime.Equal(a.RetirementTime) || b.MonthlyPercent != a.MonthlyPercent || !b.Corpus.Equal(a.Corpus) {
		t.Errorf("configure not idempotent: %+v vs %+v", a, b)
	}

	// Boundaries are valid.
	for _, pct := range []int{0, 100} {
		if _, err := f.p.Configure(ctx, "bob", retireAt, pct); err != nil {
			t.Errorf("Configure(%d): %v", pct, err)
		}
	}
}

func TestConfigureRejectsInvalidPercent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.p.Contribute(ctx, "carol", amt(500)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.p.Configure(ctx, "carol", retireAt, 20); err != nil {
		t.Fatal(err)
	}

	for _, pct := range []int{-1, 101, 150} {
		_, err := f.p.Configure(ctx, "carol", retireAt.Add(time.Hour), pct)
		if !errors.Is(err, pension.ErrInvalidPercent) {
			t.Fatalf("Configure(%d): expected ErrInvalidPercent, got %v", pct, err)
		}
		var ve pension.ValidationError
		if !errors.As(err, &ve) || ve.Field != "monthly_percent" {
			t.Errorf("Configure(%d): expected ValidationError on monthly_percent, got %v", pct, err)
		}
	}

	a, err := f.p.GetAccount(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}
	if a.MonthlyPercent != 20 || !a.RetirementTime.Equal(retireAt) || !a.Corpus.Equal(amt(500)) {
		t.Errorf("prior state not intact: %+v", a)
	}

	if _, err := f.p.Configure(ctx, "nobody", retireAt, 150); err == nil {
		t.Fatal("expected error")
	}
	if _, err := f.store.GetAccount(ctx, "nobody"); !errors.Is(err, pension.ErrAccountNotFound) {
		t.Error("rejected configure must not create a record")
	}
}

func TestGetAccountDefault(t *testing.T) {
	f := newFixture(t)

	a, err := f.p.GetAccount(context.Background(), "dave")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != "dave" || !a.Corpus.IsZero() || !a.RetirementTime.Equal(time.Unix(0, 0)) || a.MonthlyPercent != 0 {
		t.Errorf("unexpected default: %+v", a)
	}
	if f.store.Len() != 0 {
		t.Error("GetAccount must not persist")
	}
}

func TestPreviewPayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.p.PreviewPayout(ctx, "erin"); !errors.Is(err, pension.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Error("PreviewPayout must not persist")
	}

	_, _ = f.p.Contribute(ctx, "erin", amt(999))
	_, _ = f.p.Configure(ctx, "erin", retireAt, 10)
	before, _ := f.store.GetAccount(ctx, "erin")

	// Not yet retired; preview still computes.
	for range 3 {
		got, err := f.p.PreviewPayout(ctx, "erin")
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(amt(99)) {
			t.Errorf("preview: got %s, want 99", got)
		}
	}

	after, _ := f.store.GetAccount(ctx, "erin")
	if !after.Corpus.Equal(before.Corpus) || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("preview mutated the record")
	}
	if len(f.bank.Receipts()) != 0 {
		t.Error("preview must not transfer")
	}
}

func TestExecutePayoutScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.p.Contribute(ctx, "alice", amt(1000))
	_, _ = f.p.Configure(ctx, "alice", retireAt, 10)
	f.clock.Set(retireAt.Add(24 * time.Hour))

	steps := []struct {
		amount, corpus int64
	}{
		{100, 900},
		{90, 810},
		{81, 729},
	}
	for i, step := range steps {
		po, err := f.p.ExecutePayout(ctx, "alice")
		if err != nil {
			t.Fatalf("payout %d: %v", i, err)
		}
		if po.Status != payout.StatusExecuted {
			t.Errorf("payout %d: status %s", i, po.Status)
		}
		if !po.Amount.Equal(amt(step.amount)) || !po.CorpusAfter.Equal(amt(step.corpus)) {
			t.Errorf("payout %d: got amount %s corpus %s, want %d / %d", i, po.Amount, po.CorpusAfter, step.amount, step.corpus)
		}
		if po.TransferRef == "" {
			t.Errorf("payout %d: missing transfer reference", i)
		}
		mustCorpus(t, f.p, "alice", step.corpus)
	}

	if got := f.bank.Total(); !got.Equal(amt(271)) {
		t.Errorf("transferred: got %s, want 271", got)
	}

	a, _ := f.p.GetAccount(ctx, "alice")
	if a.LastPayoutAt == nil || !a.LastPayoutAt.Equal(retireAt.Add(24*time.Hour)) {
		t.Errorf("LastPayoutAt: got %v", a.LastPayoutAt)
	}

	history, err := f.p.ListPayouts(ctx, "alice", payout.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Fatalf("history: got %d rows, want 3", len(history))
	}
}

func TestExecutePayoutBeforeRetirement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.p.Contribute(ctx, "bob", amt(1000))
	_, _ = f.p.Configure(ctx, "bob", retireAt, 10)

	_, err := f.p.ExecutePayoutAt(ctx, "bob", retireAt.Add(-time.Second))
	if !errors.Is(err, pension.ErrNotYetEligible) {
		t.Fatalf("expected ErrNotYetEligible, got %v", err)
	}
	mustCorpus(t, f.p, "bob", 1000)
	if len(f.bank.Receipts()) != 0 {
		t.Error("no transfer expected before retirement")
	}

	// Exactly at the retirement time is allowed.
	if _, err := f.p.ExecutePayoutAt(ctx, "bob", retireAt); err != nil {
		t.Fatalf("at retirement: %v", err)
	}
	mustCorpus(t, f.p, "bob", 900)
}

func TestExecutePayoutUnknownAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.p.ExecutePayoutAt(context.Background(), "ghost", retireAt)
	if !errors.Is(err, pension.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Error("failed payout must not create a record")
	}
}

func TestExecutePayoutTransferFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.p.Contribute(ctx, "carol", amt(1000))
	_, _ = f.p.Configure(ctx, "carol", retireAt, 10)
	before, _ := f.store.GetAccount(ctx, "carol")

	cause := errors.New("pool drained")
	f.bank.FailWith(cause)

	_, err := f.p.ExecutePayoutAt(ctx, "carol", retireAt)
	if !errors.Is(err, pension.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped, got %v", err)
	}

	after, _ := f.store.GetAccount(ctx, "carol")
	if !after.Corpus.Equal(before.Corpus) || after.LastPayoutAt != nil || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Errorf("record changed after failed transfer: %+v", after)
	}
	history, _ := f.p.ListPayouts(ctx, "carol", payout.ListOpts{})
	if len(history) != 0 {
		t.Error("failed transfer must not be recorded as a payout")
	}

	f.bank.FailWith(nil)
	po, err := f.p.ExecutePayoutAt(ctx, "carol", retireAt)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !po.Amount.Equal(amt(100)) {
		t.Errorf("retry amount: got %s", po.Amount)
	}
}

func TestExecutePayoutZeroAmount(t *testing.T) {
	tests := []struct {
		name    string
		corpus  int64
		percent int
	}{
		{"zero percent", 1000, 0},
		{"empty corpus", 0, 50},
		{"rounds to zero", 1, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			_, _ = f.p.Contribute(ctx, "dave", amt(tt.corpus))
			_, _ = f.p.Configure(ctx, "dave", retireAt, tt.percent)
			before, _ := f.store.GetAccount(ctx, "dave")

			po, err := f.p.ExecutePayoutAt(ctx, "dave", retireAt)
			if err != nil {
				t.Fatal(err)
			}
			if po.Status != payout.StatusSkipped || !po.Amount.IsZero() {
				t.Errorf("got status %s amount %s", po.Status, po.Amount)
			}
			if len(f.bank.Receipts()) != 0 {
				t.Error("zero payout must not call the transferer")
			}
			after, _ := f.store.GetAccount(ctx, "dave")
			if !after.UpdatedAt.Equal(before.UpdatedAt) || after.LastPayoutAt != nil {
				t.Error("zero payout must not mutate the record")
			}
		})
	}
}

func TestExecutePayoutNeverOverpays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for i := range 200 {
		accountID := account.ID(fmt.Sprintf("acct-%03d", i))
		corpus := rng.Int63n(1_000_000_000)
		pct := rng.Intn(101)

		_, _ = f.p.Contribute(ctx, accountID, amt(corpus))
		_, _ = f.p.Configure(ctx, accountID, retireAt, pct)

		po, err := f.p.ExecutePayoutAt(ctx, accountID, retireAt)
		if err != nil {
			t.Fatalf("%s: %v", accountID, err)
		}
		if po.Amount.Cmp(po.CorpusBefore) > 0 {
			t.Fatalf("%s: paid %s from %s", accountID, po.Amount, po.CorpusBefore)
		}
		if po.Status == payout.StatusExecuted && !po.CorpusAfter.Equal(po.CorpusBefore.Sub(po.Amount)) {
			t.Fatalf("%s: %s - %s != %s", accountID, po.CorpusBefore, po.Amount, po.CorpusAfter)
		}
		if !po.Amount.Equal(amt(corpus * int64(pct) / 100)) {
			t.Fatalf("%s: got %s, want floor(%d*%d/100)", accountID, po.Amount, corpus, pct)
		}
		if po.CorpusAfter.IsNegative() {
			t.Fatalf("%s: corpus went negative", accountID)
		}
	}
}

func TestExecutePayoutFullDrain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.p.Contribute(ctx, "erin", amt(750))
	_, _ = f.p.Configure(ctx, "erin", retireAt, 100)

	po, err := f.p.ExecutePayoutAt(ctx, "erin", retireAt)
	if err != nil {
		t.Fatal(err)
	}
	if !po.Amount.Equal(amt(750)) || !po.CorpusAfter.IsZero() {
		t.Errorf("got amount %s corpus %s", po.Amount, po.CorpusAfter)
	}

	po, err = f.p.ExecutePayoutAt(ctx, "erin", retireAt)
	if err != nil {
		t.Fatal(err)
	}
	if po.Status != payout.StatusSkipped {
		t.Errorf("drained account: got status %s", po.Status)
	}
}

func TestPayoutInterval(t *testing.T) {
	f := newFixture(t, pension.WithPayoutInterval(30*24*time.Hour))
	ctx := context.Background()

	_, _ = f.p.Contribute(ctx, "frank", amt(1000))
	_, _ = f.p.Configure(ctx, "frank", retireAt, 10)

	if _, err := f.p.ExecutePayoutAt(ctx, "frank", retireAt); err != nil {
		t.Fatal(err)
	}

	_, err := f.p.ExecutePayoutAt(ctx, "frank", retireAt.Add(29*24*time.Hour))
	if !errors.Is(err, pension.ErrPayoutTooSoon) {
		t.Fatalf("expected ErrPayoutTooSoon, got %v", err)
	}
	mustCorpus(t, f.p, "frank", 900)

	if _, err := f.p.ExecutePayoutAt(ctx, "frank", retireAt.Add(30*24*time.Hour)); err != nil {
		t.Fatalf("after interval: %v", err)
	}
	mustCorpus(t, f.p, "frank", 810)
}

func TestSameAccountOperationsSerialize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.p.Contribute(ctx, "grace", amt(2)); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	mustCorpus(t, f.p, "grace", 100)
}

func TestConcurrentPayoutsDrainGeometrically(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.p.Contribute(ctx, "heidi", amt(1000))
	_, _ = f.p.Configure(ctx, "heidi", retireAt, 10)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.p.ExecutePayoutAt(ctx, "heidi", retireAt); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	// Two serialized payouts: 100 then 90.
	mustCorpus(t, f.p, "heidi", 810)
	if got := f.bank.Total(); !got.Equal(amt(190)) {
		t.Errorf("transferred: got %s, want 190", got)
	}
}

type eventCollector struct {
	mu            sync.Mutex
	contributions []*contribution.Contribution
	configured    []*account.Account
	executed      []*payout.Payout
	skipped       []*payout.Payout
	failed        []error
	denied        []error
}

func (c *eventCollector) Name() string { return "collector" }

func (c *eventCollector) OnContribution(_ context.Context, e *contribution.Contribution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contributions = append(c.contributions, e)
	return nil
}

func (c *eventCollector) OnAccountConfigured(_ context.Context, a *account.Account) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configured = append(c.configured, a)
	return nil
}

func (c *eventCollector) OnPayoutExecuted(_ context.Context, p *payout.Payout) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.executed = append(c.executed, p)
	return nil
}

func (c *eventCollector) OnPayoutSkipped(_ context.Context, p *payout.Payout) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped = append(c.skipped, p)
	return nil
}

func (c *eventCollector) OnPayoutFailed(_ context.Context, _ *payout.Payout, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = append(c.failed, err)
	return nil
}

func (c *eventCollector) OnPayoutDenied(_ context.Context, _ account.ID, reason error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.denied = append(c.denied, reason)
	return nil
}

func TestPluginEvents(t *testing.T) {
	events := &eventCollector{}
	f := newFixture(t, pension.WithPlugin(events))
	ctx := context.Background()

	_, _ = f.p.Contribute(ctx, "ivan", amt(1000))
	_, _ = f.p.Configure(ctx, "ivan", retireAt, 10)
	_, _ = f.p.ExecutePayoutAt(ctx, "ivan", retireAt.Add(-time.Hour))
	_, _ = f.p.ExecutePayoutAt(ctx, "ivan", retireAt)
	f.bank.FailWith(errors.New("down"))
	_, _ = f.p.ExecutePayoutAt(ctx, "ivan", retireAt)
	_, _ = f.p.Configure(ctx, "ivan", retireAt, 0)
	_, _ = f.p.ExecutePayoutAt(ctx, "ivan", retireAt)

	events.mu.Lock()
	defer events.mu.Unlock()

	if len(events.contributions) != 1 || !events.contributions[0].Corpus.Equal(amt(1000)) {
		t.Errorf("contributions: %+v", events.contributions)
	}
	if events.contributions[0].ID.Prefix() != "contrib" {
		t.Errorf("contribution id prefix: %s", events.contributions[0].ID.Prefix())
	}
	if len(events.configured) != 2 {
		t.Errorf("configured: got %d, want 2", len(events.configured))
	}
	if len(events.denied) != 1 || !errors.Is(events.denied[0], pension.ErrNotYetEligible) {
		t.Errorf("denied: %v", events.denied)
	}
	if len(events.executed) != 1 || !events.executed[0].Amount.Equal(amt(100)) {
		t.Errorf("executed: %+v", events.executed)
	}
	if len(events.failed) != 1 {
		t.Errorf("failed: got %d, want 1", len(events.failed))
	}
	if len(events.skipped) != 1 {
		t.Errorf("skipped: got %d, want 1", len(events.skipped))
	}
}

type bankPlugin struct{ t transfer.Transferer }

func (bankPlugin) Name() string                      { return "bank" }
func (b bankPlugin) Transferer() transfer.Transferer { return b.t }

func TestTransferProviderPlugin(t *testing.T) {
	ctx := context.Background()
	bank := transfer.NewRecorder()
	p := pension.New(memory.New(), pension.WithPlugin(bankPlugin{t: bank}))

	_, _ = p.Contribute(ctx, "judy", amt(200))
	_, _ = p.Configure(ctx, "judy", retireAt, 50)

	if _, err := p.ExecutePayoutAt(ctx, "judy", retireAt); err != nil {
		t.Fatal(err)
	}
	if got := bank.Total(); !got.Equal(amt(100)) {
		t.Errorf("provider transferer not used: total %s", got)
	}
}

func TestStopClosesStore(t *testing.T) {
	s := memory.New()
	p := pension.New(s)
	ctx := context.Background()

	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.GetAccount(ctx, "alice"); !errors.Is(err, pension.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed after Stop, got %v", err)
	}
}

func TestDefaultClockIsWallClock(t *testing.T) {
	ctx := context.Background()
	p := pension.New(memory.New())

	before := time.Now()
	a, err := p.Contribute(ctx, "alice", pension.NewAmount(1))
	if err != nil {
		t.Fatal(err)
	}
	after := time.Now()

	if a.UpdatedAt.Before(before.Add(-time.Second)) || a.UpdatedAt.After(after.Add(time.Second)) {
		t.Errorf("UpdatedAt %s outside [%s, %s]", a.UpdatedAt, before, after)
	}
	if a.UpdatedAt.Location() != time.UTC {
		t.Errorf("UpdatedAt location: got %s, want UTC", a.UpdatedAt.Location())
	}
}
