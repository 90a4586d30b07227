package observability

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/pension"
	"github.com/xraph/pension/contribution"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/types"
)

type fakeCounter struct{ n float64 }

func (c *fakeCounter) Inc()          { c.n++ }
func (c *fakeCounter) Add(v float64) { c.n += v }

type fakeHistogram struct{ values []float64 }

func (h *fakeHistogram) Observe(v float64) { h.values = append(h.values, v) }

type fakeFactory struct {
	counters   map[string]*fakeCounter
	histograms map[string]*fakeHistogram
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		counters:   make(map[string]*fakeCounter),
		histograms: make(map[string]*fakeHistogram),
	}
}

func (f *fakeFactory) Counter(name string) Counter {
	c := &fakeCounter{}
	f.counters[name] = c
	return c
}

func (f *fakeFactory) Histogram(name string) Histogram {
	h := &fakeHistogram{}
	f.histograms[name] = h
	return h
}

func TestMetricsExtensionCounts(t *testing.T) {
	ctx := context.Background()
	f := newFakeFactory()
	m := NewMetricsExtension(f)

	_ = m.OnContribution(ctx, &contribution.Contribution{Amount: types.NewAmount(1000)})
	_ = m.OnAccountConfigured(ctx, nil)
	_ = m.OnPayoutExecuted(ctx, &payout.Payout{Amount: types.NewAmount(100)})
	_ = m.OnPayoutExecuted(ctx, &payout.Payout{Amount: types.NewAmount(90)})
	_ = m.OnPayoutSkipped(ctx, &payout.Payout{})
	_ = m.OnPayoutFailed(ctx, &payout.Payout{}, fmt.Errorf("boom"))
	_ = m.OnPayoutDenied(ctx, "a", fmt.Errorf("check: %w", pension.ErrNotYetEligible))
	_ = m.OnPayoutDenied(ctx, "a", pension.ErrPayoutTooSoon)
	_ = m.OnPayoutDenied(ctx, "a", pension.ErrAccountNotFound)

	tests := []struct {
		name string
		want float64
	}{
		{"pension.contribution.recorded", 1},
		{"pension.account.configured", 1},
		{"pension.payout.executed", 2},
		{"pension.payout.skipped", 1},
		{"pension.payout.failed", 1},
		{"pension.payout.denied.not_eligible", 1},
		{"pension.payout.denied.too_soon", 1},
		{"pension.payout.denied.unknown_account", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := f.counters[tt.name]
			if !ok {
				t.Fatalf("counter %q not created", tt.name)
			}
			if c.n != tt.want {
				t.Errorf("got %v, want %v", c.n, tt.want)
			}
		})
	}

	if got := f.histograms["pension.payout.amount"].values; len(got) != 2 || got[0] != 100 || got[1] != 90 {
		t.Errorf("payout amounts: got %v", got)
	}
	if got := f.histograms["pension.contribution.amount"].values; len(got) != 1 || got[0] != 1000 {
		t.Errorf("contribution amounts: got %v", got)
	}
}

func TestNilFactoryIsNop(t *testing.T) {
	m := NewMetricsExtension(nil)
	if err := m.OnPayoutExecuted(context.Background(), &payout.Payout{Amount: types.NewAmount(5)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAmountFloat(t *testing.T) {
	if got := amountFloat(types.NewAmount(1234)); got != 1234 {
		t.Errorf("got %v, want 1234", got)
	}
	if got := amountFloat(types.Amount{}); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestPrometheusFactory(t *testing.T) {
	f := NewPrometheusFactory("test", nil)

	c := f.Counter("pension.payout.executed")
	c.Inc()
	c.Add(2)

	if again := f.Counter("pension.payout.executed"); again != c {
		t.Error("expected cached counter for the same name")
	}

	h := f.Histogram("pension.payout.amount")
	h.Observe(100)

	n, err := testutil.GatherAndCount(f.Registry())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("registered metrics: got %d, want 2", n)
	}

	rec := httptest.NewRecorder()
	f.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "test_pension_payout_executed_total 3") {
		t.Errorf("counter missing from exposition:\n%s", body)
	}
	if !strings.Contains(body, "test_pension_payout_amount_count 1") {
		t.Errorf("histogram missing from exposition:\n%s", body)
	}
}

func TestPrometheusFactoryWithExtension(t *testing.T) {
	f := NewPrometheusFactory("pension", nil)
	m := NewMetricsExtension(f)

	_ = m.OnPayoutSkipped(context.Background(), &payout.Payout{})

	c, ok := m.PayoutsSkipped.(prometheus.Collector)
	if !ok {
		t.Fatalf("counter %T is not a prometheus collector", m.PayoutsSkipped)
	}
	if got := testutil.ToFloat64(c); got != 1 {
		t.Errorf("skipped: got %v, want 1", got)
	}
}
