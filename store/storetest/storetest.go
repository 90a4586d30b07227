// Package storetest is a conformance suite every store.Store backend must
// pass. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/pension"
	"github.com/xraph/pension/account"
	"github.com/xraph/pension/id"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/store"
	"github.com/xraph/pension/types"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("MissingAccount", func(t *testing.T) { testMissingAccount(t, newStore(t)) })
	t.Run("AccountRoundTrip", func(t *testing.T) { testAccountRoundTrip(t, newStore(t)) })
	t.Run("AccountOverwrite", func(t *testing.T) { testAccountOverwrite(t, newStore(t)) })
	t.Run("AccountIsolation", func(t *testing.T) { testAccountIsolation(t, newStore(t)) })
	t.Run("PayoutHistory", func(t *testing.T) { testPayoutHistory(t, newStore(t)) })
	t.Run("PayoutPaging", func(t *testing.T) { testPayoutPaging(t, newStore(t)) })
	t.Run("Lifecycle", func(t *testing.T) { testLifecycle(t, newStore(t)) })
}

func testMissingAccount(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	a, err := s.GetAccount(ctx, "nobody")
	require.ErrorIs(t, err, pension.ErrAccountNotFound)
	assert.Nil(t, a)

	payouts, err := s.ListPayouts(ctx, "nobody", payout.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, payouts)
}

func testAccountRoundTrip(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	retire := time.Date(2045, 3, 1, 12, 0, 0, 0, time.UTC)
	paid := retire.Add(24 * time.Hour)
	in := &account.Account{
		Entity:         types.NewEntityAt(retire.Add(-time.Hour)),
		ID:             "alice",
		Corpus:         types.MustParseAmount("170141183460469231731687303715884105727"),
		RetirementTime: retire,
		MonthlyPercent: 10,
		LastPayoutAt:   &paid,
	}
	require.NoError(t, s.SetAccount(ctx, in))

	out, err := s.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	assert.True(t, in.Corpus.Equal(out.Corpus), "corpus: got %s", out.Corpus)
	assert.True(t, in.RetirementTime.Equal(out.RetirementTime))
	assert.Equal(t, 10, out.MonthlyPercent)
	require.NotNil(t, out.LastPayoutAt)
	assert.True(t, paid.Equal(*out.LastPayoutAt))
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
}

func testAccountOverwrite(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	a := account.Default("bob")
	a.Corpus = types.NewAmount(1000)
	require.NoError(t, s.SetAccount(ctx, a))

	a.Corpus = types.NewAmount(900)
	a.MonthlyPercent = 25
	require.NoError(t, s.SetAccount(ctx, a))

	out, err := s.GetAccount(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, out.Corpus.Equal(types.NewAmount(900)), "corpus: got %s", out.Corpus)
	assert.Equal(t, 25, out.MonthlyPercent)
	assert.True(t, out.RetirementTime.Equal(account.Epoch))
	assert.Nil(t, out.LastPayoutAt)
}

func testAccountIsolation(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	for i, name := range []account.ID{"carol", "carol2", "dave"} {
		a := account.Default(name)
		a.Corpus = types.NewAmount(int64(i + 1))
		require.NoError(t, s.SetAccount(ctx, a))
	}

	out, err := s.GetAccount(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, out.Corpus.Equal(types.NewAmount(1)))

	// Mutating a returned record must not leak back into the store.
	out.Corpus = types.NewAmount(999)
	again, err := s.GetAccount(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, again.Corpus.Equal(types.NewAmount(1)))
}

func newPayout(accountID account.ID, at time.Time, amount int64) *payout.Payout {
	return &payout.Payout{
		Entity:       types.NewEntityAt(at),
		ID:           id.NewPayoutID(),
		AccountID:    accountID,
		Amount:       types.NewAmount(amount),
		Percent:      10,
		CorpusBefore: types.NewAmount(amount * 10),
		CorpusAfter:  types.NewAmount(amount * 9),
		Status:       payout.StatusExecuted,
		TransferRef:  "ref-" + at.Format("150405"),
		ExecutedAt:   at,
	}
}

func testPayoutHistory(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC)
	first := newPayout("erin", base, 100)
	second := newPayout("erin", base.Add(30*24*time.Hour), 90)
	other := newPayout("erin2", base, 5)

	require.NoError(t, s.RecordPayout(ctx, first))
	require.NoError(t, s.RecordPayout(ctx, second))
	require.NoError(t, s.RecordPayout(ctx, other))

	got, err := s.ListPayouts(ctx, "erin", payout.ListOpts{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, second.ID, got[0].ID, "newest first")
	assert.Equal(t, first.ID, got[1].ID)
	assert.True(t, got[0].Amount.Equal(types.NewAmount(90)))
	assert.True(t, got[0].CorpusAfter.Equal(types.NewAmount(810)))
	assert.Equal(t, payout.StatusExecuted, got[0].Status)
	assert.Equal(t, second.TransferRef, got[0].TransferRef)
	assert.True(t, second.ExecutedAt.Equal(got[0].ExecutedAt))
}

func testPayoutPaging(t *testing.T, s store.Store) {
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC)
	var want []id.PayoutID
	for i := range 5 {
		p := newPayout("frank", base.Add(time.Duration(i)*time.Hour), int64(100-i))
		require.NoError(t, s.RecordPayout(ctx, p))
		want = append([]id.PayoutID{p.ID}, want...)
	}

	page, err := s.ListPayouts(ctx, "frank", payout.ListOpts{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, want[1], page[0].ID)
	assert.Equal(t, want[2], page[1].ID)

	tail, err := s.ListPayouts(ctx, "frank", payout.ListOpts{Limit: 10, Offset: 4})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, want[4], tail[0].ID)

	rest, err := s.ListPayouts(ctx, "frank", payout.ListOpts{Offset: 3})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, want[3], rest[0].ID)
	assert.Equal(t, want[4], rest[1].ID)

	past, err := s.ListPayouts(ctx, "frank", payout.ListOpts{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func testLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "migrate must be idempotent")
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())
}
