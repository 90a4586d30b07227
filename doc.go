// Package pension provides a per-account accrual-and-payout ledger for
// retirement savings.
//
// Pension is designed as a library, not a service. Each account accumulates
// a corpus through contributions, is configured with a retirement time and a
// monthly disbursement percentage, and once retired can draw a payout of
// that percentage of whatever corpus remains. It provides:
//
//   - Integer-only balance arithmetic with arbitrary precision
//   - Confirm-then-mutate payouts through a pluggable transfer service
//   - Pluggable storage (memory, PostgreSQL, SQLite, MongoDB, LevelDB, Redis)
//   - Lifecycle and ledger hooks for audit trails and metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/pension"
//	    "github.com/xraph/pension/store/memory"
//	)
//
//	p := pension.New(memory.New(),
//	    pension.WithTransferer(myBank),
//	)
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop()
//
//	p.Contribute(ctx, "alice", pension.NewAmount(1000))
//	p.Configure(ctx, "alice", retireAt, 10)
//
//	// after retireAt
//	po, err := p.ExecutePayout(ctx, "alice") // po.Amount == 100, corpus 900
//
// # Payout rules
//
// The payout amount is floor(corpus * monthly_percent / 100). It is computed
// against the remaining corpus, so repeated payouts shrink geometrically and
// the corpus never goes negative. ExecutePayout refuses before the retirement
// time with ErrNotYetEligible. A transfer failure returns an error matching
// ErrTransferFailed and leaves the stored corpus untouched.
//
// By default an account may be paid out as often as ExecutePayout is called.
// WithPayoutInterval enforces a minimum gap between payouts.
//
// # Accounts
//
// Account identities are opaque strings supplied by the caller. An account
// that was never written reads as the default record (zero corpus, retirement
// at the Unix epoch, zero percent). Reads never create records.
//
// # TypeID
//
// Records Pension generates itself use TypeID identifiers:
//
//	payout_01h2xcejqtf2nbrexx3vqjhp41   // Payout ID
//	contrib_01h2xcejqtf2nbrexx3vqjhp41  // Contribution ID
package pension
