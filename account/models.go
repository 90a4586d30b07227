// Package account defines the per-participant ledger record and its store.
package account

import (
	"time"

	"github.com/xraph/pension/types"
)

// ID is the externally supplied identity of one ledger participant, such as a
// wallet address or a user key. Pension treats it as opaque.
type ID string

// String returns the identity as a plain string.
func (i ID) String() string { return string(i) }

// MaxPercent is the upper bound for MonthlyPercent.
const MaxPercent = 100

// Epoch is the retirement time of an account that was never configured.
var Epoch = time.Unix(0, 0).UTC()

// Account is the per-participant ledger record.
type Account struct {
	types.Entity
	ID             ID           `json:"id"`
	Corpus         types.Amount `json:"corpus"`
	RetirementTime time.Time    `json:"retirement_time"`
	MonthlyPercent int          `json:"monthly_percent"`
	LastPayoutAt   *time.Time   `json:"last_payout_at,omitempty"`
}

// Default returns the zero record for an account that has never been
// touched. It is not persisted by constructing it.
func Default(accountID ID) *Account {
	return &Account{
		ID:             accountID,
		RetirementTime: Epoch,
	}
}

// Clone returns a deep copy so callers never share the stored pointer.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	if a.LastPayoutAt != nil {
		t := *a.LastPayoutAt
		cp.LastPayoutAt = &t
	}
	return &cp
}

// IsConfigured reports whether a retirement time has been set.
func (a *Account) IsConfigured() bool {
	return !a.RetirementTime.Equal(Epoch) && !a.RetirementTime.IsZero()
}

// PayoutAmount returns floor(corpus * monthly_percent / 100).
func (a *Account) PayoutAmount() types.Amount {
	return a.Corpus.Percent(a.MonthlyPercent)
}

// EligibleAt reports whether the retirement time has been reached at now.
func (a *Account) EligibleAt(now time.Time) bool {
	return !now.Before(a.RetirementTime)
}

// NextPayoutAt returns the earliest time the next payout may run given a
// minimum interval between payouts. A zero interval disables the check.
func (a *Account) NextPayoutAt(interval time.Duration) time.Time {
	next := a.RetirementTime
	if interval > 0 && a.LastPayoutAt != nil {
		if cooled := a.LastPayoutAt.Add(interval); cooled.After(next) {
			next = cooled
		}
	}
	return next
}

// ValidPercent reports whether p is within [0, MaxPercent].
func ValidPercent(p int) bool {
	return p >= 0 && p <= MaxPercent
}
