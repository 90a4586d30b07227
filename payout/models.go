// Package payout defines payout history records and their store.
package payout

import (
	"time"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/id"
	"github.com/xraph/pension/types"
)

// Status is the outcome of a payout attempt.
type Status string

const (
	// StatusExecuted means value was transferred and the corpus debited.
	StatusExecuted Status = "executed"
	// StatusSkipped means the computed amount was zero; nothing moved.
	StatusSkipped Status = "skipped"
	// StatusFailed means the transfer was rejected; the corpus is unchanged.
	StatusFailed Status = "failed"
)

// Payout is one disbursement attempt against an account.
type Payout struct {
	types.Entity
	ID           id.PayoutID  `json:"id"`
	AccountID    account.ID   `json:"account_id"`
	Amount       types.Amount `json:"amount"`
	Percent      int          `json:"percent"`
	CorpusBefore types.Amount `json:"corpus_before"`
	CorpusAfter  types.Amount `json:"corpus_after"`
	Status       Status       `json:"status"`
	TransferRef  string       `json:"transfer_ref,omitempty"`
	ExecutedAt   time.Time    `json:"executed_at"`
}

// Clone returns a copy of the payout.
func (p *Payout) Clone() *Payout {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// Newer reports whether p sorts before other in newest-first order.
// Ties on ExecutedAt fall back to the K-sortable ID.
func (p *Payout) Newer(other *Payout) bool {
	if !p.ExecutedAt.Equal(other.ExecutedAt) {
		return p.ExecutedAt.After(other.ExecutedAt)
	}
	return p.ID.String() > other.ID.String()
}
