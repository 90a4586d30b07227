// Package transfer defines the value transfer collaborator used by payouts.
//
// A Transferer moves value out of the pension pool to the account holder. It
// must either complete the transfer and return a receipt, or fail and leave
// nothing moved; the engine only debits the corpus after a receipt is returned.
package transfer

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/id"
	"github.com/xraph/pension/types"
)

// Transferer releases value to an account holder.
type Transferer interface {
	Transfer(ctx context.Context, accountID account.ID, amount types.Amount) (*Receipt, error)
}

// Func adapts an ordinary function to the Transferer interface.
type Func func(ctx context.Context, accountID account.ID, amount types.Amount) (*Receipt, error)

// Transfer calls f(ctx, accountID, amount).
func (f Func) Transfer(ctx context.Context, accountID account.ID, amount types.Amount) (*Receipt, error) {
	return f(ctx, accountID, amount)
}

// Receipt confirms a completed transfer.
type Receipt struct {
	ID        id.TransferID `json:"id"`
	Reference string        `json:"reference,omitempty"`
	AccountID account.ID    `json:"account_id"`
	Amount    types.Amount  `json:"amount"`
	At        time.Time     `json:"at"`
}

// Ref returns the external reference when one was set, else the receipt ID.
func (r *Receipt) Ref() string {
	if r == nil {
		return ""
	}
	if r.Reference != "" {
		return r.Reference
	}
	return r.ID.String()
}

// Recorder is an in-process Transferer that accepts every transfer and keeps
// the receipts. It is the default when no Transferer is configured, and is
// useful in tests.
type Recorder struct {
	mu       sync.Mutex
	receipts []*Receipt
	fail     error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent transfers fail with err. Pass nil to recover.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

// Transfer implements Transferer.
func (r *Recorder) Transfer(ctx context.Context, accountID account.ID, amount types.Amount) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	rc := &Receipt{
		ID:        id.NewTransferID(),
		AccountID: accountID,
		Amount:    amount,
		At:        time.Now().UTC(),
	}
	r.receipts = append(r.receipts, rc)
	return rc, nil
}

// Receipts returns a copy of all recorded receipts in order.
func (r *Recorder) Receipts() []*Receipt {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Receipt, len(r.receipts))
	copy(out, r.receipts)
	return out
}

// Total returns the sum of all transferred amounts.
func (r *Recorder) Total() types.Amount {
	r.mu.Lock()
	defer r.mu.Unlock()
	amounts := make([]types.Amount, len(r.receipts))
	for i, rc := range r.receipts {
		amounts[i] = rc.Amount
	}
	return types.Sum(amounts...)
}
