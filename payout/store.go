package payout

import (
	"context"

	"github.com/xraph/pension/account"
)

// Store persists executed payouts and lists them per account.
type Store interface {
	RecordPayout(ctx context.Context, p *Payout) error
	ListPayouts(ctx context.Context, accountID account.ID, opts ListOpts) ([]*Payout, error)
}

// ListOpts pages ListPayouts. Results are ordered newest first.
// A zero Limit returns every row.
type ListOpts struct {
	Limit  int
	Offset int
}

// Bounds returns the [start, end) slice window these options select from a
// result set of n rows.
func (o ListOpts) Bounds(n int) (start, end int) {
	start = max(o.Offset, 0)
	if start > n {
		start = n
	}
	end = start + o.Limit
	if o.Limit <= 0 || end > n {
		end = n
	}
	return start, end
}
