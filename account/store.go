package account

import "context"

// Store is the durable mapping from account identity to account record.
//
// GetAccount must return an error matching pension.ErrAccountNotFound when no
// record exists; it must never create one. SetAccount replaces the whole
// record.
type Store interface {
	GetAccount(ctx context.Context, accountID ID) (*Account, error)
	SetAccount(ctx context.Context, a *Account) error
}
