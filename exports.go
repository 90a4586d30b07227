package pension

import (
	"github.com/xraph/pension/account"
	"github.com/xraph/pension/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Entity is re-exported from types package.
type Entity = types.Entity

// AccountID is re-exported from account package.
type AccountID = account.ID

// Re-export Amount constructors
var (
	NewAmount   = types.NewAmount
	ParseAmount = types.ParseAmount
	Sum         = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
