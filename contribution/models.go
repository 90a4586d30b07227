// Package contribution defines the deposit notification emitted each time
// value is credited to an account corpus.
package contribution

import (
	"time"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/id"
	"github.com/xraph/pension/types"
)

type Contribution struct {
	ID        id.ContributionID `json:"id"`
	AccountID account.ID        `json:"account_id"`
	Amount    types.Amount      `json:"amount"`
	Corpus    types.Amount      `json:"corpus"`
	At        time.Time         `json:"at"`
}
