package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/id"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/types"
)

// ==================== Account models ====================

// Amounts are stored as decimal text so balances beyond 64 bits keep full
// precision.
type accountModel struct {
	grove.BaseModel `grove:"table:pension_accounts"`

	ID             string     `grove:"id,pk"`
	Corpus         string     `grove:"corpus"`
	RetirementTime time.Time  `grove:"retirement_time"`
	MonthlyPercent int        `grove:"monthly_percent"`
	LastPayoutAt   *time.Time `grove:"last_payout_at"`
	CreatedAt      time.Time  `grove:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		ID:             a.ID.String(),
		Corpus:         a.Corpus.String(),
		RetirementTime: a.RetirementTime.UTC(),
		MonthlyPercent: a.MonthlyPercent,
		LastPayoutAt:   a.LastPayoutAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	corpus, err := types.ParseAmount(m.Corpus)
	if err != nil {
		return nil, err
	}
	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             account.ID(m.ID),
		Corpus:         corpus,
		RetirementTime: m.RetirementTime.UTC(),
		MonthlyPercent: m.MonthlyPercent,
		LastPayoutAt:   m.LastPayoutAt,
	}, nil
}

// ==================== Payout models ====================

type payoutModel struct {
	grove.BaseModel `grove:"table:pension_payouts"`

	ID           string    `grove:"id,pk"`
	AccountID    string    `grove:"account_id"`
	Amount       string    `grove:"amount"`
	Percent      int       `grove:"percent"`
	CorpusBefore string    `grove:"corpus_before"`
	CorpusAfter  string    `grove:"corpus_after"`
	Status       string    `grove:"status"`
	TransferRef  string    `grove:"transfer_ref"`
	ExecutedAt   time.Time `grove:"executed_at"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toPayoutModel(p *payout.Payout) *payoutModel {
	return &payoutModel{
		ID:           p.ID.String(),
		AccountID:    p.AccountID.String(),
		Amount:       p.Amount.String(),
		Percent:      p.Percent,
		CorpusBefore: p.CorpusBefore.String(),
		CorpusAfter:  p.CorpusAfter.String(),
		Status:       string(p.Status),
		TransferRef:  p.TransferRef,
		ExecutedAt:   p.ExecutedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromPayoutModel(m *payoutModel) (*payout.Payout, error) {
	payoutID, err := id.ParsePayoutID(m.ID)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}
	before, err := types.ParseAmount(m.CorpusBefore)
	if err != nil {
		return nil, err
	}
	after, err := types.ParseAmount(m.CorpusAfter)
	if err != nil {
		return nil, err
	}

	return &payout.Payout{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           payoutID,
		AccountID:    account.ID(m.AccountID),
		Amount:       amount,
		Percent:      m.Percent,
		CorpusBefore: before,
		CorpusAfter:  after,
		Status:       payout.Status(m.Status),
		TransferRef:  m.TransferRef,
		ExecutedAt:   m.ExecutedAt,
	}, nil
}
