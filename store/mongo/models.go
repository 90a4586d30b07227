package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/id"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/types"
)

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:pension_accounts"`

	ID             string     `grove:"id,pk"           bson:"_id"`
	Corpus         string     `grove:"corpus"          bson:"corpus"`
	RetirementTime time.Time  `grove:"retirement_time" bson:"retirement_time"`
	MonthlyPercent int        `grove:"monthly_percent" bson:"monthly_percent"`
	LastPayoutAt   *time.Time `grove:"last_payout_at"  bson:"last_payout_at,omitempty"`
	CreatedAt      time.Time  `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"      bson:"updated_at"`
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
	var last *time.Time
	if m.LastPayoutAt != nil {
		t := m.LastPayoutAt.UTC()
		last = &t
	}
	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:             account.ID(m.ID),
		Corpus:         corpus,
		RetirementTime: m.RetirementTime.UTC(),
		MonthlyPercent: m.MonthlyPercent,
		LastPayoutAt:   last,
	}, nil
}

// ==================== Payout models ====================

type payoutModel struct {
	grove.BaseModel `grove:"table:pension_payouts"`

	ID           string    `grove:"id,pk"         bson:"_id"`
	AccountID    string    `grove:"account_id"    bson:"account_id"`
	Amount       string    `grove:"amount"        bson:"amount"`
	Percent      int       `grove:"percent"       bson:"percent"`
	CorpusBefore string    `grove:"corpus_before" bson:"corpus_before"`
	CorpusAfter  string    `grove:"corpus_after"  bson:"corpus_after"`
	Status       string    `grove:"status"        bson:"status"`
	TransferRef  string    `grove:"transfer_ref"  bson:"transfer_ref,omitempty"`
	ExecutedAt   time.Time `grove:"executed_at"   bson:"executed_at"`
	CreatedAt    time.Time `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"    bson:"updated_at"`
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
	var amounts [3]types.Amount
	for i, raw := range []string{m.Amount, m.CorpusBefore, m.CorpusAfter} {
		if amounts[i], err = types.ParseAmount(raw); err != nil {
			return nil, err
		}
	}

	return &payout.Payout{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:           payoutID,
		AccountID:    account.ID(m.AccountID),
		Amount:       amounts[0],
		Percent:      m.Percent,
		CorpusBefore: amounts[1],
		CorpusAfter:  amounts[2],
		Status:       payout.Status(m.Status),
		TransferRef:  m.TransferRef,
		ExecutedAt:   m.ExecutedAt.UTC(),
	}, nil
}
