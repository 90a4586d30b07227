package sqlite

import (
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/pension/account"
	"github.com/xraph/pension/id"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/types"
)

// Times are stored as fixed-width UTC text in timeLayout, which sorts
// lexically in time order. SQLite has no native time type.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(column, s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("pension/sqlite: parse %s: %w", column, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(column string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseTime(column, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ==================== Account models ====================

// Amounts are stored as decimal text so balances beyond 64 bits keep full
// precision.
type accountModel struct {
	grove.BaseModel `grove:"table:pension_accounts"`

	ID             string  `grove:"id,pk"`
	Corpus         string  `grove:"corpus"`
	RetirementTime string  `grove:"retirement_time"`
	MonthlyPercent int     `grove:"monthly_percent"`
	LastPayoutAt   *string `grove:"last_payout_at"`
	CreatedAt      string  `grove:"created_at"`
	UpdatedAt      string  `grove:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		ID:             a.ID.String(),
		Corpus:         a.Corpus.String(),
		RetirementTime: formatTime(a.RetirementTime),
		MonthlyPercent: a.MonthlyPercent,
		LastPayoutAt:   formatTimePtr(a.LastPayoutAt),
		CreatedAt:      formatTime(a.CreatedAt),
		UpdatedAt:      formatTime(a.UpdatedAt),
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	corpus, err := types.ParseAmount(m.Corpus)
	if err != nil {
		return nil, err
	}
	retirement, err := parseTime("retirement_time", m.RetirementTime)
	if err != nil {
		return nil, err
	}
	lastPayout, err := parseTimePtr("last_payout_at", m.LastPayoutAt)
	if err != nil {
		return nil, err
	}
	created, err := parseTime("created_at", m.CreatedAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime("updated_at", m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &account.Account{
		Entity: types.Entity{
			CreatedAt: created,
			UpdatedAt: updated,
		},
		ID:             account.ID(m.ID),
		Corpus:         corpus,
		RetirementTime: retirement,
		MonthlyPercent: m.MonthlyPercent,
		LastPayoutAt:   lastPayout,
	}, nil
}

// ==================== Payout models ====================

type payoutModel struct {
	grove.BaseModel `grove:"table:pension_payouts"`

	ID           string `grove:"id,pk"`
	AccountID    string `grove:"account_id"`
	Amount       string `grove:"amount"`
	Percent      int    `grove:"percent"`
	CorpusBefore string `grove:"corpus_before"`
	CorpusAfter  string `grove:"corpus_after"`
	Status       string `grove:"status"`
	TransferRef  string `grove:"transfer_ref"`
	ExecutedAt   string `grove:"executed_at"`
	CreatedAt    string `grove:"created_at"`
	UpdatedAt    string `grove:"updated_at"`
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
		ExecutedAt:   formatTime(p.ExecutedAt),
		CreatedAt:    formatTime(p.CreatedAt),
		UpdatedAt:    formatTime(p.UpdatedAt),
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
	executed, err := parseTime("executed_at", m.ExecutedAt)
	if err != nil {
		return nil, err
	}
	created, err := parseTime("created_at", m.CreatedAt)
	if err != nil {
		return nil, err
	}
	updated, err := parseTime("updated_at", m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &payout.Payout{
		Entity: types.Entity{
			CreatedAt: created,
			UpdatedAt: updated,
		},
		ID:           payoutID,
		AccountID:    account.ID(m.AccountID),
		Amount:       amount,
		Percent:      m.Percent,
		CorpusBefore: before,
		CorpusAfter:  after,
		Status:       payout.Status(m.Status),
		TransferRef:  m.TransferRef,
		ExecutedAt:   executed,
	}, nil
}
