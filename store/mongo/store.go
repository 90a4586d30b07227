package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/pension"
	"github.com/xraph/pension/account"
	"github.com/xraph/pension/payout"
	pensionstore "github.com/xraph/pension/store"
)

// Collection name constants.
const (
	colAccounts = "pension_accounts"
	colPayouts  = "pension_payouts"
)

// compile-time interface check
var _ pensionstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all pension collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("pension/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, accountID account.ID) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": accountID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, pension.ErrAccountNotFound
		}
		return nil, fmt.Errorf("pension/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) SetAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)

	set := bson.M{
		"corpus":          m.Corpus,
		"retirement_time": m.RetirementTime,
		"monthly_percent": m.MonthlyPercent,
		"created_at":      m.CreatedAt,
		"updated_at":      m.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if m.LastPayoutAt != nil {
		set["last_payout_at"] = *m.LastPayoutAt
	} else {
		update["$unset"] = bson.M{"last_payout_at": ""}
	}

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(update).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("pension/mongo: set account: %w", err)
	}
	return nil
}

// ==================== Payout Store ====================

func (s *Store) RecordPayout(ctx context.Context, p *payout.Payout) error {
	m := toPayoutModel(p)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("pension/mongo: record payout: %w", err)
	}
	return nil
}

func (s *Store) ListPayouts(ctx context.Context, accountID account.ID, opts payout.ListOpts) ([]*payout.Payout, error) {
	var models []payoutModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"account_id": accountID.String()}).
		Sort(bson.D{{Key: "executed_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("pension/mongo: list payouts: %w", err)
	}

	result := make([]*payout.Payout, len(models))
	for i := range models {
		p, err := fromPayoutModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all pension collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{Keys: bson.D{{Key: "retirement_time", Value: 1}}},
		},
		colPayouts: {
			{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "executed_at", Value: -1}}},
			{
				Keys:    bson.D{{Key: "transfer_ref", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		},
	}
}
