// Package redis provides a Redis-backed Store.
//
// Key layout, under a configurable prefix:
//
//	<prefix>:account:<account id>     string, JSON account
//	<prefix>:payouts:<account id>     hash, payout id -> JSON payout
//	<prefix>:payout_idx:<account id>  sorted set, payout id scored by executed-at (µs)
package redis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/xraph/pension"
	"github.com/xraph/pension/account"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/store"
)

var _ store.Store = (*Store)(nil)

// DefaultPrefix namespaces keys when none is given.
const DefaultPrefix = "pension"

// Store implements store.Store on a Redis client.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

// New returns a Store using rdb. An empty prefix selects DefaultPrefix.
func New(rdb redis.UniversalClient, prefix string) *Store {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Dial connects to a single Redis server at addr.
func Dial(addr, password string, db int, prefix string) *Store {
	return New(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), prefix)
}

func (s *Store) accountKey(accountID account.ID) string {
	return s.prefix + ":account:" + accountID.String()
}

func (s *Store) payoutsKey(accountID account.ID) string {
	return s.prefix + ":payouts:" + accountID.String()
}

func (s *Store) payoutIndexKey(accountID account.ID) string {
	return s.prefix + ":payout_idx:" + accountID.String()
}

// ──────────────────────────────────────────────────
// Account Store
// ──────────────────────────────────────────────────

func (s *Store) GetAccount(ctx context.Context, accountID account.ID) (*account.Account, error) {
	data, err := s.rdb.Get(ctx, s.accountKey(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pension.ErrAccountNotFound
		}
		return nil, mapErr(err, "get account")
	}

	var a account.Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrap(err, "pension/redis: decode account")
	}
	return &a, nil
}

func (s *Store) SetAccount(ctx context.Context, a *account.Account) error {
	data, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "pension/redis: encode account")
	}
	if err := s.rdb.Set(ctx, s.accountKey(a.ID), data, 0).Err(); err != nil {
		return mapErr(err, "set account")
	}
	return nil
}

// ──────────────────────────────────────────────────
// Payout Store
// ──────────────────────────────────────────────────

func (s *Store) RecordPayout(ctx context.Context, p *payout.Payout) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "pension/redis: encode payout")
	}

	member := p.ID.String()
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.payoutsKey(p.AccountID), member, data)
		pipe.ZAdd(ctx, s.payoutIndexKey(p.AccountID), &redis.Z{
			Score:  float64(p.ExecutedAt.UnixMicro()),
			Member: member,
		})
		return nil
	})
	if err != nil {
		return mapErr(err, "record payout")
	}
	return nil
}

// ListPayouts returns the account's payouts newest first. Index entries whose
// body is missing are removed from the index and the page is read again, so a
// page is only short when history runs out.
func (s *Store) ListPayouts(ctx context.Context, accountID account.ID, opts payout.ListOpts) ([]*payout.Payout, error) {
	for attempt := 0; ; attempt++ {
		result, orphans, err := s.listPage(ctx, accountID, opts)
		if err != nil {
			return nil, err
		}
		if len(orphans) == 0 || attempt == maxIndexRepairs {
			return result, nil
		}

		members := make([]interface{}, len(orphans))
		for i, o := range orphans {
			members[i] = o
		}
		if err := s.rdb.ZRem(ctx, s.payoutIndexKey(accountID), members...).Err(); err != nil {
			return nil, mapErr(err, "repair payout index")
		}
	}
}

// maxIndexRepairs bounds how often one ListPayouts call re-reads a page after
// dropping dangling index entries.
const maxIndexRepairs = 3

func (s *Store) listPage(ctx context.Context, accountID account.ID, opts payout.ListOpts) ([]*payout.Payout, []string, error) {
	start := int64(max(opts.Offset, 0))
	stop := int64(-1)
	if opts.Limit > 0 {
		stop = start + int64(opts.Limit) - 1
	}

	ids, err := s.rdb.ZRevRange(ctx, s.payoutIndexKey(accountID), start, stop).Result()
	if err != nil {
		return nil, nil, mapErr(err, "list payouts")
	}
	if len(ids) == 0 {
		return []*payout.Payout{}, nil, nil
	}

	values, err := s.rdb.HMGet(ctx, s.payoutsKey(accountID), ids...).Result()
	if err != nil {
		return nil, nil, mapErr(err, "list payouts")
	}

	result := make([]*payout.Payout, 0, len(values))
	var orphans []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			orphans = append(orphans, ids[i])
			continue
		}
		var p payout.Payout
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, nil, errors.Wrap(err, "pension/redis: decode payout")
		}
		result = append(result, &p)
	}
	return result, orphans, nil
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op; Redis is schemaless.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return mapErr(err, "ping")
	}
	return nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func mapErr(err error, op string) error {
	if errors.Is(err, redis.ErrClosed) {
		return pension.ErrStoreClosed
	}
	return errors.Wrap(err, "pension/redis: "+op)
}
