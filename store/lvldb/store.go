// Package lvldb provides an embedded LevelDB-backed Store.
//
// Records are JSON encoded. Accounts live under "acct\x00<account id>" and
// payout history under "payout\x00<uvarint len><account id><payout id>", so
// one account's history is a single prefix scan.
package lvldb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/xraph/pension"
	"github.com/xraph/pension/account"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/store"
)

var _ store.Store = (*Store)(nil)

var (
	accountPrefix = []byte("acct\x00")
	payoutPrefix  = []byte("payout\x00")

	writeOpt = opt.WriteOptions{Sync: true}
	readOpt  = opt.ReadOptions{}
)

// Options tunes the LevelDB instance. Sizes are in MiB.
type Options struct {
	CacheSize              int
	OpenFilesCacheCapacity int
}

// Store implements store.Store on top of goleveldb.
type Store struct {
	db *leveldb.DB
}

// New opens or creates a persistent store at path.
func New(path string, opts Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, dbOptions(opts))
	if err != nil {
		return nil, errors.Wrap(err, "pension/lvldb: open")
	}
	return &Store{db: db}, nil
}

// NewMem creates a store backed by memory storage.
func NewMem() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), dbOptions(Options{}))
	if err != nil {
		return nil, errors.Wrap(err, "pension/lvldb: open")
	}
	return &Store{db: db}, nil
}

func dbOptions(opts Options) *opt.Options {
	cacheSize := max(opts.CacheSize, 16)
	openFiles := max(opts.OpenFilesCacheCapacity, 16)

	return &opt.Options{
		OpenFilesCacheCapacity: openFiles,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
}

func accountKey(accountID account.ID) []byte {
	return append(append([]byte{}, accountPrefix...), accountID...)
}

// payoutAccountPrefix length-prefixes the account ID so that no ID is a byte
// prefix of another account's key range.
func payoutAccountPrefix(accountID account.ID) []byte {
	key := append([]byte{}, payoutPrefix...)
	key = binary.AppendUvarint(key, uint64(len(accountID)))
	return append(key, accountID...)
}

// ──────────────────────────────────────────────────
// Account Store
// ──────────────────────────────────────────────────

func (s *Store) GetAccount(_ context.Context, accountID account.ID) (*account.Account, error) {
	data, err := s.db.Get(accountKey(accountID), &readOpt)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, pension.ErrAccountNotFound
		}
		return nil, mapErr(err, "get account")
	}

	var a account.Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrap(err, "pension/lvldb: decode account")
	}
	return &a, nil
}

func (s *Store) SetAccount(_ context.Context, a *account.Account) error {
	data, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, "pension/lvldb: encode account")
	}
	if err := s.db.Put(accountKey(a.ID), data, &writeOpt); err != nil {
		return mapErr(err, "set account")
	}
	return nil
}

// ──────────────────────────────────────────────────
// Payout Store
// ──────────────────────────────────────────────────

func (s *Store) RecordPayout(_ context.Context, p *payout.Payout) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "pension/lvldb: encode payout")
	}
	key := append(payoutAccountPrefix(p.AccountID), p.ID.String()...)
	if err := s.db.Put(key, data, &writeOpt); err != nil {
		return mapErr(err, "record payout")
	}
	return nil
}

func (s *Store) ListPayouts(_ context.Context, accountID account.ID, opts payout.ListOpts) ([]*payout.Payout, error) {
	it := s.db.NewIterator(util.BytesPrefix(payoutAccountPrefix(accountID)), &readOpt)
	defer it.Release()

	var result []*payout.Payout
	for it.Next() {
		var p payout.Payout
		if err := json.Unmarshal(it.Value(), &p); err != nil {
			return nil, errors.Wrap(err, "pension/lvldb: decode payout")
		}
		result = append(result, &p)
	}
	if err := it.Error(); err != nil {
		return nil, mapErr(err, "list payouts")
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Newer(result[j])
	})

	start, end := opts.Bounds(len(result))
	return result[start:end], nil
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op; LevelDB is schemaless.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping checks that the database is still open.
func (s *Store) Ping(_ context.Context) error {
	if _, err := s.db.GetProperty("leveldb.stats"); err != nil {
		return mapErr(err, "ping")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func mapErr(err error, op string) error {
	if errors.Is(err, leveldb.ErrClosed) {
		return pension.ErrStoreClosed
	}
	return errors.Wrap(err, "pension/lvldb: "+op)
}
