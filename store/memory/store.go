// Package memory provides an in-memory Store for tests and development.
// Records are copied on the way in and out, so callers never share state
// with the store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/pension"
	"github.com/xraph/pension/account"
	"github.com/xraph/pension/payout"
	"github.com/xraph/pension/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	accounts map[account.ID]*account.Account
	payouts  map[account.ID][]*payout.Payout
	closed   bool
}

func New() *Store {
	return &Store{
		accounts: make(map[account.ID]*account.Account),
		payouts:  make(map[account.ID][]*payout.Payout),
	}
}

// Account Store implementation
func (s *Store) GetAccount(_ context.Context, accountID account.ID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, pension.ErrStoreClosed
	}
	if a, ok := s.accounts[accountID]; ok {
		return a.Clone(), nil
	}
	return nil, pension.ErrAccountNotFound
}

func (s *Store) SetAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pension.ErrStoreClosed
	}
	s.accounts[a.ID] = a.Clone()
	return nil
}

// Payout Store implementation
func (s *Store) RecordPayout(_ context.Context, p *payout.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pension.ErrStoreClosed
	}
	s.payouts[p.AccountID] = append(s.payouts[p.AccountID], p.Clone())
	return nil
}

func (s *Store) ListPayouts(_ context.Context, accountID account.ID, opts payout.ListOpts) ([]*payout.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, pension.ErrStoreClosed
	}

	rows := s.payouts[accountID]
	result := make([]*payout.Payout, 0, len(rows))
	for _, p := range rows {
		result = append(result, p.Clone())
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Newer(result[j])
	})

	start, end := opts.Bounds(len(result))
	return result[start:end], nil
}

// Len returns the number of stored accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return pension.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
