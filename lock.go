package pension

import (
	"sync"

	"github.com/xraph/pension/account"
)

// accountLocks serializes operations on the same account while letting
// different accounts proceed in parallel. Entries are dropped once no
// goroutine holds or waits on them.
type accountLocks struct {
	mu    sync.Mutex
	locks map[account.ID]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[account.ID]*accountLock)}
}

// lock blocks until accountID is held and returns the matching unlock.
func (l *accountLocks) lock(accountID account.ID) func() {
	l.mu.Lock()
	entry, ok := l.locks[accountID]
	if !ok {
		entry = &accountLock{}
		l.locks[accountID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, accountID)
		}
		l.mu.Unlock()
	}
}

// size returns the number of live entries.
func (l *accountLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
