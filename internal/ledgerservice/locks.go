package ledgerservice

import (
	"sort"
	"sync"
)

type accountLock struct {
	sync.RWMutex
	refs int
}

// lockTable hands out one RWMutex per account id.
//
// Entries live only while someone holds or waits for them.
type lockTable struct {
	mu    sync.Mutex
	locks map[int64]*accountLock
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[int64]*accountLock)}
}

func (t *lockTable) acquire(id int64) *accountLock {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[id]
	if !ok {
		l = &accountLock{}
		t.locks[id] = l
	}
	l.refs++

	return l
}

func (t *lockTable) release(id int64, l *accountLock) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(t.locks, id)
	}
}

// lock write-locks every given account in ascending id order and returns the unlock func.
func (t *lockTable) lock(ids ...int64) func() {
	ids = sortedUnique(ids)
	held := make([]*accountLock, len(ids))

	for i, id := range ids {
		l := t.acquire(id)
		l.Lock()
		held[i] = l
	}

	return func() {
		for i := len(ids) - 1; i >= 0; i-- {
			held[i].Unlock()
			t.release(ids[i], held[i])
		}
	}
}

// rlock read-locks a single account and returns the unlock func.
func (t *lockTable) rlock(id int64) func() {
	l := t.acquire(id)
	l.RLock()

	return func() {
		l.RUnlock()
		t.release(id, l)
	}
}

func (t *lockTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.locks)
}

func sortedUnique(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}

	return out[:n]
}
