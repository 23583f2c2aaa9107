package bot

import "sync"

// userLocks serializes message handling per user id. Two concurrent messages
// from the same user would otherwise race on the profile's
// load-mutate-persist sequence and lose an XP update.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// lock blocks until the per-user lock is held and returns the unlock func.
func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
