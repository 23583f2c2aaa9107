package bot

import (
	"sync"
	"time"
)

// CooldownTracker records the last invocation time per (user, command).
// Entries live for the process lifetime; the key-space is bounded by active
// users times registered commands, so there is no eviction.
type CooldownTracker struct {
	mu       sync.Mutex
	lastUsed map[string]time.Time
	now      func() time.Time
}

func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		lastUsed: make(map[string]time.Time),
		now:      time.Now,
	}
}

func cooldownKey(userID, commandName string) string {
	return userID + "_" + commandName
}

// IsOnCooldown reports whether the user is still inside the command's
// cooldown window, and if so how many whole seconds remain (rounded up).
// A gated attempt does not advance the clock; only Mark does.
func (c *CooldownTracker) IsOnCooldown(userID, commandName string, durationSeconds int) (bool, int) {
	if durationSeconds <= 0 {
		return false, 0
	}

	c.mu.Lock()
	last, exists := c.lastUsed[cooldownKey(userID, commandName)]
	c.mu.Unlock()
	if !exists {
		return false, 0
	}

	window := time.Duration(durationSeconds) * time.Second
	elapsed := c.now().Sub(last)
	if elapsed >= window {
		return false, 0
	}

	remaining := int((window - elapsed + time.Second - 1) / time.Second)
	return true, remaining
}

// Mark records now as the user's last invocation of the command.
func (c *CooldownTracker) Mark(userID, commandName string) {
	c.mu.Lock()
	c.lastUsed[cooldownKey(userID, commandName)] = c.now()
	c.mu.Unlock()
}
