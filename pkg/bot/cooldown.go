package bot

import (
	"sync"
	"time"
)

const cooldownWindow = 4 * time.Second

// Cooldown throttles non-admin command use to one invocation per window per
// sender. Entries schedule their own removal at insertion, and Allow checks
// the window anyway so a late timer cannot let a call slip through.
type Cooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func NewCooldown() *Cooldown {
	return &Cooldown{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Allow reports whether the sender may run a command now, recording the
// attempt when allowed.
func (c *Cooldown) Allow(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if at, ok := c.last[userID]; ok && now.Sub(at) < cooldownWindow {
		return false
	}

	c.last[userID] = now
	time.AfterFunc(cooldownWindow, func() {
		c.mu.Lock()
		if at, ok := c.last[userID]; ok && at.Equal(now) {
			delete(c.last, userID)
		}
		c.mu.Unlock()
	})
	return true
}
