// Package ghost tracks time-boxed suppression of AI replies per user.
package ghost

import (
	"sync"
	"time"

	"github.com/rakuworks/pdbot/pkg/logger"
)

// Registry maps user ids to ghost expiry instants. Entries are lazily
// deleted on the first check after expiry, so no background sweep is needed
// for correctness.
type Registry struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Ghost suppresses AI replies to the user for the given number of minutes,
// overwriting any existing entry.
func (r *Registry) Ghost(userID string, minutes int) {
	expiry := r.now().Add(time.Duration(minutes) * time.Minute)
	r.mu.Lock()
	r.entries[userID] = expiry
	r.mu.Unlock()
	logger.InfoCF("ghost", "User ghosted", map[string]interface{}{
		"user_id": userID,
		"minutes": minutes,
		"until":   expiry.Format(time.Kitchen),
	})
}

// IsGhosted reports whether the user is currently suppressed. An expired
// entry is removed as a side effect.
func (r *Registry) IsGhosted(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.entries[userID]
	if !ok {
		return false
	}
	if r.now().After(expiry) {
		delete(r.entries, userID)
		return false
	}
	return true
}
