// Package memory keeps the bounded per-channel conversation history that
// feeds AI replies.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/rakuworks/pdbot/pkg/logger"
)

const (
	// maxHistoryLength bounds a thread: 20 user plus 20 assistant turns.
	maxHistoryLength = 40

	// threadTTL evicts whole threads idle for a day.
	threadTTL = 24 * time.Hour

	// sweepSchedule is checked once a minute by the sweeper goroutine.
	sweepSchedule = "@hourly"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Turn struct {
	Role    string
	Content string
}

type thread struct {
	turns      []Turn
	lastAccess time.Time
}

// Conversations owns every channel's rolling history.
type Conversations struct {
	mu      sync.Mutex
	threads map[string]*thread
	now     func() time.Time
}

func NewConversations() *Conversations {
	return &Conversations{
		threads: make(map[string]*thread),
		now:     time.Now,
	}
}

// Append records one turn, creating the thread on first use and evicting
// oldest turns beyond the cap.
func (c *Conversations) Append(channelID, role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.threads[channelID]
	if !ok {
		t = &thread{}
		c.threads[channelID] = t
	}
	t.turns = append(t.turns, Turn{Role: role, Content: content})
	if n := len(t.turns); n > maxHistoryLength {
		t.turns = t.turns[n-maxHistoryLength:]
	}
	t.lastAccess = c.now()
}

// History returns a copy of the channel's turns, oldest first.
func (c *Conversations) History(channelID string) []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.threads[channelID]
	if !ok {
		return nil
	}
	t.lastAccess = c.now()
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Clear drops a channel's thread.
func (c *Conversations) Clear(channelID string) {
	c.mu.Lock()
	delete(c.threads, channelID)
	c.mu.Unlock()
}

// Sweep evicts threads idle longer than the TTL and returns how many went.
func (c *Conversations) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-threadTTL)
	evicted := 0
	for id, t := range c.threads {
		if t.lastAccess.Before(cutoff) {
			delete(c.threads, id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs Sweep on the hourly schedule until ctx is done.
func (c *Conversations) StartSweeper(ctx context.Context) {
	gron := gronx.New()
	ticker := time.NewTicker(time.Minute)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				due, err := gron.IsDue(sweepSchedule, time.Now())
				if err != nil || !due {
					continue
				}
				if n := c.Sweep(); n > 0 {
					logger.InfoCF("memory", "Swept idle conversation threads", map[string]interface{}{
						"evicted": n,
					})
				}
			}
		}
	}()
}
