package admin

import (
	"strings"
	"sync"

	"github.com/rakuworks/pdbot/pkg/logger"
)

// Policy answers privilege questions from an in-process cache over the
// store. Mutations are write-through: persist first, then update the cache,
// so readers never observe a partial update. Add/remove return false when
// they are no-ops.
type Policy struct {
	store Store

	mu       sync.Mutex
	admins   map[string]bool
	commands map[string]bool
	loaded   bool
}

func NewPolicy(store Store) *Policy {
	return &Policy{
		store:    store,
		admins:   make(map[string]bool),
		commands: make(map[string]bool),
	}
}

// Load populates the cache from the store. Called at startup; reads also
// trigger it lazily if startup skipped it.
func (p *Policy) Load() error {
	users, err := p.store.ListAdmins()
	if err != nil {
		return err
	}
	commands, err := p.store.ListAdminCommands()
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.admins = make(map[string]bool, len(users))
	for _, u := range users {
		p.admins[u] = true
	}
	p.commands = make(map[string]bool, len(commands))
	for _, c := range commands {
		p.commands[strings.ToLower(c)] = true
	}
	p.loaded = true
	p.mu.Unlock()
	return nil
}

func (p *Policy) ensureLoaded() {
	p.mu.Lock()
	loaded := p.loaded
	p.mu.Unlock()
	if loaded {
		return
	}
	if err := p.Load(); err != nil {
		logger.ErrorCF("admin", "Failed to load admin cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (p *Policy) IsAdmin(userID string) bool {
	p.ensureLoaded()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.admins[userID]
}

func (p *Policy) IsCommandAdminOnly(name string) bool {
	p.ensureLoaded()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commands[strings.ToLower(name)]
}

// AddAdmin grants admin to a user. Returns false if already an admin.
func (p *Policy) AddAdmin(userID, addedBy string) (bool, error) {
	p.ensureLoaded()
	p.mu.Lock()
	exists := p.admins[userID]
	p.mu.Unlock()
	if exists {
		return false, nil
	}
	if err := p.store.InsertAdmin(userID, addedBy); err != nil {
		return false, err
	}
	p.mu.Lock()
	p.admins[userID] = true
	p.mu.Unlock()
	return true, nil
}

// RemoveAdmin revokes admin. Returns false if the user was not an admin.
func (p *Policy) RemoveAdmin(userID string) (bool, error) {
	p.ensureLoaded()
	p.mu.Lock()
	exists := p.admins[userID]
	p.mu.Unlock()
	if !exists {
		return false, nil
	}
	if err := p.store.DeleteAdmin(userID); err != nil {
		return false, err
	}
	p.mu.Lock()
	delete(p.admins, userID)
	p.mu.Unlock()
	return true, nil
}

// AddAdminCommand marks a command admin-only. Returns false if already
// marked.
func (p *Policy) AddAdminCommand(name, addedBy string) (bool, error) {
	p.ensureLoaded()
	key := strings.ToLower(name)
	p.mu.Lock()
	exists := p.commands[key]
	p.mu.Unlock()
	if exists {
		return false, nil
	}
	if err := p.store.InsertAdminCommand(key, addedBy); err != nil {
		return false, err
	}
	p.mu.Lock()
	p.commands[key] = true
	p.mu.Unlock()
	return true, nil
}

// RemoveAdminCommand clears the admin-only mark. Returns false if absent.
func (p *Policy) RemoveAdminCommand(name string) (bool, error) {
	p.ensureLoaded()
	key := strings.ToLower(name)
	p.mu.Lock()
	exists := p.commands[key]
	p.mu.Unlock()
	if !exists {
		return false, nil
	}
	if err := p.store.DeleteAdminCommand(key); err != nil {
		return false, err
	}
	p.mu.Lock()
	delete(p.commands, key)
	p.mu.Unlock()
	return true, nil
}
