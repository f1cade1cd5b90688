package bot

import (
	"sort"
	"strings"
	"sync"
)

// HandlerFunc executes one command invocation.
type HandlerFunc func(ctx *CommandContext) error

// Command couples a name with its handler and static privilege flag. The
// admin policy can additionally mark any command admin-only at runtime.
type Command struct {
	Name      string
	AdminOnly bool
	Handler   HandlerFunc
}

// Registry maps command names to handlers. Populated at startup, read-only
// during dispatch.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

func (r *Registry) Register(cmd *Command) {
	r.mu.Lock()
	r.commands[strings.ToLower(cmd.Name)] = cmd
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Names returns all registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
