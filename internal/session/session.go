// Package session tracks which topics a conversation has already consumed, so
// the selector can avoid repeating itself within one session. State is
// in-memory only and lives for the process, scoped per session id.
package session

import (
	"sort"
	"sync"
)

// Context holds the used-topic set for a single session. It is passed
// explicitly into the selector and generator rather than living on any
// long-lived global.
type Context struct {
	ID string

	mu   sync.Mutex
	used map[string]struct{}
}

// NewContext creates an empty session context.
func NewContext(id string) *Context {
	return &Context{ID: id, used: make(map[string]struct{})}
}

// MarkUsed records that the session consumed the given topic or title.
func (c *Context) MarkUsed(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.used[text] = struct{}{}
}

// WasUsed reports whether the session already consumed text.
func (c *Context) WasUsed(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.used[text]
	return ok
}

// Used returns a sorted snapshot of the used set.
func (c *Context) Used() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.used))
	for t := range c.used {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Registry hands out session contexts keyed by session id, creating them on
// first sight.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Context
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Context)}
}

// Get returns the context for id, creating it if the session is unseen.
func (r *Registry) Get(id string) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.sessions[id]; ok {
		return c
	}
	c := NewContext(id)
	r.sessions[id] = c
	return c
}
