package editor

import (
	"sort"
	"sync"

	"trackdesk/core/draft"
	"trackdesk/logger"
)

// Registry keeps the open sessions of a process, one per draft key. A session
// leaves the registry once its post is submitted.
type Registry struct {
	base Config
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Controller
}

// NewRegistry creates a registry whose sessions share base's timing settings
// and deps.
func NewRegistry(base Config, deps Deps) *Registry {
	return &Registry{
		base:     base,
		deps:     deps,
		sessions: make(map[string]*Controller),
	}
}

// Open returns the live session for the key, or opens one with defaults.
// reused is true when an existing session was returned.
func (r *Registry) Open(isSubmitting bool, postID string, defaults Form) (c *Controller, reused bool) {
	key := draft.SessionKey(isSubmitting, postID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[key]; ok {
		if existing.State() != StateSubmitted {
			return existing, true
		}
		existing.Close()
	}

	cfg := r.base
	cfg.IsSubmitting = isSubmitting
	cfg.PostID = postID
	cfg.Defaults = defaults
	c = Open(cfg, r.deps)
	c.onSubmitted = func() { r.forget(key, c) }
	r.sessions[key] = c
	logger.Info("editor session opened", logger.String("session", key))
	return c, false
}

// forget drops c unless the key was reopened since.
func (r *Registry) forget(key string, c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[key] == c {
		delete(r.sessions, key)
		logger.Info("editor session finished", logger.String("session", key))
	}
}

// Get looks a session up by key.
func (r *Registry) Get(key string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[key]
	return c, ok
}

// Keys lists the open session keys.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sessions))
	for k := range r.sessions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Close flushes and forgets one session. It reports whether it existed.
func (r *Registry) Close(key string) bool {
	r.mu.Lock()
	c, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()

	if ok {
		c.Close()
		logger.Info("editor session closed", logger.String("session", key))
	}
	return ok
}

// CloseAll flushes and forgets every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Controller)
	r.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
}
