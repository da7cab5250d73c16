package presence

import "sync"

// Info is what the room knows about an announced connection.
type Info struct {
	Nickname string
	Color    string
}

// Registry maps live connection ids to their announced presence.
// Purely in-memory; not persisted across restarts.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]Info
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]Info),
	}
}

func (r *Registry) Set(connID string, info Info) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byConn[connID] = info
}

func (r *Registry) Get(connID string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.byConn[connID]
	return info, ok
}

// Find looks presence up by nickname. Used by the upload path when the
// session-color policy is enabled.
func (r *Registry) Find(nickname string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, info := range r.byConn {
		if info.Nickname == nickname {
			return info, true
		}
	}
	return Info{}, false
}

// Clear removes the entry and reports whether one existed. Callers use
// the return value to announce a departure exactly once.
func (r *Registry) Clear(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConn[connID]; !ok {
		return false
	}
	delete(r.byConn, connID)
	return true
}
