package job

import "sync"

// registry enforces single-flight per user: a user has at most one active
// job at a time. Acquire and release are the only mutations, so the map
// never holds finished jobs.
type registry struct {
	mu     sync.Mutex
	active map[int64]*Handle
}

func newRegistry() *registry {
	return &registry{active: make(map[int64]*Handle)}
}

// acquire claims the user's slot for h. It returns ErrBusy without side
// effects when another job already holds the slot.
func (r *registry) acquire(h *Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[h.UserID]; ok {
		return ErrBusy
	}
	r.active[h.UserID] = h
	return nil
}

// release frees the user's slot if h still holds it.
func (r *registry) release(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.active[h.UserID]; ok && cur == h {
		delete(r.active, h.UserID)
	}
}

// find returns the user's active job, if any.
func (r *registry) find(userID int64) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.active[userID]
	return h, ok
}

// snapshot returns all active jobs.
func (r *registry) snapshot() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Handle, 0, len(r.active))
	for _, h := range r.active {
		out = append(out, h)
	}
	return out
}
