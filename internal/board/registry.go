package board

import "sync"

// Registry tracks the running boards by page id.
type Registry struct {
	mu     sync.RWMutex
	boards map[string]*Board
}

func NewRegistry() *Registry {
	return &Registry{
		boards: make(map[string]*Board),
	}
}

// Add registers b, replacing a previous board of the same page.
func (r *Registry) Add(b *Board) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards[b.ID()] = b
}

// Remove unregisters b unless another board took its place.
func (r *Registry) Remove(b *Board) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.boards[b.ID()]; ok && cur == b {
		delete(r.boards, b.ID())
	}
}

func (r *Registry) Get(id string) (*Board, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boards[id]
	return b, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.boards)
}
