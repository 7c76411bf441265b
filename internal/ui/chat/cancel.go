package chat

import (
	"context"
	"sync"
)

// cancelRegistry holds the cancel func of each outstanding completion call.
// It is shared by pointer because bubbletea copies Model on every Update.
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[uint64]context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{cancels: make(map[uint64]context.CancelFunc)}
}

func (r *cancelRegistry) add(id uint64, fn context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels[id] = fn
}

// cancel invokes and forgets the cancel func for id. Unknown ids are fine.
func (r *cancelRegistry) cancel(id uint64) {
	r.mu.Lock()
	fn := r.cancels[id]
	delete(r.cancels, id)
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// done releases the context of a call that finished on its own.
func (r *cancelRegistry) done(id uint64) {
	r.cancel(id)
}

func (r *cancelRegistry) cancelAll() {
	r.mu.Lock()
	fns := r.cancels
	r.cancels = make(map[uint64]context.CancelFunc)
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (r *cancelRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}
