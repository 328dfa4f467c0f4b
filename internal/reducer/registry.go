package reducer

import (
	"sync/atomic"

	"github.com/thiagokokada/gitdeck/internal/git/backend"
	"github.com/thiagokokada/gitdeck/internal/state"
)

// Registry maps open repositories to their backend handles. It is only used
// from the store's reducer goroutine and is not safe for concurrent use.
type Registry struct {
	handles map[state.RepoID]backend.Repository
}

func NewRegistry() *Registry {
	return &Registry{handles: map[state.RepoID]backend.Repository{}}
}

func (r *Registry) Handle(id state.RepoID) (backend.Repository, bool) {
	h, ok := r.handles[id]
	return h, ok
}

func (r *Registry) set(id state.RepoID, h backend.Repository) { r.handles[id] = h }
func (r *Registry) remove(id state.RepoID)                    { delete(r.handles, id) }
func (r *Registry) clear()                                    { clear(r.handles) }

func (r *Registry) Len() int { return len(r.handles) }

// IDAllocator issues increasing repository IDs starting at 1.
type IDAllocator struct {
	last atomic.Uint64
}

func (a *IDAllocator) Next() state.RepoID {
	return state.RepoID(a.last.Add(1))
}
