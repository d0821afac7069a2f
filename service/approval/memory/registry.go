package memory

import (
	"fmt"
	"sync"

	approval "github.com/holdpoint/holdpoint/service/approval"
)

// entry pairs a pending request with its wait handle. The handle is owned
// exclusively by the request and is torn down together with it.
type entry struct {
	request *approval.Request
	handle  *waitHandle
}

// registry owns the owner -> pending requests mapping. A single mutex
// serializes all mutations; it is held only for map and slice operations,
// never across a blocking wait, so hold time is independent of approval
// latency.
type registry struct {
	mu     sync.Mutex
	owners map[string][]*entry // insertion ordered per owner
	byID   map[string]*entry   // id -> entry, ids are globally unique
}

func newRegistry() *registry {
	return &registry{
		owners: make(map[string][]*entry),
		byID:   make(map[string]*entry),
	}
}

// insert registers the request under its owner. The request becomes visible
// to listers only after its handle is armed, which insert enforces by
// accepting both together.
func (r *registry) insert(req *approval.Request, handle *waitHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[req.ID]; ok {
		return fmt.Errorf("%w: %s", approval.ErrDuplicateID, req.ID)
	}
	e := &entry{request: req, handle: handle}
	r.byID[req.ID] = e
	r.owners[req.Owner] = append(r.owners[req.Owner], e)
	return nil
}

// remove deletes the request from its owner bucket. It is a deliberate no-op
// when the id is absent so cleanup stays idempotent across races between
// timeout and explicit resolution. An emptied owner bucket is deleted to
// keep the registry footprint proportional to outstanding requests.
func (r *registry) remove(owner, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)

	bucket := r.owners[owner]
	for i, e := range bucket {
		if e.request.ID == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(r.owners, owner)
		return
	}
	r.owners[owner] = bucket
}

// list returns an insertion-ordered snapshot of owner's pending requests.
// The slice is a copy; requests themselves are immutable after creation, so
// sharing the pointers is safe.
func (r *registry) list(owner string) []*approval.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket := r.owners[owner]
	out := make([]*approval.Request, 0, len(bucket))
	for _, e := range bucket {
		out = append(out, e.request)
	}
	return out
}

// find returns the entry for id or approval.ErrNotFound. The lookup runs
// entirely inside the critical section so it cannot race a concurrent
// remove.
func (r *registry) find(id string) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}
	return e, nil
}

// ownerCount reports the number of owner buckets currently held.
func (r *registry) ownerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.owners)
}
