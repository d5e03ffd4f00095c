// Package registry maps opaque web view identifiers to live engine widgets
// and the thread that owns each of them.
//
// Identifiers are allocated from a process-wide monotonic counter starting at
// 1 and are never reused, so a stale identifier can only ever resolve to
// NotFound.
package registry

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-drift/embedview/pkg/dispatch"
	"github.com/go-drift/embedview/pkg/engine"
	"github.com/go-drift/embedview/pkg/errors"
	"github.com/go-drift/embedview/pkg/logging"
	"github.com/go-drift/embedview/pkg/state"
)

// Metrics observes the number of live entries.
type Metrics interface {
	RecordLiveWebViews(n int)
}

// Entry is one registered widget.
type Entry struct {
	ID     uint64
	View   engine.WebView
	Mirror *state.Mirror
	Owner  dispatch.ThreadID

	refs    int
	removed bool
}

// Registry holds the live entries.
type Registry struct {
	mu      sync.Mutex
	entries map[uint64]*Entry
	nextID  atomic.Uint64
	metrics Metrics
}

// New returns an empty registry. m may be nil.
func New(m Metrics) *Registry {
	return &Registry{
		entries: make(map[uint64]*Entry),
		metrics: m,
	}
}

func (r *Registry) recordLive(n int) {
	if r.metrics != nil {
		r.metrics.RecordLiveWebViews(n)
	}
}

// Register stores view and returns its new identifier. The thread ctx runs
// on becomes the owner.
func (r *Registry) Register(ctx context.Context, view engine.WebView, mirror *state.Mirror) uint64 {
	id := r.nextID.Add(1)
	e := &Entry{
		ID:     id,
		View:   view,
		Mirror: mirror,
		Owner:  dispatch.Current(ctx),
	}

	r.mu.Lock()
	r.entries[id] = e
	n := len(r.entries)
	r.mu.Unlock()

	r.recordLive(n)
	logging.Logf("registry register id=%d owner=%d", id, e.Owner)
	return id
}

// acquire looks up id and pins the entry for the caller.
func (r *Registry) acquire(ctx context.Context, op string, id uint64, checkThread bool) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, errors.NotFound(op, id)
	}
	if checkThread && e.Owner != dispatch.Current(ctx) {
		return nil, errors.WrongThread(op, id)
	}
	e.refs++
	return e, nil
}

// release unpins e and reports whether the caller must destroy it.
func (r *Registry) release(e *Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	return e.removed && e.refs == 0
}

// WithEntry runs f with the entry for id. With checkThread set, the caller
// must run on the owning thread or WrongThread is returned and f is not
// called. The registry lock is not held while f runs.
func (r *Registry) WithEntry(ctx context.Context, id uint64, checkThread bool, f func(*Entry) error) error {
	e, err := r.acquire(ctx, "registry.WithEntry", id, checkThread)
	if err != nil {
		return err
	}
	defer func() {
		if r.release(e) {
			destroy(e)
		}
	}()
	return f(e)
}

// Unregister removes id. The identifier is dead from this point on; the
// widget is destroyed now, or when the last running WithEntry body for it
// returns.
func (r *Registry) Unregister(ctx context.Context, id uint64) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("registry.Unregister", id)
	}
	if e.Owner != dispatch.Current(ctx) {
		r.mu.Unlock()
		return errors.WrongThread("registry.Unregister", id)
	}
	delete(r.entries, id)
	e.removed = true
	pending := e.refs
	n := len(r.entries)
	r.mu.Unlock()

	r.recordLive(n)
	if e.Mirror != nil {
		e.Mirror.Close()
	}
	if pending > 0 {
		logging.Logf("registry unregister id=%d deferred refs=%d", id, pending)
		return nil
	}
	logging.Logf("registry unregister id=%d", id)
	return destroy(e)
}

func destroy(e *Entry) error {
	if e.View == nil {
		return nil
	}
	if err := e.View.Destroy(); err != nil {
		err = errors.Engine("registry.destroy", err)
		errors.Report("registry.destroy", err)
		return err
	}
	return nil
}

// Mirror returns the state mirror of id without a thread check.
func (r *Registry) Mirror(id uint64) (*state.Mirror, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, errors.NotFound("registry.Mirror", id)
	}
	return e.Mirror, nil
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IDs returns the live identifiers in ascending order.
func (r *Registry) IDs() []uint64 {
	r.mu.Lock()
	ids := make([]uint64, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	slices.Sort(ids)
	return ids
}
