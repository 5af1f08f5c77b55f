// Package registry keeps track of running effects so they can be cancelled.
//
// Handles are grouped by effect id: one id stands for one logical family of
// effects, and every handle of a family can be cancelled at once. The backing
// map is split into shards, each guarded by its own mutex, and cancel
// callbacks always run after the shard lock has been released.
package registry

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/woodycatliu/Processor/effects"
)

const defaultShards = 8

type Option func(*Registry)

// WithShards sets the number of independently locked shards. Values below 1
// fall back to 1.
func WithShards(n int) Option {
	return func(r *Registry) {
		if n < 1 {
			n = 1
		}
		r.shards = make([]*shard, n)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Registry maps effect ids to the set of live handles under that id.
// It is safe for concurrent use.
type Registry struct {
	shards []*shard
	logger *zap.Logger
}

type shard struct {
	mu      sync.Mutex
	handles map[effects.ID]map[*Handle]struct{}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		shards: make([]*shard, defaultShards),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for i := range r.shards {
		r.shards[i] = &shard{handles: make(map[effects.ID]map[*Handle]struct{})}
	}
	return r
}

// Start creates a handle under id and registers it before returning, so the
// effect it guards can be started right away.
func (r *Registry) Start(parent context.Context, id effects.ID) *Handle {
	h := NewHandle(parent)
	r.Register(id, h)
	return h
}

// Register adds h to the set for id, creating the set if absent.
// Registering a handle that already terminated is a no-op.
func (r *Registry) Register(id effects.ID, h *Handle) {
	if h == nil {
		return
	}
	if !h.bind(r, id) {
		r.logger.Debug("handle already bound elsewhere", zap.String("effect_id", string(id)))
		return
	}

	s := r.shardOf(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.Finished() {
		return
	}
	set, ok := s.handles[id]
	if !ok {
		set = make(map[*Handle]struct{})
		s.handles[id] = set
	}
	set[h] = struct{}{}
}

// CancelAll cancels every handle currently under id and drops the id.
// Unknown or already cancelled ids are a no-op.
func (r *Registry) CancelAll(id effects.ID) {
	s := r.shardOf(id)
	s.mu.Lock()
	set := s.handles[id]
	delete(s.handles, id)
	s.mu.Unlock()

	for h := range set {
		h.Cancel()
	}
	if len(set) > 0 {
		r.logger.Debug("cancelled effects", zap.String("effect_id", string(id)), zap.Int("count", len(set)))
	}
}

// Remove cancels a single handle and removes it from id, pruning the id when
// its set becomes empty. Unknown pairs are a no-op.
func (r *Registry) Remove(id effects.ID, h *Handle) {
	if r.take(id, h) {
		h.Cancel()
	}
}

// Len returns the number of live handles under id.
func (r *Registry) Len(id effects.ID) int {
	s := r.shardOf(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles[id])
}

// Has reports whether id has at least one live handle.
func (r *Registry) Has(id effects.ID) bool {
	return r.Len(id) > 0
}

// Contains reports whether h is registered under id.
func (r *Registry) Contains(id effects.ID, h *Handle) bool {
	s := r.shardOf(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handles[id][h]
	return ok
}

// IDs returns a snapshot of all ids with live handles, in no particular order.
func (r *Registry) IDs() []effects.ID {
	var ids []effects.ID
	for _, s := range r.shards {
		s.mu.Lock()
		for id := range s.handles {
			ids = append(ids, id)
		}
		s.mu.Unlock()
	}
	return ids
}

// Size returns the total number of live handles.
func (r *Registry) Size() int {
	n := 0
	for _, s := range r.shards {
		s.mu.Lock()
		for _, set := range s.handles {
			n += len(set)
		}
		s.mu.Unlock()
	}
	return n
}

// Close cancels every registered handle. The registry stays usable.
func (r *Registry) Close() {
	var all []*Handle
	for _, s := range r.shards {
		s.mu.Lock()
		for id, set := range s.handles {
			for h := range set {
				all = append(all, h)
			}
			delete(s.handles, id)
		}
		s.mu.Unlock()
	}

	for _, h := range all {
		h.Cancel()
	}
	if len(all) > 0 {
		r.logger.Debug("cancelled all effects", zap.Int("count", len(all)))
	}
}

// deregister drops h without cancelling it. Called by the handle itself on its
// terminal event.
func (r *Registry) deregister(id effects.ID, h *Handle) {
	r.take(id, h)
}

func (r *Registry) take(id effects.ID, h *Handle) bool {
	s := r.shardOf(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.handles[id]
	if !ok {
		return false
	}
	if _, ok := set[h]; !ok {
		return false
	}
	delete(set, h)
	if len(set) == 0 {
		delete(s.handles, id)
	}
	return true
}

func (r *Registry) shardOf(id effects.ID) *shard {
	return r.shards[indexByHash(id, len(r.shards))]
}

func indexByHash(id effects.ID, n int) int {
	switch n {
	case 0:
		panic("number of shards cannot be 0")
	case 1:
		return 0
	default:
		return int(xxhash.Sum64String(string(id)) % uint64(n))
	}
}
