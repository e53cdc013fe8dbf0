// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package identity

import "fmt"

// Registry allocates ids for one resource kind. Each backend has its own
// index space starting at 0, so allocations on one backend never shift the
// indices handed out on another.
//
// Released indices are reused most-recently-freed first with the next
// generation. The zero Registry is ready to use.
//
// Thread Safety: Registry is not safe for concurrent use. Callers that
// share one across goroutines must serialize access.
type Registry struct {
	spaces [backendCount]space
}

type slot struct {
	generation uint32
	live       bool
}

// space is the index space of a single backend.
type space struct {
	slots []slot
	free  []uint32
	live  int
}

// Allocate returns a fresh id for backend. Generation starts at 1 for a
// new index. It panics when the index space is exhausted or backend is
// not a known backend.
func (r *Registry) Allocate(backend Backend) Id {
	s := r.space(backend)
	if n := len(s.free); n > 0 {
		index := s.free[n-1]
		s.free = s.free[:n-1]
		sl := &s.slots[index]
		sl.generation++
		sl.live = true
		s.live++
		return Zip(index, sl.generation, backend)
	}
	if uint64(len(s.slots)) > MaxIndex {
		panic(fmt.Sprintf("identity: %s index space exhausted", backend))
	}
	index := uint32(len(s.slots))
	s.slots = append(s.slots, slot{generation: 1, live: true})
	s.live++
	return Zip(index, 1, backend)
}

// Release hands the slot of id back for reuse. Releasing an id that is
// zero, was never allocated or is not live panics.
//
// A slot whose generation cannot grow any further is retired rather than
// put back on the free list.
func (r *Registry) Release(id Id) {
	if id.IsZero() {
		panic("identity: release of zero id")
	}
	s := r.space(id.Backend())
	index := id.Index()
	if uint64(index) >= uint64(len(s.slots)) {
		panic(fmt.Sprintf("identity: release of unallocated %s", id))
	}
	sl := &s.slots[index]
	if !sl.live || sl.generation != id.Generation() {
		panic(fmt.Sprintf("identity: release of stale %s", id))
	}
	sl.live = false
	s.live--
	if sl.generation < MaxGeneration {
		s.free = append(s.free, index)
	}
}

// Count returns the number of live ids on backend.
func (r *Registry) Count(backend Backend) int {
	if !backend.Valid() {
		return 0
	}
	return r.spaces[backend].live
}

// Contains reports whether id is live in the registry.
func (r *Registry) Contains(id Id) bool {
	b := id.Backend()
	if id.IsZero() || !b.Valid() {
		return false
	}
	s := &r.spaces[b]
	index := id.Index()
	if uint64(index) >= uint64(len(s.slots)) {
		return false
	}
	sl := s.slots[index]
	return sl.live && sl.generation == id.Generation()
}

func (r *Registry) space(backend Backend) *space {
	if !backend.Valid() {
		panic(fmt.Sprintf("identity: invalid backend %d", uint8(backend)))
	}
	return &r.spaces[backend]
}
