// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package hub groups one identity registry per GPU object kind.
//
// A Hub is the only place ids come from. Callers reserve an id with
// [Hub.Next] and hand it to the driver, which never allocates on its own.
package hub

import (
	"fmt"

	"github.com/gogpu/gpuid"
	"github.com/gogpu/gpuid/identity"
)

// Hub owns a registry for every [Kind]. Different kinds never share an
// index space, so the first buffer and the first texture on Vulkan are
// both Id(0,1,vk).
//
// Thread Safety: Hub is not safe for concurrent use.
type Hub struct {
	registries [kindCount]identity.Registry
}

// New returns a hub with empty registries.
func New() *Hub {
	return &Hub{}
}

// Next reserves the next id of kind on backend. It never fails; an
// unknown kind is a programming error and panics.
func (h *Hub) Next(kind Kind, backend identity.Backend) identity.Id {
	id := h.registry(kind).Allocate(backend)
	gpuid.Logger().Debug("hub: allocated", "kind", kind.String(), "id", id.String())
	return id
}

// Release returns id to the registry of kind. The next id reserved for
// that kind and backend reuses the slot with a higher generation.
func (h *Hub) Release(kind Kind, id identity.Id) {
	h.registry(kind).Release(id)
	gpuid.Logger().Debug("hub: released", "kind", kind.String(), "id", id.String())
}

// Count returns the number of live ids of kind on backend.
func (h *Hub) Count(kind Kind, backend identity.Backend) int {
	return h.registry(kind).Count(backend)
}

// Contains reports whether id is a live id of kind.
func (h *Hub) Contains(kind Kind, id identity.Id) bool {
	return h.registry(kind).Contains(id)
}

func (h *Hub) registry(kind Kind) *identity.Registry {
	if kind >= kindCount {
		panic(fmt.Sprintf("hub: unknown kind %d", uint8(kind)))
	}
	return &h.registries[kind]
}
