// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hub

import "github.com/gogpu/gpuid/identity"

// ImplicitPipelineIds are the ids reserved for the layout objects a
// pipeline derives from its shaders when it has no explicit layout.
// Root names the derived pipeline layout; Groups[i] names the bind group
// layout of group i.
type ImplicitPipelineIds struct {
	Root   identity.Id
	Groups []identity.Id
}

// ImplicitPipelineIds reserves groups bind group layout ids in ascending
// order and then one pipeline layout id.
//
// With fresh registries and four groups on Vulkan this yields
// Groups = [Id(0,1,vk) .. Id(3,1,vk)] and Root = Id(0,1,vk).
func (h *Hub) ImplicitPipelineIds(backend identity.Backend, groups int) ImplicitPipelineIds {
	ids := ImplicitPipelineIds{Groups: make([]identity.Id, groups)}
	for i := range ids.Groups {
		ids.Groups[i] = h.Next(BindGroupLayout, backend)
	}
	ids.Root = h.Next(PipelineLayout, backend)
	return ids
}

// Release hands every id back to h. Use it when the pipeline that was
// going to consume the ids is never created.
func (ids ImplicitPipelineIds) Release(h *Hub) {
	for _, g := range ids.Groups {
		h.Release(BindGroupLayout, g)
	}
	h.Release(PipelineLayout, ids.Root)
}
