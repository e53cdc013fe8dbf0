// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gpuid/identity"
)

func TestImplicitPipelineIdsOrder(t *testing.T) {
	h := New()
	h.Next(BindGroupLayout, identity.Vulkan)
	h.Next(BindGroupLayout, identity.Vulkan)
	h.Next(PipelineLayout, identity.Vulkan)

	ids := h.ImplicitPipelineIds(identity.Vulkan, 4)
	require.Len(t, ids.Groups, 4)
	for i, g := range ids.Groups {
		assert.Equal(t, identity.Zip(uint32(i+2), 1, identity.Vulkan), g)
	}
	assert.Equal(t, "Id(1,1,vk)", ids.Root.String())

	next := h.ImplicitPipelineIds(identity.Vulkan, 4)
	assert.Equal(t, "Id(6,1,vk)", next.Groups[0].String())
	assert.Equal(t, "Id(9,1,vk)", next.Groups[3].String())
	assert.Equal(t, "Id(2,1,vk)", next.Root.String())
}

func TestImplicitPipelineIdsZeroGroups(t *testing.T) {
	h := New()
	ids := h.ImplicitPipelineIds(identity.Gl, 0)
	assert.Empty(t, ids.Groups)
	assert.Equal(t, "Id(0,1,gl)", ids.Root.String())
	assert.Equal(t, 0, h.Count(BindGroupLayout, identity.Gl))
}

func TestImplicitPipelineIdsRelease(t *testing.T) {
	h := New()
	ids := h.ImplicitPipelineIds(identity.Vulkan, 2)
	ids.Release(h)
	assert.Equal(t, 0, h.Count(BindGroupLayout, identity.Vulkan))
	assert.Equal(t, 0, h.Count(PipelineLayout, identity.Vulkan))

	again := h.ImplicitPipelineIds(identity.Vulkan, 2)
	assert.Equal(t, uint32(2), again.Root.Generation())
}
