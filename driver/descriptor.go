// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid/identity"
)

// RequestAdapterOptions selects among the adapters of a backend.
// ForceFallbackAdapter picks an adapter that is neither a discrete nor an
// integrated GPU.
type RequestAdapterOptions = gputypes.RequestAdapterOptions

// AdapterInfo describes an acquired adapter.
type AdapterInfo struct {
	Name       string
	Backend    identity.Backend
	Discrete   bool
	Integrated bool
}

// DeviceDescriptor describes a device to open on an adapter.
type DeviceDescriptor struct {
	Label            string
	RequiredFeatures gputypes.Features
	// RequiredLimits defaults to gputypes.DefaultLimits when nil.
	RequiredLimits *gputypes.Limits
}

// BufferDescriptor describes a buffer.
type BufferDescriptor struct {
	Label            string
	Size             uint64
	Usage            gputypes.BufferUsage
	MappedAtCreation bool
}

// TextureDescriptor describes a 2D texture.
type TextureDescriptor struct {
	Label string
	Size  hal.Extent3D
	// MipLevelCount and SampleCount default to 1 when zero.
	MipLevelCount uint32
	SampleCount   uint32
	Format        gputypes.TextureFormat
	Usage         gputypes.TextureUsage
}

// TextureViewDescriptor describes a view over a whole texture.
type TextureViewDescriptor struct {
	Label string
}

// SamplerDescriptor describes a clamp-to-edge sampler.
type SamplerDescriptor struct {
	Label  string
	Linear bool
}

// BindGroupLayoutDescriptor describes a bind group layout.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []gputypes.BindGroupLayoutEntry
}

// PipelineLayoutDescriptor lists bind group layouts by group index. A
// layout may appear more than once.
type PipelineLayoutDescriptor struct {
	Label            string
	BindGroupLayouts []identity.Id
}

// BindGroupEntry binds a buffer range to one layout binding. A zero Size
// binds the rest of the buffer from Offset.
type BindGroupEntry struct {
	Binding uint32
	Buffer  identity.Id
	Offset  uint64
	Size    uint64
}

// BindGroupDescriptor describes a bind group.
type BindGroupDescriptor struct {
	Label   string
	Layout  identity.Id
	Entries []BindGroupEntry
}

// ShaderModuleDescriptor carries WGSL source.
type ShaderModuleDescriptor struct {
	Label string
	WGSL  string
}

// ProgrammableStage names a shader entry point. An empty EntryPoint selects
// the module's only entry point for the stage.
type ProgrammableStage struct {
	Module     identity.Id
	EntryPoint string
}

// VertexState is the vertex stage of a render pipeline.
type VertexState struct {
	ProgrammableStage
	Buffers []gputypes.VertexBufferLayout
}

// FragmentState is the fragment stage of a render pipeline.
type FragmentState struct {
	ProgrammableStage
	Targets []gputypes.ColorTargetState
}

// RenderPipelineDescriptor describes a render pipeline. A zero Layout asks
// for a layout derived from the shaders.
type RenderPipelineDescriptor struct {
	Label       string
	Layout      identity.Id
	Vertex      VertexState
	Fragment    *FragmentState
	Primitive   gputypes.PrimitiveState
	Multisample gputypes.MultisampleState
}

// ComputePipelineDescriptor describes a compute pipeline. A zero Layout
// asks for a layout derived from the shader.
type ComputePipelineDescriptor struct {
	Label   string
	Layout  identity.Id
	Compute ProgrammableStage
}

// CommandEncoderDescriptor describes a command encoder.
type CommandEncoderDescriptor struct {
	Label string
}

// RenderPassColorAttachment is one color target of a render pass.
type RenderPassColorAttachment struct {
	View          identity.Id
	ResolveTarget identity.Id
	LoadOp        gputypes.LoadOp
	StoreOp       gputypes.StoreOp
	ClearValue    gputypes.Color
}

// RenderPassDescriptor describes a render pass.
type RenderPassDescriptor struct {
	Label            string
	ColorAttachments []RenderPassColorAttachment
}

// ComputePassDescriptor describes a compute pass.
type ComputePassDescriptor struct {
	Label string
}
