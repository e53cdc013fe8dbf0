// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package hub

import "fmt"

// Kind is a category of GPU object. Each kind has its own id space.
type Kind uint8

const (
	Adapter Kind = iota
	Device
	Buffer
	Texture
	TextureView
	Sampler
	BindGroup
	BindGroupLayout
	PipelineLayout
	ShaderModule
	CommandEncoder
	RenderPipeline
	ComputePipeline
	RenderBundle

	kindCount
)

var kindNames = [kindCount]string{
	Adapter:         "adapter",
	Device:          "device",
	Buffer:          "buffer",
	Texture:         "texture",
	TextureView:     "texture view",
	Sampler:         "sampler",
	BindGroup:       "bind group",
	BindGroupLayout: "bind group layout",
	PipelineLayout:  "pipeline layout",
	ShaderModule:    "shader module",
	CommandEncoder:  "command encoder",
	RenderPipeline:  "render pipeline",
	ComputePipeline: "compute pipeline",
	RenderBundle:    "render bundle",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k >= kindCount {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}
