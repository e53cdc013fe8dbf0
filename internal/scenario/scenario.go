// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scenario replays a fixed sequence of resource creations and
// records the ids handed out along the way.
//
// The sequence acquires an adapter and device, builds explicit and
// implicit pipeline layouts, creates three render pipelines, binds four
// groups in a render pass, and submits the finished command buffer. Run
// twice on fresh hubs, it yields the same ids in the same order.
package scenario

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid"
	"github.com/gogpu/gpuid/driver"
	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
)

// ImplicitGroups is the number of bind group layout ids reserved for each
// derived pipeline layout.
const ImplicitGroups = 4

const vertexSource = `
@group(2) @binding(0) var<uniform> u1: vec4<f32>;
@group(3) @binding(0) var<uniform> u2: vec4<f32>;

@vertex
fn main() -> @builtin(position) vec4<f32> {
    return u1 + u2;
}
`

const fragmentSource = `@fragment fn main() {}`

// Step is one labeled id produced by the replay.
type Step struct {
	Label string
	ID    identity.Id
}

func (s Step) String() string {
	return s.Label + " = " + s.ID.String()
}

type runner struct {
	g       *driver.Global
	h       *hub.Hub
	backend identity.Backend
	device  identity.Id
	steps   []Step
}

func (r *runner) next(kind hub.Kind) identity.Id {
	return r.h.Next(kind, r.backend)
}

func (r *runner) record(label string, id identity.Id) {
	gpuid.Logger().Debug("scenario: step", "label", label, "id", id)
	r.steps = append(r.steps, Step{Label: label, ID: id})
}

// Run replays the scenario against g, drawing every id from h on backend.
// It returns the steps recorded before the first error.
func Run(g *driver.Global, h *hub.Hub, backend identity.Backend) ([]Step, error) {
	r := &runner{g: g, h: h, backend: backend}
	err := r.run()
	return r.steps, err
}

func (r *runner) run() error {
	adapter, err := r.g.RequestAdapter(&driver.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceNone,
	}, []identity.Id{r.next(hub.Adapter)})
	if err != nil {
		return err
	}
	r.record("adapter", adapter)

	r.device, err = r.g.AdapterRequestDevice(adapter, &driver.DeviceDescriptor{Label: "device"}, r.next(hub.Device))
	if err != nil {
		return err
	}
	r.record("device", r.device)

	empty, err := r.g.DeviceCreateBindGroupLayout(r.device, &driver.BindGroupLayoutDescriptor{Label: "empty"}, r.next(hub.BindGroupLayout))
	if err != nil {
		return err
	}
	r.record("bind group layout 0", empty)

	uniform, err := r.g.DeviceCreateBindGroupLayout(r.device, &driver.BindGroupLayoutDescriptor{
		Label: "uniform",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	}, r.next(hub.BindGroupLayout))
	if err != nil {
		return err
	}
	r.record("bind group layout 1", uniform)

	explicit, err := r.g.DeviceCreatePipelineLayout(r.device, &driver.PipelineLayoutDescriptor{
		Label:            "explicit",
		BindGroupLayouts: []identity.Id{empty, empty, uniform, uniform},
	}, r.next(hub.PipelineLayout))
	if err != nil {
		return err
	}
	r.record("pipeline layout 0", explicit)

	first := r.h.ImplicitPipelineIds(r.backend, ImplicitGroups)
	r.recordImplicit(first)
	pipeline, err := r.renderPipeline(0, &first)
	if err != nil {
		return err
	}

	second := r.h.ImplicitPipelineIds(r.backend, ImplicitGroups)
	r.recordImplicit(second)
	if _, err := r.renderPipeline(0, &second); err != nil {
		return err
	}

	if _, err := r.renderPipeline(explicit, nil); err != nil {
		return err
	}

	buffer, err := r.g.DeviceCreateBuffer(r.device, &driver.BufferDescriptor{
		Label: "uniforms",
		Size:  16,
		Usage: gputypes.BufferUsageUniform,
	}, r.next(hub.Buffer))
	if err != nil {
		return err
	}
	r.record("buffer", buffer)

	// Groups 2 and 3 share identical entries, so their layouts are swapped
	// on purpose.
	binds := []struct {
		layout  identity.Id
		uniform bool
	}{
		{first.Groups[0], false},
		{first.Groups[1], false},
		{first.Groups[3], true},
		{first.Groups[2], true},
	}
	groups := make([]identity.Id, 0, len(binds))
	for _, b := range binds {
		var entries []driver.BindGroupEntry
		if b.uniform {
			entries = []driver.BindGroupEntry{{Binding: 0, Buffer: buffer}}
		}
		bg, err := r.g.DeviceCreateBindGroup(r.device, &driver.BindGroupDescriptor{
			Layout:  b.layout,
			Entries: entries,
		}, r.next(hub.BindGroup))
		if err != nil {
			return err
		}
		r.record(fmt.Sprintf("bind group %d", len(groups)), bg)
		groups = append(groups, bg)
	}

	encoder, err := r.g.DeviceCreateCommandEncoder(r.device, &driver.CommandEncoderDescriptor{Label: "encoder"}, r.next(hub.CommandEncoder))
	if err != nil {
		return err
	}
	r.record("command encoder", encoder)

	view, err := r.target()
	if err != nil {
		return err
	}

	pass, err := r.g.CommandEncoderBeginRenderPass(encoder, &driver.RenderPassDescriptor{
		Label: "pass",
		ColorAttachments: []driver.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	if err != nil {
		return err
	}
	if err := pass.SetPipeline(pipeline); err != nil {
		return err
	}
	for i, bg := range groups {
		if err := pass.SetBindGroup(uint32(i), bg); err != nil {
			return err
		}
	}
	if err := pass.Draw(0, 1, 0, 0); err != nil {
		return err
	}
	if err := pass.End(); err != nil {
		return err
	}

	cmd, err := r.g.CommandEncoderFinish(encoder)
	if err != nil {
		return err
	}
	r.record("command buffer", cmd)
	return r.g.QueueSubmit(r.device, []identity.Id{cmd})
}

func (r *runner) recordImplicit(ids hub.ImplicitPipelineIds) {
	for i, id := range ids.Groups {
		r.record(fmt.Sprintf("implicit bind group layout %d", i), id)
	}
	r.record("implicit pipeline layout", ids.Root)
}

// renderPipeline compiles both shaders and creates a pipeline over them.
// A zero layout derives one into implicit.
func (r *runner) renderPipeline(layout identity.Id, implicit *hub.ImplicitPipelineIds) (identity.Id, error) {
	vs, err := r.g.DeviceCreateShaderModule(r.device, &driver.ShaderModuleDescriptor{Label: "vertex", WGSL: vertexSource}, r.next(hub.ShaderModule))
	if err != nil {
		return vs, err
	}
	r.record("vertex shader", vs)

	fs, err := r.g.DeviceCreateShaderModule(r.device, &driver.ShaderModuleDescriptor{Label: "fragment", WGSL: fragmentSource}, r.next(hub.ShaderModule))
	if err != nil {
		return fs, err
	}
	r.record("fragment shader", fs)

	id, err := r.g.DeviceCreateRenderPipeline(r.device, &driver.RenderPipelineDescriptor{
		Label:  "pipeline",
		Layout: layout,
		Vertex: driver.VertexState{
			ProgrammableStage: driver.ProgrammableStage{Module: vs, EntryPoint: "main"},
		},
		Fragment: &driver.FragmentState{
			ProgrammableStage: driver.ProgrammableStage{Module: fs, EntryPoint: "main"},
			Targets: []gputypes.ColorTargetState{{
				Format:    gputypes.TextureFormatRGBA8Unorm,
				WriteMask: gputypes.ColorWriteMaskNone,
			}},
		},
		Primitive:   gputypes.PrimitiveState{Topology: gputypes.PrimitiveTopologyTriangleList},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	}, r.next(hub.RenderPipeline), implicit)
	if err != nil {
		return id, err
	}
	r.record("render pipeline", id)
	return id, nil
}

func (r *runner) target() (identity.Id, error) {
	tex, err := r.g.DeviceCreateTexture(r.device, &driver.TextureDescriptor{
		Label:         "target",
		Size:          hal.Extent3D{Width: 16, Height: 16, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	}, r.next(hub.Texture))
	if err != nil {
		return tex, err
	}
	r.record("texture", tex)

	view, err := r.g.TextureCreateView(tex, &driver.TextureViewDescriptor{Label: "target"}, r.next(hub.TextureView))
	if err != nil {
		return view, err
	}
	r.record("texture view", view)
	return view, nil
}
