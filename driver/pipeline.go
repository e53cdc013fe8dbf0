// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
	"github.com/gogpu/gpuid/internal/shader"
)

// MaxColorAttachments is the maximum number of color targets of a render
// pipeline or pass.
const MaxColorAttachments = 8

type renderPipeline struct {
	deviceRef
	raw     hal.RenderPipeline
	layout  *pipelineLayout
	targets []gputypes.TextureFormat
	samples uint32
}

type computePipeline struct {
	deviceRef
	raw    hal.ComputePipeline
	layout *pipelineLayout
}

// implicitLayout is a pipeline layout derived from shaders together with
// its bind group layouts, not yet registered.
type implicitLayout struct {
	groups []*bindGroupLayout
	layout *pipelineLayout
}

// DeviceCreateRenderPipeline creates a render pipeline under id.
//
// With a zero desc.Layout, the layout is derived from the shaders and
// implicit must hold the reserved ids: the layout of group i is registered
// under implicit.Groups[i] and the pipeline layout under implicit.Root.
// With an explicit layout implicit must be nil.
func (g *Global) DeviceCreateRenderPipeline(deviceID identity.Id, desc *RenderPipelineDescriptor, id identity.Id, implicit *hub.ImplicitPipelineIds) (identity.Id, error) {
	if err := g.renderPipelines.vacant(id); err != nil {
		return id, g.fail(hub.RenderPipeline, id, err)
	}
	p, il, err := g.createRenderPipeline(deviceID, desc, id, implicit)
	if err != nil {
		g.renderPipelines.insertError(id, err)
		g.invalidateImplicit(implicit, err)
		return id, g.fail(hub.RenderPipeline, id, err)
	}
	g.registerImplicit(implicit, il)
	g.renderPipelines.insert(id, p)
	g.logger().Debug("driver: created", "global", g.name, "kind", hub.RenderPipeline.String(), "id", id.String(),
		"implicit", il != nil)
	return id, nil
}

func (g *Global) createRenderPipeline(deviceID identity.Id, desc *RenderPipelineDescriptor, id identity.Id, implicit *hub.ImplicitPipelineIds) (*renderPipeline, *implicitLayout, error) {
	d, err := g.deviceFor(deviceID, id)
	if err != nil {
		return nil, nil, err
	}
	if desc == nil {
		return nil, nil, invalidf("nil render pipeline descriptor")
	}

	vs, err := g.resolveStage(deviceID, desc.Vertex.ProgrammableStage, shader.StageVertex)
	if err != nil {
		return nil, nil, err
	}
	uses := []stageUse{vs}
	var fs stageUse
	var targets []gputypes.ColorTargetState
	if desc.Fragment != nil {
		fs, err = g.resolveStage(deviceID, desc.Fragment.ProgrammableStage, shader.StageFragment)
		if err != nil {
			return nil, nil, err
		}
		uses = append(uses, fs)
		targets = desc.Fragment.Targets
	}

	if len(targets) > MaxColorAttachments {
		return nil, nil, invalidf("render pipeline %q: %d color targets, max %d", desc.Label, len(targets), MaxColorAttachments)
	}
	formats := make([]gputypes.TextureFormat, len(targets))
	for i, t := range targets {
		if t.Format == gputypes.TextureFormatUndefined {
			return nil, nil, invalidf("render pipeline %q: target %d has undefined format", desc.Label, i)
		}
		formats[i] = t.Format
	}
	ms := desc.Multisample
	if ms.Count == 0 {
		ms.Count = 1
	}
	if ms.Mask == 0 {
		// All samples.
		ms.Mask = ^ms.Mask
	}
	if ms.Count != 1 && ms.Count != 4 {
		return nil, nil, invalidf("render pipeline %q: sample count %d", desc.Label, ms.Count)
	}

	layout, il, err := g.pipelineLayoutFor(d, deviceID, desc.Layout, desc.Label, uses, implicit)
	if err != nil {
		return nil, nil, err
	}

	hd := &hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout.raw,
		Vertex: hal.VertexState{
			Module:     vs.module.raw,
			EntryPoint: vs.entry.Name,
			Buffers:    desc.Vertex.Buffers,
		},
		Primitive:   desc.Primitive,
		Multisample: ms,
	}
	if desc.Fragment != nil {
		hd.Fragment = &hal.FragmentState{
			Module:     fs.module.raw,
			EntryPoint: fs.entry.Name,
			Targets:    targets,
		}
	}
	raw, err := d.raw.CreateRenderPipeline(hd)
	if err != nil {
		g.discardImplicit(d, il)
		return nil, nil, err
	}
	return &renderPipeline{
		deviceRef: deviceRef{deviceID},
		raw:       raw,
		layout:    layout,
		targets:   formats,
		samples:   uint32(ms.Count),
	}, il, nil
}

// DeviceCreateComputePipeline creates a compute pipeline under id. The
// layout rules match DeviceCreateRenderPipeline.
func (g *Global) DeviceCreateComputePipeline(deviceID identity.Id, desc *ComputePipelineDescriptor, id identity.Id, implicit *hub.ImplicitPipelineIds) (identity.Id, error) {
	if err := g.computePipelines.vacant(id); err != nil {
		return id, g.fail(hub.ComputePipeline, id, err)
	}
	p, il, err := g.createComputePipeline(deviceID, desc, id, implicit)
	if err != nil {
		g.computePipelines.insertError(id, err)
		g.invalidateImplicit(implicit, err)
		return id, g.fail(hub.ComputePipeline, id, err)
	}
	g.registerImplicit(implicit, il)
	g.computePipelines.insert(id, p)
	g.logger().Debug("driver: created", "global", g.name, "kind", hub.ComputePipeline.String(), "id", id.String(),
		"implicit", il != nil)
	return id, nil
}

func (g *Global) createComputePipeline(deviceID identity.Id, desc *ComputePipelineDescriptor, id identity.Id, implicit *hub.ImplicitPipelineIds) (*computePipeline, *implicitLayout, error) {
	d, err := g.deviceFor(deviceID, id)
	if err != nil {
		return nil, nil, err
	}
	if desc == nil {
		return nil, nil, invalidf("nil compute pipeline descriptor")
	}
	cs, err := g.resolveStage(deviceID, desc.Compute, shader.StageCompute)
	if err != nil {
		return nil, nil, err
	}
	wg := cs.entry.Workgroup
	lim := d.limits
	if wg[0] > lim.MaxComputeWorkgroupSizeX || wg[1] > lim.MaxComputeWorkgroupSizeY || wg[2] > lim.MaxComputeWorkgroupSizeZ {
		return nil, nil, invalidf("compute pipeline %q: workgroup size %v exceeds limits", desc.Label, wg)
	}

	layout, il, err := g.pipelineLayoutFor(d, deviceID, desc.Layout, desc.Label, []stageUse{cs}, implicit)
	if err != nil {
		return nil, nil, err
	}
	raw, err := d.raw.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: layout.raw,
		Compute: hal.ComputeState{
			Module:     cs.module.raw,
			EntryPoint: cs.entry.Name,
		},
	})
	if err != nil {
		g.discardImplicit(d, il)
		return nil, nil, err
	}
	return &computePipeline{deviceRef: deviceRef{deviceID}, raw: raw, layout: layout}, il, nil
}

// pipelineLayoutFor returns the explicit layout named by layoutID, or
// derives one from uses when layoutID is zero.
func (g *Global) pipelineLayoutFor(d *device, deviceID, layoutID identity.Id, label string, uses []stageUse, implicit *hub.ImplicitPipelineIds) (*pipelineLayout, *implicitLayout, error) {
	if !layoutID.IsZero() {
		if implicit != nil {
			return nil, nil, fmt.Errorf("%w: explicit layout %s with implicit ids", ErrImplicitIDs, layoutID)
		}
		layout, err := g.pipelineLayouts.get(layoutID)
		if err != nil {
			return nil, nil, err
		}
		if err := sameDevice(hub.PipelineLayout, layoutID, layout.device, deviceID); err != nil {
			return nil, nil, err
		}
		if err := checkLayout(layout, uses); err != nil {
			return nil, nil, err
		}
		return layout, nil, nil
	}

	if implicit == nil {
		return nil, nil, fmt.Errorf("%w: no layout and no implicit ids", ErrImplicitIDs)
	}
	groups, err := deriveGroups(uses)
	if err != nil {
		return nil, nil, err
	}
	if len(implicit.Groups) < len(groups) {
		return nil, nil, fmt.Errorf("%w: %d group ids for %d groups", ErrImplicitIDs, len(implicit.Groups), len(groups))
	}
	if err := g.implicitVacant(deviceID, implicit, len(groups)); err != nil {
		return nil, nil, err
	}

	il := &implicitLayout{}
	for i, entries := range groups {
		l, err := g.newBindGroupLayout(d, deviceID, fmt.Sprintf("%s implicit group %d", label, i), entries)
		if err != nil {
			g.discardImplicit(d, il)
			return nil, nil, err
		}
		il.groups = append(il.groups, l)
	}
	layout, err := g.newPipelineLayout(d, deviceID, label+" implicit layout", implicit.Groups[:len(groups)], il.groups)
	if err != nil {
		g.discardImplicit(d, il)
		return nil, nil, err
	}
	il.layout = layout
	return layout, il, nil
}

func (g *Global) implicitVacant(deviceID identity.Id, implicit *hub.ImplicitPipelineIds, n int) error {
	check := func(what string, id identity.Id, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrImplicitIDs, what, id, err)
		}
		if id.Backend() != deviceID.Backend() {
			return fmt.Errorf("%w: %s %s: %w", ErrImplicitIDs, what, id, ErrBackendMismatch)
		}
		return nil
	}
	if err := check("root", implicit.Root, g.pipelineLayouts.vacant(implicit.Root)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		gid := implicit.Groups[i]
		if err := check(fmt.Sprintf("group %d", i), gid, g.bindGroupLayouts.vacant(gid)); err != nil {
			return err
		}
	}
	seen := make(map[identity.Id]int, len(implicit.Groups))
	for i, gid := range implicit.Groups {
		if j, ok := seen[gid]; ok {
			return fmt.Errorf("%w: groups %d and %d share id %s", ErrImplicitIDs, j, i, gid)
		}
		seen[gid] = i
	}
	return nil
}

func (g *Global) registerImplicit(implicit *hub.ImplicitPipelineIds, il *implicitLayout) {
	if il == nil {
		return
	}
	for i, l := range il.groups {
		g.bindGroupLayouts.insert(implicit.Groups[i], l)
	}
	g.pipelineLayouts.insert(implicit.Root, il.layout)
}

// invalidateImplicit registers every still-vacant implicit id as invalid.
func (g *Global) invalidateImplicit(implicit *hub.ImplicitPipelineIds, err error) {
	if implicit == nil {
		return
	}
	for _, gid := range implicit.Groups {
		if g.bindGroupLayouts.vacant(gid) == nil {
			g.bindGroupLayouts.insertError(gid, err)
		}
	}
	if g.pipelineLayouts.vacant(implicit.Root) == nil {
		g.pipelineLayouts.insertError(implicit.Root, err)
	}
}

func (g *Global) discardImplicit(d *device, il *implicitLayout) {
	if il == nil {
		return
	}
	if il.layout != nil {
		d.raw.DestroyPipelineLayout(il.layout.raw)
	}
	for _, l := range il.groups {
		d.raw.DestroyBindGroupLayout(l.raw)
	}
}

// RenderPipelineGetBindGroupLayout returns the id of the bind group layout
// at index in the pipeline's layout.
func (g *Global) RenderPipelineGetBindGroupLayout(pipelineID identity.Id, index uint32) (identity.Id, error) {
	p, err := g.renderPipelines.get(pipelineID)
	if err != nil {
		return 0, err
	}
	return groupLayoutID(hub.RenderPipeline, pipelineID, p.layout, index)
}

// ComputePipelineGetBindGroupLayout returns the id of the bind group layout
// at index in the pipeline's layout.
func (g *Global) ComputePipelineGetBindGroupLayout(pipelineID identity.Id, index uint32) (identity.Id, error) {
	p, err := g.computePipelines.get(pipelineID)
	if err != nil {
		return 0, err
	}
	return groupLayoutID(hub.ComputePipeline, pipelineID, p.layout, index)
}

func groupLayoutID(kind hub.Kind, id identity.Id, layout *pipelineLayout, index uint32) (identity.Id, error) {
	if int(index) >= len(layout.groups) {
		return 0, &ResourceError{Kind: kind, ID: id, Err: fmt.Errorf("%w: index %d, layout has %d groups",
			ErrBindGroupIndexOutOfRange, index, len(layout.groups))}
	}
	return layout.groups[index], nil
}

// RenderPipelineDrop destroys a render pipeline. Its layout, implicit or
// not, stays registered.
func (g *Global) RenderPipelineDrop(id identity.Id) error {
	p, valid, err := g.renderPipelines.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(p.device, func(d *device) { d.raw.DestroyRenderPipeline(p.raw) })
	return nil
}

// ComputePipelineDrop destroys a compute pipeline.
func (g *Global) ComputePipelineDrop(id identity.Id) error {
	p, valid, err := g.computePipelines.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(p.device, func(d *device) { d.raw.DestroyComputePipeline(p.raw) })
	return nil
}
