// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
)

// MaxBindGroups is the number of bind group slots of a pipeline layout.
const MaxBindGroups = 4

// uniformOffsetAlignment is the minimum alignment of uniform buffer offsets.
const uniformOffsetAlignment = 256

type bindGroupLayout struct {
	deviceRef
	raw     hal.BindGroupLayout
	entries []gputypes.BindGroupLayoutEntry
}

// compatible reports whether bind groups made for l can be used where o
// is expected.
func (l *bindGroupLayout) compatible(o *bindGroupLayout) bool {
	if l == o {
		return true
	}
	if len(l.entries) == 0 && len(o.entries) == 0 {
		return true
	}
	return reflect.DeepEqual(l.entries, o.entries)
}

func (l *bindGroupLayout) entry(binding uint32) (gputypes.BindGroupLayoutEntry, bool) {
	for _, e := range l.entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return gputypes.BindGroupLayoutEntry{}, false
}

type pipelineLayout struct {
	deviceRef
	raw    hal.PipelineLayout
	groups []identity.Id
	// layouts holds the resolved layout of each group.
	layouts []*bindGroupLayout
}

type bindGroup struct {
	deviceRef
	layoutID identity.Id
	layout   *bindGroupLayout
	raw      hal.BindGroup
}

// DeviceCreateBindGroupLayout creates a bind group layout under id.
func (g *Global) DeviceCreateBindGroupLayout(deviceID identity.Id, desc *BindGroupLayoutDescriptor, id identity.Id) (identity.Id, error) {
	return create(g, g.bindGroupLayouts, id, func() (*bindGroupLayout, error) {
		d, err := g.deviceFor(deviceID, id)
		if err != nil {
			return nil, err
		}
		if desc == nil {
			return nil, invalidf("nil bind group layout descriptor")
		}
		return g.newBindGroupLayout(d, deviceID, desc.Label, desc.Entries)
	})
}

func (g *Global) newBindGroupLayout(d *device, deviceID identity.Id, label string, entries []gputypes.BindGroupLayoutEntry) (*bindGroupLayout, error) {
	seen := make(map[uint32]bool, len(entries))
	for _, e := range entries {
		if seen[e.Binding] {
			return nil, invalidf("bind group layout %q: duplicate binding %d", label, e.Binding)
		}
		seen[e.Binding] = true
	}
	sorted := append([]gputypes.BindGroupLayoutEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Binding < sorted[j].Binding })

	raw, err := d.raw.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: sorted,
	})
	if err != nil {
		return nil, err
	}
	return &bindGroupLayout{deviceRef: deviceRef{deviceID}, raw: raw, entries: sorted}, nil
}

// BindGroupLayoutDrop destroys a bind group layout.
func (g *Global) BindGroupLayoutDrop(id identity.Id) error {
	l, valid, err := g.bindGroupLayouts.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(l.device, func(d *device) { d.raw.DestroyBindGroupLayout(l.raw) })
	return nil
}

// DeviceCreatePipelineLayout creates a pipeline layout under id. Group i
// uses desc.BindGroupLayouts[i]; the same layout may fill several groups.
func (g *Global) DeviceCreatePipelineLayout(deviceID identity.Id, desc *PipelineLayoutDescriptor, id identity.Id) (identity.Id, error) {
	return create(g, g.pipelineLayouts, id, func() (*pipelineLayout, error) {
		d, err := g.deviceFor(deviceID, id)
		if err != nil {
			return nil, err
		}
		if desc == nil {
			return nil, invalidf("nil pipeline layout descriptor")
		}
		if len(desc.BindGroupLayouts) > MaxBindGroups {
			return nil, invalidf("pipeline layout %q: %d bind groups, max %d", desc.Label, len(desc.BindGroupLayouts), MaxBindGroups)
		}
		layouts := make([]*bindGroupLayout, len(desc.BindGroupLayouts))
		for i, lid := range desc.BindGroupLayouts {
			l, err := g.bindGroupLayouts.get(lid)
			if err != nil {
				return nil, fmt.Errorf("group %d: %w", i, err)
			}
			if err := sameDevice(hub.BindGroupLayout, lid, l.device, deviceID); err != nil {
				return nil, err
			}
			layouts[i] = l
		}
		return g.newPipelineLayout(d, deviceID, desc.Label, desc.BindGroupLayouts, layouts)
	})
}

func (g *Global) newPipelineLayout(d *device, deviceID identity.Id, label string, ids []identity.Id, layouts []*bindGroupLayout) (*pipelineLayout, error) {
	raws := make([]hal.BindGroupLayout, len(layouts))
	for i, l := range layouts {
		raws[i] = l.raw
	}
	raw, err := d.raw.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: raws,
	})
	if err != nil {
		return nil, err
	}
	return &pipelineLayout{
		deviceRef: deviceRef{deviceID},
		raw:       raw,
		groups:    append([]identity.Id(nil), ids...),
		layouts:   layouts,
	}, nil
}

// PipelineLayoutDrop destroys a pipeline layout.
func (g *Global) PipelineLayoutDrop(id identity.Id) error {
	l, valid, err := g.pipelineLayouts.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(l.device, func(d *device) { d.raw.DestroyPipelineLayout(l.raw) })
	return nil
}

// DeviceCreateBindGroup creates a bind group under id. Only buffer bindings
// are supported; every binding of the layout must be provided exactly once.
func (g *Global) DeviceCreateBindGroup(deviceID identity.Id, desc *BindGroupDescriptor, id identity.Id) (identity.Id, error) {
	return create(g, g.bindGroups, id, func() (*bindGroup, error) {
		d, err := g.deviceFor(deviceID, id)
		if err != nil {
			return nil, err
		}
		if desc == nil {
			return nil, invalidf("nil bind group descriptor")
		}
		layout, err := g.bindGroupLayouts.get(desc.Layout)
		if err != nil {
			return nil, err
		}
		if err := sameDevice(hub.BindGroupLayout, desc.Layout, layout.device, deviceID); err != nil {
			return nil, err
		}
		if len(desc.Entries) != len(layout.entries) {
			return nil, invalidf("bind group %q: %d entries for a layout with %d", desc.Label, len(desc.Entries), len(layout.entries))
		}

		entries := make([]gputypes.BindGroupEntry, 0, len(desc.Entries))
		seen := make(map[uint32]bool, len(desc.Entries))
		for _, e := range desc.Entries {
			if seen[e.Binding] {
				return nil, invalidf("bind group %q: duplicate binding %d", desc.Label, e.Binding)
			}
			seen[e.Binding] = true
			le, ok := layout.entry(e.Binding)
			if !ok {
				return nil, invalidf("bind group %q: binding %d not in layout", desc.Label, e.Binding)
			}
			he, err := g.bufferBinding(deviceID, desc.Label, le, e)
			if err != nil {
				return nil, err
			}
			entries = append(entries, he)
		}

		raw, err := d.raw.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   desc.Label,
			Layout:  layout.raw,
			Entries: entries,
		})
		if err != nil {
			return nil, err
		}
		return &bindGroup{deviceRef: deviceRef{deviceID}, layoutID: desc.Layout, layout: layout, raw: raw}, nil
	})
}

func (g *Global) bufferBinding(deviceID identity.Id, label string, le gputypes.BindGroupLayoutEntry, e BindGroupEntry) (gputypes.BindGroupEntry, error) {
	var out gputypes.BindGroupEntry
	if le.Buffer == nil {
		return out, invalidf("bind group %q: binding %d is not a buffer binding", label, e.Binding)
	}
	b, err := g.buffers.get(e.Buffer)
	if err != nil {
		return out, fmt.Errorf("binding %d: %w", e.Binding, err)
	}
	if err := sameDevice(hub.Buffer, e.Buffer, b.device, deviceID); err != nil {
		return out, err
	}

	switch le.Buffer.Type {
	case gputypes.BufferBindingTypeUniform:
		if b.usage&gputypes.BufferUsageUniform == 0 {
			return out, invalidf("bind group %q: binding %d: buffer %s lacks Uniform usage", label, e.Binding, e.Buffer)
		}
		if e.Offset%uniformOffsetAlignment != 0 {
			return out, invalidf("bind group %q: binding %d: offset %d not %d-aligned", label, e.Binding, e.Offset, uniformOffsetAlignment)
		}
	default:
		if b.usage&gputypes.BufferUsageStorage == 0 {
			return out, invalidf("bind group %q: binding %d: buffer %s lacks Storage usage", label, e.Binding, e.Buffer)
		}
	}

	if e.Offset > b.size {
		return out, invalidf("bind group %q: binding %d: offset %d past buffer end %d", label, e.Binding, e.Offset, b.size)
	}
	size := e.Size
	if size == 0 {
		size = b.size - e.Offset
	}
	if size > b.size-e.Offset {
		return out, invalidf("bind group %q: binding %d: range %d+%d exceeds buffer size %d", label, e.Binding, e.Offset, size, b.size)
	}
	if size == 0 {
		return out, invalidf("bind group %q: binding %d: empty range", label, e.Binding)
	}

	out.Binding = e.Binding
	out.Resource = gputypes.BufferBinding{
		Buffer: b.raw.NativeHandle(),
		Offset: e.Offset,
		Size:   size,
	}
	return out, nil
}

// BindGroupDrop destroys a bind group.
func (g *Global) BindGroupDrop(id identity.Id) error {
	b, valid, err := g.bindGroups.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(b.device, func(d *device) { d.raw.DestroyBindGroup(b.raw) })
	return nil
}
