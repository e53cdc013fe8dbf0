// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
)

// PassState is the state of a render or compute pass.
type PassState int

const (
	PassStateRecording PassState = iota
	PassStateEnded
)

func (s PassState) String() string {
	switch s {
	case PassStateRecording:
		return "Recording"
	case PassStateEnded:
		return "Ended"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// passBindings tracks the pipeline and bind groups set on a pass.
type passBindings struct {
	layout *pipelineLayout
	groups [MaxBindGroups]*bindGroup
	ids    [MaxBindGroups]identity.Id
}

func (b *passBindings) set(index uint32, id identity.Id, bg *bindGroup) error {
	if index >= MaxBindGroups {
		return ErrBindGroupIndexOutOfRange
	}
	b.groups[index] = bg
	b.ids[index] = id
	return nil
}

// ready checks that a pipeline is set and every group of its layout has a
// compatible bind group.
func (b *passBindings) ready() error {
	if b.layout == nil {
		return ErrNoPipeline
	}
	for i, want := range b.layout.layouts {
		bg := b.groups[i]
		if bg == nil {
			return fmt.Errorf("%w: group %d not set", ErrIncompatibleBindGroup, i)
		}
		if !bg.layout.compatible(want) {
			return fmt.Errorf("%w: group %d: bind group %s (layout %s) does not match %s",
				ErrIncompatibleBindGroup, i, b.ids[i], bg.layoutID, b.layout.groups[i])
		}
	}
	return nil
}

// pass is the state shared by render and compute passes.
type pass struct {
	g         *Global
	encoderID identity.Id
	encoder   *commandEncoder
	state     PassState
	bindings  passBindings
}

// State returns the pass state.
func (p *pass) State() PassState { return p.state }

// check reports whether the pass accepts commands. The encoder is looked
// up again so that dropping it, or its device, is noticed.
func (p *pass) check() error {
	if p.state == PassStateEnded {
		return ErrPassEnded
	}
	_, err := p.g.commandEncoders.get(p.encoderID)
	return err
}

func (p *pass) end() {
	p.state = PassStateEnded
	p.encoder.state = EncoderStateRecording
}

// RenderPass records draw commands into a command encoder. The encoder
// stays locked until End is called.
//
// RenderPass is NOT safe for concurrent use.
type RenderPass struct {
	pass
	raw     hal.RenderPassEncoder
	targets []textureView
	draws   int
}

// CommandEncoderBeginRenderPass starts a render pass on encoderID.
func (g *Global) CommandEncoderBeginRenderPass(encoderID identity.Id, desc *RenderPassDescriptor) (*RenderPass, error) {
	e, err := g.encoderForPass(encoderID)
	if err != nil {
		return nil, err
	}
	if desc == nil || len(desc.ColorAttachments) == 0 {
		return nil, invalidf("render pass: no color attachments")
	}
	if len(desc.ColorAttachments) > MaxColorAttachments {
		return nil, invalidf("render pass %q: %d color attachments, max %d", desc.Label, len(desc.ColorAttachments), MaxColorAttachments)
	}

	targets := make([]textureView, len(desc.ColorAttachments))
	attachments := make([]hal.RenderPassColorAttachment, len(desc.ColorAttachments))
	for i, a := range desc.ColorAttachments {
		v, err := g.attachmentView(e.device, a.View)
		if err != nil {
			return nil, fmt.Errorf("render pass %q: attachment %d: %w", desc.Label, i, err)
		}
		if i > 0 && (v.width != targets[0].width || v.height != targets[0].height) {
			return nil, invalidf("render pass %q: attachment %d is %dx%d, want %dx%d",
				desc.Label, i, v.width, v.height, targets[0].width, targets[0].height)
		}
		targets[i] = *v
		attachments[i] = hal.RenderPassColorAttachment{
			View:       v.raw,
			LoadOp:     a.LoadOp,
			StoreOp:    a.StoreOp,
			ClearValue: a.ClearValue,
		}
		if !a.ResolveTarget.IsZero() {
			rv, err := g.attachmentView(e.device, a.ResolveTarget)
			if err != nil {
				return nil, fmt.Errorf("render pass %q: resolve target %d: %w", desc.Label, i, err)
			}
			attachments[i].ResolveTarget = rv.raw
		}
	}

	raw := e.raw.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: attachments,
	})
	e.state = EncoderStateLocked
	return &RenderPass{
		pass:    pass{g: g, encoderID: encoderID, encoder: e},
		raw:     raw,
		targets: targets,
	}, nil
}

func (g *Global) attachmentView(deviceID, id identity.Id) (*textureView, error) {
	v, err := g.textureViews.get(id)
	if err != nil {
		return nil, err
	}
	if err := sameDevice(hub.TextureView, id, v.device, deviceID); err != nil {
		return nil, err
	}
	if _, err := g.textures.get(v.texture); err != nil {
		return nil, fmt.Errorf("view %s: %w", id, err)
	}
	if v.usage&gputypes.TextureUsageRenderAttachment == 0 {
		return nil, invalidf("view %s: texture lacks RenderAttachment usage", id)
	}
	return v, nil
}

// Draws returns the number of draws recorded so far.
func (p *RenderPass) Draws() int { return p.draws }

// SetPipeline sets the render pipeline for subsequent draws. Its color
// targets must match the pass attachments.
func (p *RenderPass) SetPipeline(id identity.Id) error {
	if err := p.check(); err != nil {
		return err
	}
	rp, err := p.g.renderPipelines.get(id)
	if err != nil {
		return err
	}
	if err := sameDevice(hub.RenderPipeline, id, rp.device, p.encoder.device); err != nil {
		return err
	}
	if len(rp.targets) != len(p.targets) {
		return invalidf("pipeline %s has %d color targets, pass has %d", id, len(rp.targets), len(p.targets))
	}
	for i, f := range rp.targets {
		if f != p.targets[i].format {
			return invalidf("pipeline %s target %d format %v, attachment is %v", id, i, f, p.targets[i].format)
		}
		if rp.samples != p.targets[i].samples {
			return invalidf("pipeline %s sample count %d, attachment %d has %d", id, rp.samples, i, p.targets[i].samples)
		}
	}
	p.raw.SetPipeline(rp.raw)
	p.bindings.layout = rp.layout
	return nil
}

// SetBindGroup binds a bind group at index.
func (p *RenderPass) SetBindGroup(index uint32, id identity.Id) error {
	if err := p.check(); err != nil {
		return err
	}
	bg, err := p.g.bindGroups.get(id)
	if err != nil {
		return err
	}
	if err := sameDevice(hub.BindGroup, id, bg.device, p.encoder.device); err != nil {
		return err
	}
	if err := p.bindings.set(index, id, bg); err != nil {
		return err
	}
	p.raw.SetBindGroup(index, bg.raw, nil)
	return nil
}

// Draw records a non-indexed draw. A pipeline must be set and every group
// of its layout must have a compatible bind group.
func (p *RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	if err := p.check(); err != nil {
		return err
	}
	if err := p.bindings.ready(); err != nil {
		return err
	}
	p.raw.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	p.draws++
	return nil
}

// End finishes the pass and unlocks the encoder.
func (p *RenderPass) End() error {
	if err := p.check(); err != nil {
		return err
	}
	p.raw.End()
	p.end()
	return nil
}
