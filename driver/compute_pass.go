// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
)

// MaxDispatchSize is the largest workgroup count per dimension.
const MaxDispatchSize = 65535

// ComputePass records dispatches into a command encoder. The encoder stays
// locked until End is called.
type ComputePass struct {
	pass
	raw hal.ComputePassEncoder
}

// CommandEncoderBeginComputePass starts a compute pass on encoderID.
func (g *Global) CommandEncoderBeginComputePass(encoderID identity.Id, desc *ComputePassDescriptor) (*ComputePass, error) {
	e, err := g.encoderForPass(encoderID)
	if err != nil {
		return nil, err
	}
	if desc == nil {
		desc = &ComputePassDescriptor{}
	}
	raw := e.raw.BeginComputePass(&hal.ComputePassDescriptor{Label: desc.Label})
	e.state = EncoderStateLocked
	return &ComputePass{pass: pass{g: g, encoderID: encoderID, encoder: e}, raw: raw}, nil
}

// SetPipeline sets the compute pipeline for subsequent dispatches.
func (p *ComputePass) SetPipeline(id identity.Id) error {
	if err := p.check(); err != nil {
		return err
	}
	cp, err := p.g.computePipelines.get(id)
	if err != nil {
		return err
	}
	if err := sameDevice(hub.ComputePipeline, id, cp.device, p.encoder.device); err != nil {
		return err
	}
	p.raw.SetPipeline(cp.raw)
	p.bindings.layout = cp.layout
	return nil
}

// SetBindGroup binds a bind group at index.
func (p *ComputePass) SetBindGroup(index uint32, id identity.Id) error {
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

// Dispatch records a dispatch of x*y*z workgroups.
func (p *ComputePass) Dispatch(x, y, z uint32) error {
	if err := p.check(); err != nil {
		return err
	}
	if x > MaxDispatchSize || y > MaxDispatchSize || z > MaxDispatchSize {
		return invalidf("dispatch %dx%dx%d exceeds %d per dimension", x, y, z, MaxDispatchSize)
	}
	if err := p.bindings.ready(); err != nil {
		return err
	}
	p.raw.Dispatch(x, y, z)
	return nil
}

// End finishes the pass and unlocks the encoder.
func (p *ComputePass) End() error {
	if err := p.check(); err != nil {
		return err
	}
	p.raw.End()
	p.end()
	return nil
}
