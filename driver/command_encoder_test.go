// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
)

func TestEncoderStateString(t *testing.T) {
	assert.Equal(t, "Recording", EncoderStateRecording.String())
	assert.Equal(t, "Consumed", EncoderStateConsumed.String())
	assert.Equal(t, "Unknown(42)", EncoderState(42).String())
	assert.Equal(t, "Ended", PassStateEnded.String())
}

func (e *testEnv) encoder() identity.Id {
	e.t.Helper()
	id, err := e.g.DeviceCreateCommandEncoder(e.device, &CommandEncoderDescriptor{Label: "enc"}, e.next(hub.CommandEncoder))
	require.NoError(e.t, err)
	return id
}

func (e *testEnv) targetView(usage gputypes.TextureUsage) identity.Id {
	e.t.Helper()
	tex, err := e.g.DeviceCreateTexture(e.device, &TextureDescriptor{
		Size:   hal.Extent3D{Width: 16, Height: 16},
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  usage,
	}, e.next(hub.Texture))
	require.NoError(e.t, err)
	view, err := e.g.TextureCreateView(tex, nil, e.next(hub.TextureView))
	require.NoError(e.t, err)
	return view
}

func colorPass(view identity.Id) *RenderPassDescriptor {
	return &RenderPassDescriptor{
		ColorAttachments: []RenderPassColorAttachment{{
			View:    view,
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
		}},
	}
}

// uniformBindGroup creates a bind group for layout backed by a fresh
// uniform buffer, or an empty one for an empty layout.
func (e *testEnv) uniformBindGroup(layout identity.Id) identity.Id {
	e.t.Helper()
	l, err := e.g.bindGroupLayouts.get(layout)
	require.NoError(e.t, err)
	var entries []BindGroupEntry
	if len(l.entries) > 0 {
		entries = []BindGroupEntry{{Binding: 0, Buffer: e.buffer(16, gputypes.BufferUsageUniform)}}
	}
	id, err := e.g.DeviceCreateBindGroup(e.device, &BindGroupDescriptor{Layout: layout, Entries: entries}, e.next(hub.BindGroup))
	require.NoError(e.t, err)
	return id
}

func TestRenderPassDraw(t *testing.T) {
	env := newTestEnv(t)
	implicit := env.hub.ImplicitPipelineIds(identity.Vulkan, 4)
	pipeline, err := env.g.DeviceCreateRenderPipeline(env.device, env.renderDesc(0), env.next(hub.RenderPipeline), &implicit)
	require.NoError(t, err)

	// Groups 2 and 3 have identical layouts, so their bind groups may swap.
	groups := []identity.Id{
		env.uniformBindGroup(implicit.Groups[0]),
		env.uniformBindGroup(implicit.Groups[1]),
		env.uniformBindGroup(implicit.Groups[3]),
		env.uniformBindGroup(implicit.Groups[2]),
	}

	enc := env.encoder()
	pass, err := env.g.CommandEncoderBeginRenderPass(enc, colorPass(env.targetView(gputypes.TextureUsageRenderAttachment)))
	require.NoError(t, err)

	state, err := env.g.CommandEncoderState(enc)
	require.NoError(t, err)
	assert.Equal(t, EncoderStateLocked, state)

	require.NoError(t, pass.SetPipeline(pipeline))
	for i, bg := range groups {
		require.NoError(t, pass.SetBindGroup(uint32(i), bg))
	}
	require.NoError(t, pass.Draw(3, 1, 0, 0))
	assert.Equal(t, 1, pass.Draws())
	require.NoError(t, pass.End())
	assert.Equal(t, PassStateEnded, pass.State())

	assert.ErrorIs(t, pass.Draw(3, 1, 0, 0), ErrPassEnded)
	assert.ErrorIs(t, pass.End(), ErrPassEnded)

	cb, err := env.g.CommandEncoderFinish(enc)
	require.NoError(t, err)
	assert.Equal(t, enc, cb)
	require.NoError(t, env.g.QueueSubmit(env.device, []identity.Id{cb}))

	state, err = env.g.CommandEncoderState(enc)
	require.NoError(t, err)
	assert.Equal(t, EncoderStateConsumed, state)
	assert.ErrorIs(t, env.g.QueueSubmit(env.device, []identity.Id{cb}), ErrEncoderConsumed)
}

func TestRenderPassDrawValidation(t *testing.T) {
	env := newTestEnv(t)
	implicit := env.hub.ImplicitPipelineIds(identity.Vulkan, 4)
	pipeline, err := env.g.DeviceCreateRenderPipeline(env.device, env.renderDesc(0), env.next(hub.RenderPipeline), &implicit)
	require.NoError(t, err)

	enc := env.encoder()
	pass, err := env.g.CommandEncoderBeginRenderPass(enc, colorPass(env.targetView(gputypes.TextureUsageRenderAttachment)))
	require.NoError(t, err)

	assert.ErrorIs(t, pass.Draw(3, 1, 0, 0), ErrNoPipeline)
	require.NoError(t, pass.SetPipeline(pipeline))
	assert.ErrorIs(t, pass.Draw(3, 1, 0, 0), ErrIncompatibleBindGroup)

	// A uniform group where an empty one is expected.
	require.NoError(t, pass.SetBindGroup(0, env.uniformBindGroup(implicit.Groups[2])))
	require.NoError(t, pass.SetBindGroup(1, env.uniformBindGroup(implicit.Groups[1])))
	require.NoError(t, pass.SetBindGroup(2, env.uniformBindGroup(implicit.Groups[2])))
	require.NoError(t, pass.SetBindGroup(3, env.uniformBindGroup(implicit.Groups[3])))
	assert.ErrorIs(t, pass.Draw(3, 1, 0, 0), ErrIncompatibleBindGroup)

	assert.ErrorIs(t, pass.SetBindGroup(4, env.uniformBindGroup(implicit.Groups[0])), ErrBindGroupIndexOutOfRange)
	require.NoError(t, pass.End())
}

func TestRenderPassAttachmentChecks(t *testing.T) {
	env := newTestEnv(t)
	enc := env.encoder()

	_, err := env.g.CommandEncoderBeginRenderPass(enc, &RenderPassDescriptor{})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	_, err = env.g.CommandEncoderBeginRenderPass(enc, colorPass(env.targetView(gputypes.TextureUsageCopyDst)))
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	desc := &RenderPassDescriptor{}
	view := env.targetView(gputypes.TextureUsageRenderAttachment)
	for range MaxColorAttachments + 1 {
		desc.ColorAttachments = append(desc.ColorAttachments, RenderPassColorAttachment{View: view})
	}
	_, err = env.g.CommandEncoderBeginRenderPass(enc, desc)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	state, err := env.g.CommandEncoderState(enc)
	require.NoError(t, err)
	assert.Equal(t, EncoderStateRecording, state)
}

func TestRenderPassPipelineTargetMismatch(t *testing.T) {
	env := newTestEnv(t)
	pipeline, err := env.g.DeviceCreateRenderPipeline(env.device, env.renderDesc(env.explicitLayout()), env.next(hub.RenderPipeline), nil)
	require.NoError(t, err)

	view := env.targetView(gputypes.TextureUsageRenderAttachment)
	desc := colorPass(view)
	desc.ColorAttachments = append(desc.ColorAttachments, desc.ColorAttachments[0])

	pass, err := env.g.CommandEncoderBeginRenderPass(env.encoder(), desc)
	require.NoError(t, err)
	assert.ErrorIs(t, pass.SetPipeline(pipeline), ErrInvalidDescriptor)
	require.NoError(t, pass.End())
}

func TestEncoderStateMachine(t *testing.T) {
	env := newTestEnv(t)
	enc := env.encoder()
	view := env.targetView(gputypes.TextureUsageRenderAttachment)

	pass, err := env.g.CommandEncoderBeginRenderPass(enc, colorPass(view))
	require.NoError(t, err)

	_, err = env.g.CommandEncoderBeginRenderPass(enc, colorPass(view))
	assert.ErrorIs(t, err, ErrEncoderLocked)
	_, err = env.g.CommandEncoderFinish(enc)
	assert.ErrorIs(t, err, ErrEncoderLocked)

	require.NoError(t, pass.End())
	_, err = env.g.CommandEncoderFinish(enc)
	require.NoError(t, err)

	_, err = env.g.CommandEncoderFinish(enc)
	assert.ErrorIs(t, err, ErrEncoderFinished)
	_, err = env.g.CommandEncoderBeginComputePass(enc, nil)
	assert.ErrorIs(t, err, ErrEncoderFinished)

	require.NoError(t, env.g.CommandEncoderDrop(enc))
	assert.ErrorIs(t, env.g.CommandEncoderDrop(enc), ErrDestroyedResource)
}

func TestQueueSubmitRejectsUnfinished(t *testing.T) {
	env := newTestEnv(t)
	enc := env.encoder()
	assert.ErrorIs(t, env.g.QueueSubmit(env.device, []identity.Id{enc}), ErrEncoderNotRecording)
	require.NoError(t, env.g.QueueSubmit(env.device, nil))
}

func TestComputePass(t *testing.T) {
	env := newTestEnv(t)
	module := env.shader(computeStorage)
	implicit := env.hub.ImplicitPipelineIds(identity.Vulkan, 1)
	pipeline, err := env.g.DeviceCreateComputePipeline(env.device, &ComputePipelineDescriptor{
		Compute: ProgrammableStage{Module: module},
	}, env.next(hub.ComputePipeline), &implicit)
	require.NoError(t, err)

	buf := env.buffer(256, gputypes.BufferUsageStorage)
	bg, err := env.g.DeviceCreateBindGroup(env.device, &BindGroupDescriptor{
		Layout:  implicit.Groups[0],
		Entries: []BindGroupEntry{{Binding: 0, Buffer: buf}},
	}, env.next(hub.BindGroup))
	require.NoError(t, err)

	enc := env.encoder()
	pass, err := env.g.CommandEncoderBeginComputePass(enc, &ComputePassDescriptor{Label: "compute"})
	require.NoError(t, err)

	assert.ErrorIs(t, pass.Dispatch(1, 1, 1), ErrNoPipeline)
	require.NoError(t, pass.SetPipeline(pipeline))
	require.NoError(t, pass.SetBindGroup(0, bg))
	assert.ErrorIs(t, pass.Dispatch(MaxDispatchSize+1, 1, 1), ErrInvalidDescriptor)
	require.NoError(t, pass.Dispatch(4, 1, 1))
	require.NoError(t, pass.End())
	assert.Equal(t, PassStateEnded, pass.State())
	assert.ErrorIs(t, pass.Dispatch(1, 1, 1), ErrPassEnded)

	cb, err := env.g.CommandEncoderFinish(enc)
	require.NoError(t, err)
	require.NoError(t, env.g.QueueSubmit(env.device, []identity.Id{cb}))
}

func TestQueueSubmitRejectsRepeatedBuffer(t *testing.T) {
	env := newTestEnv(t)
	cb, err := env.g.CommandEncoderFinish(env.encoder())
	require.NoError(t, err)

	assert.ErrorIs(t, env.g.QueueSubmit(env.device, []identity.Id{cb, cb}), ErrEncoderConsumed)
	state, err := env.g.CommandEncoderState(cb)
	require.NoError(t, err)
	assert.Equal(t, EncoderStateFinished, state)

	require.NoError(t, env.g.QueueSubmit(env.device, []identity.Id{cb}))
}

func TestPassAfterEncoderDrop(t *testing.T) {
	env := newTestEnv(t)
	enc := env.encoder()
	pass, err := env.g.CommandEncoderBeginComputePass(enc, nil)
	require.NoError(t, err)

	require.NoError(t, env.g.CommandEncoderDrop(enc))
	assert.ErrorIs(t, pass.Dispatch(1, 1, 1), ErrDestroyedResource)
	assert.ErrorIs(t, pass.End(), ErrDestroyedResource)
}

func TestPassAfterDeviceDrop(t *testing.T) {
	env := newTestEnv(t)
	enc := env.encoder()
	pass, err := env.g.CommandEncoderBeginRenderPass(enc, colorPass(env.targetView(gputypes.TextureUsageRenderAttachment)))
	require.NoError(t, err)

	require.NoError(t, env.g.DeviceDrop(env.device))
	assert.ErrorIs(t, pass.Draw(3, 1, 0, 0), ErrDestroyedResource)
	assert.ErrorIs(t, pass.End(), ErrDestroyedResource)
	assert.Equal(t, PassStateRecording, pass.State())
}

func TestRenderPassRejectsDestroyedTexture(t *testing.T) {
	env := newTestEnv(t)
	view := env.targetView(gputypes.TextureUsageRenderAttachment)
	v, err := env.g.textureViews.get(view)
	require.NoError(t, err)
	require.NoError(t, env.g.TextureDestroy(v.texture))

	_, err = env.g.CommandEncoderBeginRenderPass(env.encoder(), colorPass(view))
	assert.ErrorIs(t, err, ErrDestroyedResource)
}
