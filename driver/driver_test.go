// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
)

// testEnv is a hub and a Global with one open noop device on Vulkan ids.
type testEnv struct {
	t       *testing.T
	hub     *hub.Hub
	g       *Global
	adapter identity.Id
	device  identity.Id
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	h := hub.New()
	g := New(append([]Option{WithProvider(identity.Vulkan, &noop.API{})}, opts...)...)
	t.Cleanup(g.Close)

	adapter := must.M1(g.RequestAdapter(nil, []identity.Id{h.Next(hub.Adapter, identity.Vulkan)}))
	device := must.M1(g.AdapterRequestDevice(adapter, nil, h.Next(hub.Device, identity.Vulkan)))
	return &testEnv{t: t, hub: h, g: g, adapter: adapter, device: device}
}

func (e *testEnv) next(kind hub.Kind) identity.Id {
	return e.hub.Next(kind, identity.Vulkan)
}

func (e *testEnv) buffer(size uint64, usage gputypes.BufferUsage) identity.Id {
	e.t.Helper()
	id, err := e.g.DeviceCreateBuffer(e.device, &BufferDescriptor{Size: size, Usage: usage}, e.next(hub.Buffer))
	require.NoError(e.t, err)
	return id
}

func (e *testEnv) uniformLayout(binding uint32) identity.Id {
	e.t.Helper()
	id, err := e.g.DeviceCreateBindGroupLayout(e.device, &BindGroupLayoutDescriptor{
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    binding,
			Visibility: gputypes.ShaderStageVertex,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	}, e.next(hub.BindGroupLayout))
	require.NoError(e.t, err)
	return id
}

func TestRequestAdapter(t *testing.T) {
	h := hub.New()
	g := New(WithProvider(identity.Vulkan, &noop.API{}), WithName("test"))
	defer g.Close()
	assert.Equal(t, "test", g.Name())

	want := h.Next(hub.Adapter, identity.Vulkan)
	got, err := g.RequestAdapter(&RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	}, []identity.Id{want})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "Id(0,1,vk)", got.String())

	info, err := g.AdapterGetInfo(got)
	require.NoError(t, err)
	assert.Equal(t, identity.Vulkan, info.Backend)
}

func TestRequestAdapterIdSetSkipsUnavailableBackend(t *testing.T) {
	h := hub.New()
	g := New(WithProvider(identity.Vulkan, &noop.API{}))
	defer g.Close()

	ids := []identity.Id{h.Next(hub.Adapter, identity.Metal), h.Next(hub.Adapter, identity.Vulkan)}
	got, err := g.RequestAdapter(nil, ids)
	require.NoError(t, err)
	assert.Equal(t, ids[1], got)
}

func TestRequestAdapterNoBackend(t *testing.T) {
	h := hub.New()
	g := New()
	defer g.Close()

	id := h.Next(hub.Adapter, identity.Gl)
	got, err := g.RequestAdapter(nil, []identity.Id{id})
	assert.Equal(t, id, got)
	require.ErrorIs(t, err, ErrNoAdapter)
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	var ce *CreateError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, hub.Adapter, ce.Kind)

	_, err = g.AdapterGetInfo(id)
	assert.ErrorIs(t, err, ErrInvalidResource)
	assert.ErrorIs(t, err, ErrNoAdapter)
}

func TestRequestAdapterMissingID(t *testing.T) {
	g := New(WithProvider(identity.Vulkan, &noop.API{}))
	defer g.Close()
	_, err := g.RequestAdapter(nil, nil)
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestDeviceSharesIDWithQueue(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, "Id(0,1,vk)", env.device.String())
	buf := env.buffer(16, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	require.NoError(t, env.g.QueueWriteBuffer(env.device, buf, 0, make([]byte, 16)))
}

func TestAdapterRequestDeviceBackendMismatch(t *testing.T) {
	h := hub.New()
	g := New(WithProvider(identity.Vulkan, &noop.API{}))
	defer g.Close()
	adapter := must.M1(g.RequestAdapter(nil, []identity.Id{h.Next(hub.Adapter, identity.Vulkan)}))

	id := h.Next(hub.Device, identity.Metal)
	got, err := g.AdapterRequestDevice(adapter, nil, id)
	assert.Equal(t, id, got)
	assert.ErrorIs(t, err, ErrBackendMismatch)
}

func TestCreateEchoesID(t *testing.T) {
	env := newTestEnv(t)
	id := env.next(hub.Buffer)
	got, err := env.g.DeviceCreateBuffer(env.device, &BufferDescriptor{Size: 64, Usage: gputypes.BufferUsageStorage}, id)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestCreateMissingAndReusedID(t *testing.T) {
	env := newTestEnv(t)
	desc := &BufferDescriptor{Size: 4, Usage: gputypes.BufferUsageUniform}

	_, err := env.g.DeviceCreateBuffer(env.device, desc, 0)
	assert.ErrorIs(t, err, ErrMissingID)

	id := env.buffer(4, gputypes.BufferUsageUniform)
	_, err = env.g.DeviceCreateBuffer(env.device, desc, id)
	assert.ErrorIs(t, err, ErrIDInUse)
}

func TestFailedCreationKeepsHubCounters(t *testing.T) {
	env := newTestEnv(t)
	before := env.hub.Count(hub.Buffer, identity.Vulkan)

	id := env.next(hub.Buffer)
	got, err := env.g.DeviceCreateBuffer(env.device, &BufferDescriptor{Size: 4}, id)
	assert.Equal(t, id, got)
	require.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.Equal(t, before+1, env.hub.Count(hub.Buffer, identity.Vulkan))

	// The next id is unaffected by the failure.
	assert.Equal(t, identity.Zip(id.Index()+1, 1, identity.Vulkan), env.next(hub.Buffer))

	// The failed id is registered as invalid.
	err = env.g.BufferDestroy(id)
	require.NoError(t, err)
	err = env.g.BufferDestroy(id)
	assert.ErrorIs(t, err, ErrDestroyedResource)
}

func TestUnknownDevice(t *testing.T) {
	env := newTestEnv(t)
	id := env.next(hub.Buffer)
	_, err := env.g.DeviceCreateBuffer(identity.Zip(9, 1, identity.Vulkan), &BufferDescriptor{Size: 4, Usage: gputypes.BufferUsageUniform}, id)
	assert.ErrorIs(t, err, ErrUnknownResource)

	var re *ResourceError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, hub.Device, re.Kind)
}

func TestBackendMismatch(t *testing.T) {
	env := newTestEnv(t)
	id := env.hub.Next(hub.Buffer, identity.Metal)
	_, err := env.g.DeviceCreateBuffer(env.device, &BufferDescriptor{Size: 4, Usage: gputypes.BufferUsageUniform}, id)
	assert.ErrorIs(t, err, ErrBackendMismatch)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	env := newTestEnv(t, WithLogger(l))

	env.buffer(16, gputypes.BufferUsageUniform)
	_, _ = env.g.DeviceCreateBuffer(env.device, &BufferDescriptor{Size: 16}, env.next(hub.Buffer))

	out := buf.String()
	assert.True(t, strings.Contains(out, "driver: created"), out)
	assert.True(t, strings.Contains(out, "driver: create failed"), out)
}

func TestLogsCarryLabels(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	env := newTestEnv(t, WithLogger(l))
	device, err := env.g.AdapterRequestDevice(env.adapter, &DeviceDescriptor{Label: "second"}, env.next(hub.Device))
	require.NoError(t, err)

	enc, err := env.g.DeviceCreateCommandEncoder(device, &CommandEncoderDescriptor{Label: "frame"}, env.next(hub.CommandEncoder))
	require.NoError(t, err)
	_, err = env.g.CommandEncoderFinish(enc)
	require.NoError(t, err)
	require.NoError(t, env.g.DeviceDrop(device))

	out := buf.String()
	assert.Contains(t, out, `msg="driver: encoder finished"`)
	assert.Contains(t, out, "label=frame")
	assert.Contains(t, out, `msg="driver: device dropped"`)
	assert.Contains(t, out, "label=second")
}

func TestDeviceDropDestroysObjects(t *testing.T) {
	env := newTestEnv(t)
	buf := env.buffer(16, gputypes.BufferUsageUniform)
	layout := env.uniformLayout(0)

	require.NoError(t, env.g.DeviceDrop(env.device))
	assert.ErrorIs(t, env.g.BufferDestroy(buf), ErrDestroyedResource)
	assert.ErrorIs(t, env.g.BindGroupLayoutDrop(layout), ErrDestroyedResource)

	_, err := env.g.DeviceCreateBuffer(env.device, &BufferDescriptor{Size: 4, Usage: gputypes.BufferUsageUniform}, env.next(hub.Buffer))
	assert.ErrorIs(t, err, ErrDestroyedResource)
}

func TestAdapterDrop(t *testing.T) {
	h := hub.New()
	g := New(WithProvider(identity.Vulkan, &noop.API{}))
	defer g.Close()
	adapter := must.M1(g.RequestAdapter(nil, []identity.Id{h.Next(hub.Adapter, identity.Vulkan)}))

	require.NoError(t, g.AdapterDrop(adapter))
	_, err := g.AdapterGetInfo(adapter)
	assert.ErrorIs(t, err, ErrDestroyedResource)
	assert.ErrorIs(t, g.AdapterDrop(adapter), ErrDestroyedResource)
}
