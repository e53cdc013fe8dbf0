// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/rs/xid"

	"github.com/gogpu/gpuid"
	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
	"github.com/gogpu/gpuid/internal/shader"
)

// Global creates HAL objects under ids reserved by the caller and keeps the
// mapping from those ids to the objects.
//
// Every creation call takes the id as an argument and returns it
// unchanged, also on failure. A failed creation registers the id as
// invalid: later calls that reference it return ErrInvalidResource
// wrapping the original cause.
//
// Thread Safety: Global is not safe for concurrent use.
type Global struct {
	name string
	opts options

	instances map[identity.Backend]hal.Instance
	shaders   *shader.Cache

	adapters         *storage[*adapter]
	devices          *storage[*device]
	buffers          *storage[*buffer]
	textures         *storage[*texture]
	textureViews     *storage[*textureView]
	samplers         *storage[*sampler]
	bindGroupLayouts *storage[*bindGroupLayout]
	pipelineLayouts  *storage[*pipelineLayout]
	bindGroups       *storage[*bindGroup]
	shaderModules    *storage[*shaderModule]
	renderPipelines  *storage[*renderPipeline]
	computePipelines *storage[*computePipeline]
	commandEncoders  *storage[*commandEncoder]
}

type adapter struct {
	exposed hal.ExposedAdapter
	info    AdapterInfo
}

type device struct {
	adapter identity.Id
	label   string
	raw     hal.Device
	queue   hal.Queue
	limits  gputypes.Limits
}

// deviceRef records the device an object was created on.
type deviceRef struct {
	device identity.Id
}

func (r deviceRef) owner() identity.Id { return r.device }

// New returns a Global with no adapters.
func New(opts ...Option) *Global {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = "global-" + xid.New().String()
	}
	return &Global{
		name:             o.name,
		opts:             o,
		instances:        make(map[identity.Backend]hal.Instance),
		shaders:          shader.NewCache(o.shaderCache),
		adapters:         newStorage[*adapter](hub.Adapter),
		devices:          newStorage[*device](hub.Device),
		buffers:          newStorage[*buffer](hub.Buffer),
		textures:         newStorage[*texture](hub.Texture),
		textureViews:     newStorage[*textureView](hub.TextureView),
		samplers:         newStorage[*sampler](hub.Sampler),
		bindGroupLayouts: newStorage[*bindGroupLayout](hub.BindGroupLayout),
		pipelineLayouts:  newStorage[*pipelineLayout](hub.PipelineLayout),
		bindGroups:       newStorage[*bindGroup](hub.BindGroup),
		shaderModules:    newStorage[*shaderModule](hub.ShaderModule),
		renderPipelines:  newStorage[*renderPipeline](hub.RenderPipeline),
		computePipelines: newStorage[*computePipeline](hub.ComputePipeline),
		commandEncoders:  newStorage[*commandEncoder](hub.CommandEncoder),
	}
}

// Name returns the name used in log records.
func (g *Global) Name() string { return g.name }

func (g *Global) logger() *slog.Logger {
	if g.opts.logger != nil {
		return g.opts.logger
	}
	return gpuid.Logger()
}

// create registers the result of build under id. A build error registers
// id as invalid.
func create[T any](g *Global, s *storage[T], id identity.Id, build func() (T, error)) (identity.Id, error) {
	if err := s.vacant(id); err != nil {
		return id, g.fail(s.kind, id, err)
	}
	v, err := build()
	if err != nil {
		s.insertError(id, err)
		return id, g.fail(s.kind, id, err)
	}
	s.insert(id, v)
	g.logger().Debug("driver: created", "global", g.name, "kind", s.kind.String(), "id", id.String())
	return id, nil
}

func (g *Global) fail(kind hub.Kind, id identity.Id, err error) error {
	g.logger().Warn("driver: create failed", "global", g.name, "kind", kind.String(), "id", id.String(), "error", err)
	return &CreateError{Kind: kind, ID: id, Err: err}
}

// deviceFor returns the device an object named id is created on.
func (g *Global) deviceFor(deviceID, id identity.Id) (*device, error) {
	d, err := g.devices.get(deviceID)
	if err != nil {
		return nil, err
	}
	if id.Backend() != deviceID.Backend() {
		return nil, fmt.Errorf("%w: %s used with %s", ErrBackendMismatch, id, deviceID)
	}
	return d, nil
}

func sameDevice(kind hub.Kind, id identity.Id, owner, want identity.Id) error {
	if owner != want {
		return &ResourceError{Kind: kind, ID: id, Err: fmt.Errorf("%w: %s, not %s", ErrDeviceMismatch, owner, want)}
	}
	return nil
}

func (g *Global) instance(backend identity.Backend) (hal.Instance, error) {
	if inst, ok := g.instances[backend]; ok {
		return inst, nil
	}
	p, ok := g.opts.providers[backend]
	if !ok {
		gt, known := backend.GPUTypes()
		if !known {
			return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, backend.Name())
		}
		hb, registered := hal.GetBackend(gt)
		if !registered {
			return nil, fmt.Errorf("%w: %s not registered", ErrBackendUnavailable, backend.Name())
		}
		p = hb
	}
	inst, err := p.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, backend.Name(), err)
	}
	g.instances[backend] = inst
	return inst, nil
}

// RequestAdapter acquires an adapter. ids is an id set with one candidate
// per backend, tried in order; the id of the first backend that yields an
// adapter is registered and returned. On failure the first id is
// registered as invalid.
func (g *Global) RequestAdapter(opts *RequestAdapterOptions, ids []identity.Id) (identity.Id, error) {
	if len(ids) == 0 {
		return 0, g.fail(hub.Adapter, 0, ErrMissingID)
	}
	for _, id := range ids {
		if err := g.adapters.vacant(id); err != nil {
			return id, g.fail(hub.Adapter, id, err)
		}
	}

	var lastErr error
	for _, id := range ids {
		inst, err := g.instance(id.Backend())
		if err != nil {
			lastErr = err
			continue
		}
		exposed := inst.EnumerateAdapters(nil)
		i, ok := pickAdapter(exposed, opts)
		if !ok {
			lastErr = fmt.Errorf("%s: no matching adapter among %d", id.Backend().Name(), len(exposed))
			continue
		}
		a := &adapter{
			exposed: exposed[i],
			info: AdapterInfo{
				Name:       exposed[i].Info.Name,
				Backend:    id.Backend(),
				Discrete:   exposed[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU,
				Integrated: exposed[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU,
			},
		}
		g.adapters.insert(id, a)
		g.logger().Info("driver: adapter selected", "global", g.name, "id", id.String(), "name", a.info.Name)
		return id, nil
	}

	err := ErrNoAdapter
	if lastErr != nil {
		err = fmt.Errorf("%w: %w", ErrNoAdapter, lastErr)
	}
	g.adapters.insertError(ids[0], err)
	return ids[0], g.fail(hub.Adapter, ids[0], err)
}

func pickAdapter(exposed []hal.ExposedAdapter, opts *RequestAdapterOptions) (int, bool) {
	if len(exposed) == 0 {
		return 0, false
	}
	find := func(match func(hal.ExposedAdapter) bool) (int, bool) {
		for i := range exposed {
			if match(exposed[i]) {
				return i, true
			}
		}
		return 0, false
	}
	discrete := func(a hal.ExposedAdapter) bool { return a.Info.DeviceType == gputypes.DeviceTypeDiscreteGPU }
	integrated := func(a hal.ExposedAdapter) bool { return a.Info.DeviceType == gputypes.DeviceTypeIntegratedGPU }

	if opts != nil && opts.ForceFallbackAdapter {
		return find(func(a hal.ExposedAdapter) bool { return !discrete(a) && !integrated(a) })
	}
	first, second := integrated, discrete
	if opts != nil && opts.PowerPreference == gputypes.PowerPreferenceHighPerformance {
		first, second = discrete, integrated
	}
	if i, ok := find(first); ok {
		return i, true
	}
	if i, ok := find(second); ok {
		return i, true
	}
	return 0, true
}

// AdapterGetInfo describes an acquired adapter.
func (g *Global) AdapterGetInfo(id identity.Id) (AdapterInfo, error) {
	a, err := g.adapters.get(id)
	if err != nil {
		return AdapterInfo{}, err
	}
	return a.info, nil
}

// AdapterDrop forgets an adapter. Devices opened on it stay usable.
func (g *Global) AdapterDrop(id identity.Id) error {
	_, _, err := g.adapters.remove(id)
	return err
}

// AdapterRequestDevice opens a device on adapterID. The device's queue is
// addressed by the same id.
func (g *Global) AdapterRequestDevice(adapterID identity.Id, desc *DeviceDescriptor, id identity.Id) (identity.Id, error) {
	return create(g, g.devices, id, func() (*device, error) {
		a, err := g.adapters.get(adapterID)
		if err != nil {
			return nil, err
		}
		if id.Backend() != adapterID.Backend() {
			return nil, fmt.Errorf("%w: %s on adapter %s", ErrBackendMismatch, id, adapterID)
		}
		if desc == nil {
			desc = &DeviceDescriptor{}
		}
		limits := gputypes.DefaultLimits()
		if desc.RequiredLimits != nil {
			limits = *desc.RequiredLimits
		}
		open, err := a.exposed.Adapter.Open(desc.RequiredFeatures, limits)
		if err != nil {
			return nil, fmt.Errorf("open device: %w", err)
		}
		g.logger().Info("driver: device opened", "global", g.name, "id", id.String(), "adapter", a.info.Name)
		return &device{
			adapter: adapterID,
			label:   desc.Label,
			raw:     open.Device,
			queue:   open.Queue,
			limits:  limits,
		}, nil
	})
}

// DeviceDrop destroys every object created on the device, then the device.
func (g *Global) DeviceDrop(id identity.Id) error {
	d, valid, err := g.devices.remove(id)
	if err != nil {
		return err
	}
	if !valid {
		return nil
	}
	g.destroyOwned(id, d)
	d.raw.Destroy()
	g.logger().Info("driver: device dropped", "global", g.name, "id", id.String(), "label", d.label)
	return nil
}

// Close destroys every device and HAL instance. The Global must not be
// used afterwards.
func (g *Global) Close() {
	for id, e := range g.devices.entries {
		if e.state == entryValid {
			g.destroyOwned(id, e.value)
			e.value.raw.Destroy()
		}
	}
	for _, inst := range g.instances {
		inst.Destroy()
	}
	clear(g.instances)
	g.adapters.clear()
	g.devices.clear()
}

type owned interface{ owner() identity.Id }

// dropOwned tombstones every valid entry of s owned by dev and calls
// destroy on it.
func dropOwned[T owned](s *storage[T], dev identity.Id, destroy func(T)) {
	for _, e := range s.entries {
		if e.state != entryValid || e.value.owner() != dev {
			continue
		}
		destroy(e.value)
		*e = element[T]{state: entryDestroyed}
	}
}

func (g *Global) destroyOwned(id identity.Id, d *device) {
	dropOwned(g.commandEncoders, id, func(e *commandEncoder) { e.release(d.raw) })
	dropOwned(g.bindGroups, id, func(b *bindGroup) { d.raw.DestroyBindGroup(b.raw) })
	dropOwned(g.renderPipelines, id, func(p *renderPipeline) { d.raw.DestroyRenderPipeline(p.raw) })
	dropOwned(g.computePipelines, id, func(p *computePipeline) { d.raw.DestroyComputePipeline(p.raw) })
	dropOwned(g.pipelineLayouts, id, func(l *pipelineLayout) { d.raw.DestroyPipelineLayout(l.raw) })
	dropOwned(g.bindGroupLayouts, id, func(l *bindGroupLayout) { d.raw.DestroyBindGroupLayout(l.raw) })
	dropOwned(g.shaderModules, id, func(m *shaderModule) { d.raw.DestroyShaderModule(m.raw) })
	dropOwned(g.textureViews, id, func(v *textureView) { d.raw.DestroyTextureView(v.raw) })
	dropOwned(g.textures, id, func(t *texture) { d.raw.DestroyTexture(t.raw) })
	dropOwned(g.samplers, id, func(s *sampler) { d.raw.DestroySampler(s.raw) })
	dropOwned(g.buffers, id, func(b *buffer) { d.raw.DestroyBuffer(b.raw) })
}
