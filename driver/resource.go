// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid/identity"
)

type buffer struct {
	deviceRef
	raw   hal.Buffer
	size  uint64
	usage gputypes.BufferUsage
}

type texture struct {
	deviceRef
	raw  hal.Texture
	desc TextureDescriptor
}

type textureView struct {
	deviceRef
	texture identity.Id
	raw     hal.TextureView
	format  gputypes.TextureFormat
	usage   gputypes.TextureUsage
	width   uint32
	height  uint32
	samples uint32
}

type sampler struct {
	deviceRef
	raw hal.Sampler
}

// DeviceCreateBuffer creates a buffer under id.
func (g *Global) DeviceCreateBuffer(deviceID identity.Id, desc *BufferDescriptor, id identity.Id) (identity.Id, error) {
	return create(g, g.buffers, id, func() (*buffer, error) {
		d, err := g.deviceFor(deviceID, id)
		if err != nil {
			return nil, err
		}
		if err := validateBuffer(desc, d.limits.MaxBufferSize); err != nil {
			return nil, err
		}
		raw, err := d.raw.CreateBuffer(&hal.BufferDescriptor{
			Label: desc.Label,
			Size:  desc.Size,
			Usage: desc.Usage,
		})
		if err != nil {
			return nil, err
		}
		return &buffer{deviceRef: deviceRef{deviceID}, raw: raw, size: desc.Size, usage: desc.Usage}, nil
	})
}

func validateBuffer(desc *BufferDescriptor, maxSize uint64) error {
	if desc == nil {
		return invalidf("nil buffer descriptor")
	}
	u := desc.Usage
	switch {
	case u == 0:
		return invalidf("buffer %q: empty usage", desc.Label)
	case u&gputypes.BufferUsageMapRead != 0 && u&^(gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst) != 0:
		return invalidf("buffer %q: MapRead may only be combined with CopyDst", desc.Label)
	case u&gputypes.BufferUsageMapWrite != 0 && u&^(gputypes.BufferUsageMapWrite|gputypes.BufferUsageCopySrc) != 0:
		return invalidf("buffer %q: MapWrite may only be combined with CopySrc", desc.Label)
	case desc.MappedAtCreation && desc.Size%4 != 0:
		return invalidf("buffer %q: mapped size %d is not a multiple of 4", desc.Label, desc.Size)
	case desc.Size > maxSize:
		return invalidf("buffer %q: size %d exceeds limit %d", desc.Label, desc.Size, maxSize)
	}
	return nil
}

// BufferDestroy destroys a buffer. Bind groups referencing it keep their id.
func (g *Global) BufferDestroy(id identity.Id) error {
	b, valid, err := g.buffers.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(b.device, func(d *device) { d.raw.DestroyBuffer(b.raw) })
	return nil
}

// DeviceCreateTexture creates a 2D texture under id.
func (g *Global) DeviceCreateTexture(deviceID identity.Id, desc *TextureDescriptor, id identity.Id) (identity.Id, error) {
	return create(g, g.textures, id, func() (*texture, error) {
		d, err := g.deviceFor(deviceID, id)
		if err != nil {
			return nil, err
		}
		if desc == nil {
			return nil, invalidf("nil texture descriptor")
		}
		td := *desc
		if td.MipLevelCount == 0 {
			td.MipLevelCount = 1
		}
		if td.SampleCount == 0 {
			td.SampleCount = 1
		}
		if td.Size.DepthOrArrayLayers == 0 {
			td.Size.DepthOrArrayLayers = 1
		}
		if err := validateTexture(&td, d.limits.MaxTextureDimension2D); err != nil {
			return nil, err
		}
		raw, err := d.raw.CreateTexture(&hal.TextureDescriptor{
			Label:         td.Label,
			Size:          td.Size,
			MipLevelCount: td.MipLevelCount,
			SampleCount:   td.SampleCount,
			Dimension:     gputypes.TextureDimension2D,
			Format:        td.Format,
			Usage:         td.Usage,
		})
		if err != nil {
			return nil, err
		}
		return &texture{deviceRef: deviceRef{deviceID}, raw: raw, desc: td}, nil
	})
}

func validateTexture(td *TextureDescriptor, maxDim uint32) error {
	switch {
	case td.Size.Width == 0 || td.Size.Height == 0:
		return invalidf("texture %q: zero extent %dx%d", td.Label, td.Size.Width, td.Size.Height)
	case td.Size.Width > maxDim || td.Size.Height > maxDim:
		return invalidf("texture %q: extent %dx%d exceeds limit %d", td.Label, td.Size.Width, td.Size.Height, maxDim)
	case td.SampleCount != 1 && td.SampleCount != 4:
		return invalidf("texture %q: sample count %d", td.Label, td.SampleCount)
	case td.SampleCount > 1 && td.MipLevelCount > 1:
		return invalidf("texture %q: multisampled texture with %d mips", td.Label, td.MipLevelCount)
	case td.Format == gputypes.TextureFormatUndefined:
		return invalidf("texture %q: undefined format", td.Label)
	case td.Usage == 0:
		return invalidf("texture %q: empty usage", td.Label)
	}
	return nil
}

// TextureDestroy destroys a texture. Views created from it keep their id
// but can no longer be used as attachments.
func (g *Global) TextureDestroy(id identity.Id) error {
	t, valid, err := g.textures.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(t.device, func(d *device) { d.raw.DestroyTexture(t.raw) })
	return nil
}

// TextureCreateView creates a view over the whole of textureID.
func (g *Global) TextureCreateView(textureID identity.Id, desc *TextureViewDescriptor, id identity.Id) (identity.Id, error) {
	return create(g, g.textureViews, id, func() (*textureView, error) {
		t, err := g.textures.get(textureID)
		if err != nil {
			return nil, err
		}
		d, err := g.deviceFor(t.device, id)
		if err != nil {
			return nil, err
		}
		if desc == nil {
			desc = &TextureViewDescriptor{}
		}
		raw, err := d.raw.CreateTextureView(t.raw, &hal.TextureViewDescriptor{Label: desc.Label})
		if err != nil {
			return nil, err
		}
		return &textureView{
			deviceRef: t.deviceRef,
			texture:   textureID,
			raw:       raw,
			format:    t.desc.Format,
			usage:     t.desc.Usage,
			width:     t.desc.Size.Width,
			height:    t.desc.Size.Height,
			samples:   t.desc.SampleCount,
		}, nil
	})
}

// TextureViewDrop destroys a texture view.
func (g *Global) TextureViewDrop(id identity.Id) error {
	v, valid, err := g.textureViews.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(v.device, func(d *device) { d.raw.DestroyTextureView(v.raw) })
	return nil
}

// DeviceCreateSampler creates a clamp-to-edge sampler under id.
func (g *Global) DeviceCreateSampler(deviceID identity.Id, desc *SamplerDescriptor, id identity.Id) (identity.Id, error) {
	return create(g, g.samplers, id, func() (*sampler, error) {
		d, err := g.deviceFor(deviceID, id)
		if err != nil {
			return nil, err
		}
		if desc == nil {
			desc = &SamplerDescriptor{}
		}
		hd := &hal.SamplerDescriptor{
			Label:        desc.Label,
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
		}
		if desc.Linear {
			hd.MagFilter = gputypes.FilterModeLinear
			hd.MinFilter = gputypes.FilterModeLinear
			hd.MipmapFilter = gputypes.FilterModeLinear
		}
		raw, err := d.raw.CreateSampler(hd)
		if err != nil {
			return nil, err
		}
		return &sampler{deviceRef: deviceRef{deviceID}, raw: raw}, nil
	})
}

// SamplerDrop destroys a sampler.
func (g *Global) SamplerDrop(id identity.Id) error {
	s, valid, err := g.samplers.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(s.device, func(d *device) { d.raw.DestroySampler(s.raw) })
	return nil
}

// withDevice runs fn on the device if it is still alive. Objects of a
// dropped device were already released with it.
func (g *Global) withDevice(id identity.Id, fn func(*device)) {
	d, err := g.devices.get(id)
	if err != nil {
		g.logger().Warn("driver: release after device loss", "global", g.name, "device", id.String(), "error", err)
		return
	}
	fn(d)
}
