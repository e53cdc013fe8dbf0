// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package driver creates GPU objects through gogpu/wgpu HAL under ids the
// caller reserved from a hub.
//
// Every creation method has the form
//
//	DeviceCreateX(device identity.Id, desc *XDescriptor, id identity.Id) (identity.Id, error)
//
// and returns id unchanged. The driver never allocates ids and never
// touches hub counters, so a failed creation costs the caller one id and
// nothing else. The failed id stays registered as invalid.
//
// Basic usage with the noop HAL:
//
//	h := hub.New()
//	g := driver.New(driver.WithProvider(identity.Vulkan, &noop.API{}))
//	defer g.Close()
//
//	adapter, err := g.RequestAdapter(nil, []identity.Id{h.Next(hub.Adapter, identity.Vulkan)})
//	device, err := g.AdapterRequestDevice(adapter, nil, h.Next(hub.Device, identity.Vulkan))
//	buf, err := g.DeviceCreateBuffer(device, &driver.BufferDescriptor{
//	    Size:  16,
//	    Usage: gputypes.BufferUsageUniform,
//	}, h.Next(hub.Buffer, identity.Vulkan))
package driver
