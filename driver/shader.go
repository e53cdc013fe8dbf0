// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid/identity"
	"github.com/gogpu/gpuid/internal/shader"
)

type shaderModule struct {
	deviceRef
	label   string
	raw     hal.ShaderModule
	reflect *shader.Module
}

// DeviceCreateShaderModule compiles WGSL source into a shader module under
// id. The module's bindings and entry points are kept for pipeline
// creation.
func (g *Global) DeviceCreateShaderModule(deviceID identity.Id, desc *ShaderModuleDescriptor, id identity.Id) (identity.Id, error) {
	return create(g, g.shaderModules, id, func() (*shaderModule, error) {
		d, err := g.deviceFor(deviceID, id)
		if err != nil {
			return nil, err
		}
		if desc == nil {
			return nil, invalidf("nil shader module descriptor")
		}
		reflected, err := g.shaders.Parse(desc.WGSL)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrShaderCompile, desc.Label, err)
		}
		raw, err := d.raw.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  desc.Label,
			Source: hal.ShaderSource{WGSL: desc.WGSL},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrShaderCompile, desc.Label, err)
		}
		return &shaderModule{deviceRef: deviceRef{deviceID}, label: desc.Label, raw: raw, reflect: reflected}, nil
	})
}

// ShaderModuleDrop destroys a shader module. Pipelines built from it are
// unaffected.
func (g *Global) ShaderModuleDrop(id identity.Id) error {
	m, valid, err := g.shaderModules.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(m.device, func(d *device) { d.raw.DestroyShaderModule(m.raw) })
	return nil
}

// stageUse is one resolved pipeline stage.
type stageUse struct {
	module *shaderModule
	entry  shader.EntryPoint
}

func (g *Global) resolveStage(deviceID identity.Id, st ProgrammableStage, stage shader.Stage) (stageUse, error) {
	m, err := g.shaderModules.get(st.Module)
	if err != nil {
		return stageUse{}, fmt.Errorf("%s stage: %w", stage, err)
	}
	if m.device != deviceID {
		return stageUse{}, fmt.Errorf("%s stage: %w: module %s", stage, ErrDeviceMismatch, st.Module)
	}
	ep, err := m.reflect.EntryPoint(st.EntryPoint, stage)
	if err != nil {
		return stageUse{}, fmt.Errorf("%w: module %q: %w", ErrEntryPointNotFound, m.label, err)
	}
	return stageUse{module: m, entry: ep}, nil
}
