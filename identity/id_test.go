// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdString(t *testing.T) {
	tests := []struct {
		id   Id
		want string
	}{
		{Zip(0, 1, Vulkan), "Id(0,1,vk)"},
		{Zip(5, 1, Vulkan), "Id(5,1,vk)"},
		{Zip(3, 2, Metal), "Id(3,2,mtl)"},
		{Zip(7, 9, Dx12), "Id(7,9,d3d12)"},
		{Zip(1, 1, Gl), "Id(1,1,gl)"},
		{Zip(0, 1, BrowserWebGPU), "Id(0,1,webgpu)"},
		{Zip(0, 1, Empty), "Id(0,1,_)"},
		{Zip(MaxIndex, MaxGeneration, Vulkan), "Id(4294967295,536870911,vk)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.id.String())
	}
}

func TestIdZipUnzip(t *testing.T) {
	for _, b := range Backends() {
		id := Zip(42, 7, b)
		index, gen, backend := id.Unzip()
		assert.Equal(t, uint32(42), index)
		assert.Equal(t, uint32(7), gen)
		assert.Equal(t, b, backend)
	}
}

func TestIdBackendDistinguishes(t *testing.T) {
	vk := Zip(0, 1, Vulkan)
	mtl := Zip(0, 1, Metal)
	assert.NotEqual(t, vk, mtl)
	assert.Equal(t, vk.Index(), mtl.Index())
	assert.Equal(t, vk.Generation(), mtl.Generation())
}

func TestIdZero(t *testing.T) {
	var id Id
	assert.True(t, id.IsZero())
	assert.False(t, Zip(0, 1, Empty).IsZero())
}

func TestParse(t *testing.T) {
	id, err := Parse("Id(12,3,vk)")
	require.NoError(t, err)
	assert.Equal(t, Zip(12, 3, Vulkan), id)

	id, err = Parse(Zip(9, 1, BrowserWebGPU).String())
	require.NoError(t, err)
	assert.Equal(t, Zip(9, 1, BrowserWebGPU), id)

	for _, bad := range []string{"", "Id(1,2)", "Id(1,2,vk", "X(1,2,vk)", "Id(a,1,vk)", "Id(1,1,zz)", "Id(1,-1,vk)"} {
		_, err := Parse(bad)
		assert.Error(t, err, "Parse(%q)", bad)
	}
}

func TestParseBackend(t *testing.T) {
	tests := map[string]Backend{
		"vk":     Vulkan,
		"Vulkan": Vulkan,
		"mtl":    Metal,
		"d3d12":  Dx12,
		"dx12":   Dx12,
		"gl":     Gl,
		"webgpu": BrowserWebGPU,
		"_":      Empty,
	}
	for in, want := range tests {
		got, err := ParseBackend(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBackend("opengl-es")
	assert.Error(t, err)
}

func TestBackendGPUTypes(t *testing.T) {
	_, ok := Vulkan.GPUTypes()
	assert.True(t, ok)
	_, ok = Empty.GPUTypes()
	assert.False(t, ok)
	assert.Equal(t, "Backend(9)", Backend(9).String())
}
