// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package identity

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// Backend is the graphics API an id belongs to. The set is closed and
// fits in the 3 high bits of an [Id].
type Backend uint8

const (
	Empty Backend = iota
	Vulkan
	Metal
	Dx12
	Gl
	BrowserWebGPU

	backendCount
)

var backendTags = [backendCount]string{
	Empty:         "_",
	Vulkan:        "vk",
	Metal:         "mtl",
	Dx12:          "d3d12",
	Gl:            "gl",
	BrowserWebGPU: "webgpu",
}

var backendNames = [backendCount]string{
	Empty:         "empty",
	Vulkan:        "vulkan",
	Metal:         "metal",
	Dx12:          "dx12",
	Gl:            "gl",
	BrowserWebGPU: "browser-webgpu",
}

// Backends lists every backend in tag order.
func Backends() []Backend {
	out := make([]Backend, 0, backendCount)
	for b := Empty; b < backendCount; b++ {
		out = append(out, b)
	}
	return out
}

// Valid reports whether b is one of the known backends.
func (b Backend) Valid() bool { return b < backendCount }

// String returns the short tag used in the textual id form.
func (b Backend) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Backend(%d)", uint8(b))
	}
	return backendTags[b]
}

// Name returns the long backend name.
func (b Backend) Name() string {
	if !b.Valid() {
		return b.String()
	}
	return backendNames[b]
}

// GPUTypes returns the matching gputypes backend. The boolean is false for
// backends the HAL registry has no constant for.
func (b Backend) GPUTypes() (gputypes.Backend, bool) {
	switch b {
	case Vulkan:
		return gputypes.BackendVulkan, true
	default:
		var zero gputypes.Backend
		return zero, false
	}
}

// ParseBackend accepts a short tag ("vk") or a long name ("vulkan"),
// case-insensitively.
func ParseBackend(s string) (Backend, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for b := Empty; b < backendCount; b++ {
		if s == backendTags[b] || s == backendNames[b] {
			return b, nil
		}
	}
	return 0, fmt.Errorf("identity: unknown backend %q", s)
}
