// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"log/slog"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid/identity"
)

// Provider creates HAL instances for one backend. Both hal.Backend values
// from the HAL registry and noop.API satisfy it.
type Provider interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Option configures a Global during creation.
//
// Example:
//
//	// Serve Vulkan-tagged ids with the noop HAL.
//	g := driver.New(driver.WithProvider(identity.Vulkan, &noop.API{}))
type Option func(*options)

type options struct {
	name      string
	providers map[identity.Backend]Provider
	logger    *slog.Logger

	shaderCache int
}

func defaultOptions() options {
	return options{
		providers:   make(map[identity.Backend]Provider),
		shaderCache: 64,
	}
}

// WithName sets the name used in log records. By default a unique name is
// generated.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithProvider serves ids tagged with backend using p. Without one, the
// driver falls back to the HAL registry for backends it knows.
func WithProvider(backend identity.Backend, p Provider) Option {
	return func(o *options) {
		o.providers[backend] = p
	}
}

// WithLogger overrides the package logger for this Global only.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithShaderCache bounds the number of parsed WGSL sources kept for reuse
// across shader modules. Zero keeps every source.
func WithShaderCache(n int) Option {
	return func(o *options) {
		o.shaderCache = n
	}
}
