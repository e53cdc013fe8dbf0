// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// Bit layout of a packed Id.
const (
	indexBits      = 32
	generationBits = 29
	backendBits    = 3

	generationShift = indexBits
	backendShift    = indexBits + generationBits

	// MaxIndex is the largest index an Id can carry.
	MaxIndex = 1<<indexBits - 1
	// MaxGeneration is the largest generation an Id can carry.
	MaxGeneration = 1<<generationBits - 1
)

// Id identifies one GPU object: an index into the per-kind slot space,
// the generation of that slot and the backend that owns it.
//
// The zero Id never names an object since generations start at 1.
type Id uint64

// Zip packs the three components into an Id. Components out of range
// are truncated to their bit width.
func Zip(index uint32, generation uint32, backend Backend) Id {
	return Id(uint64(index) |
		uint64(generation&MaxGeneration)<<generationShift |
		uint64(backend&(1<<backendBits-1))<<backendShift)
}

// Unzip splits the id into its components.
func (id Id) Unzip() (index uint32, generation uint32, backend Backend) {
	return id.Index(), id.Generation(), id.Backend()
}

func (id Id) Index() uint32 { return uint32(id) }

func (id Id) Generation() uint32 {
	return uint32(uint64(id)>>generationShift) & MaxGeneration
}

func (id Id) Backend() Backend { return Backend(uint64(id) >> backendShift) }

// IsZero reports whether id is the "no id" value.
func (id Id) IsZero() bool { return id == 0 }

// String renders the id as Id(index,generation,tag), e.g. Id(0,1,vk).
func (id Id) String() string {
	return fmt.Sprintf("Id(%d,%d,%s)", id.Index(), id.Generation(), id.Backend())
}

// Parse reads the form produced by [Id.String].
func Parse(s string) (Id, error) {
	body, ok := strings.CutPrefix(strings.TrimSpace(s), "Id(")
	if !ok {
		return 0, fmt.Errorf("identity: parse %q: missing Id( prefix", s)
	}
	body, ok = strings.CutSuffix(body, ")")
	if !ok {
		return 0, fmt.Errorf("identity: parse %q: missing closing paren", s)
	}
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return 0, fmt.Errorf("identity: parse %q: want 3 fields, got %d", s, len(parts))
	}
	index, err := strconv.ParseUint(parts[0], 10, indexBits)
	if err != nil {
		return 0, fmt.Errorf("identity: parse %q: index: %w", s, err)
	}
	gen, err := strconv.ParseUint(parts[1], 10, generationBits)
	if err != nil {
		return 0, fmt.Errorf("identity: parse %q: generation: %w", s, err)
	}
	backend, err := ParseBackend(parts[2])
	if err != nil {
		return 0, fmt.Errorf("identity: parse %q: %w", s, err)
	}
	return Zip(uint32(index), uint32(gen), backend), nil
}
