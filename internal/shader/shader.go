// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader parses WGSL with naga and reports the resource bindings
// and entry points a module declares.
package shader

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/wgsl"
)

// ErrEntryPoint is returned when an entry point cannot be resolved.
var ErrEntryPoint = errors.New("shader: entry point not found")

// Stage is a pipeline stage an entry point runs in.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// Class is the kind of resource a global binding refers to.
type Class uint8

const (
	ClassUniform Class = iota
	ClassStorage
	// ClassHandle covers textures and samplers.
	ClassHandle
)

func (c Class) String() string {
	switch c {
	case ClassUniform:
		return "uniform"
	case ClassStorage:
		return "storage"
	case ClassHandle:
		return "handle"
	default:
		return fmt.Sprintf("Class(%d)", uint8(c))
	}
}

// Binding is one @group/@binding global of a module.
type Binding struct {
	Group   uint32
	Binding uint32
	Name    string
	Class   Class
}

// EntryPoint is a function callable from a pipeline stage.
type EntryPoint struct {
	Name      string
	Stage     Stage
	Workgroup [3]uint32
}

// Module is the reflected interface of a WGSL module.
type Module struct {
	// Bindings are sorted by group, then binding.
	Bindings    []Binding
	EntryPoints []EntryPoint
}

// Parse lexes, parses and lowers src.
func Parse(src string) (*Module, error) {
	tokens, err := wgsl.NewLexer(src).Tokenize()
	if err != nil {
		return nil, fmt.Errorf("shader: tokenize: %w", err)
	}
	ast, err := wgsl.NewParser(tokens).Parse()
	if err != nil {
		return nil, fmt.Errorf("shader: parse: %w", err)
	}
	lowered, err := wgsl.Lower(ast)
	if err != nil {
		return nil, fmt.Errorf("shader: lower: %w", err)
	}

	m := &Module{}
	for _, gv := range lowered.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		var class Class
		switch gv.Space {
		case ir.SpaceUniform:
			class = ClassUniform
		case ir.SpaceStorage:
			class = ClassStorage
		case ir.SpaceHandle:
			class = ClassHandle
		default:
			continue
		}
		m.Bindings = append(m.Bindings, Binding{
			Group:   uint32(gv.Binding.Group),
			Binding: uint32(gv.Binding.Binding),
			Name:    gv.Name,
			Class:   class,
		})
	}
	sort.Slice(m.Bindings, func(i, j int) bool {
		a, b := m.Bindings[i], m.Bindings[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Binding < b.Binding
	})

	for _, ep := range lowered.EntryPoints {
		var stage Stage
		switch ep.Stage {
		case ir.StageVertex:
			stage = StageVertex
		case ir.StageFragment:
			stage = StageFragment
		case ir.StageCompute:
			stage = StageCompute
		default:
			continue
		}
		m.EntryPoints = append(m.EntryPoints, EntryPoint{
			Name:      ep.Name,
			Stage:     stage,
			Workgroup: ep.Workgroup,
		})
	}
	return m, nil
}

// EntryPoint resolves the entry point for stage. An empty name selects the
// module's only entry point for that stage; it is an error if there are
// none or several.
func (m *Module) EntryPoint(name string, stage Stage) (EntryPoint, error) {
	var found []EntryPoint
	for _, ep := range m.EntryPoints {
		if ep.Stage != stage {
			continue
		}
		if name == "" || ep.Name == name {
			found = append(found, ep)
		}
	}
	switch {
	case len(found) == 1:
		return found[0], nil
	case len(found) == 0 && name == "":
		return EntryPoint{}, fmt.Errorf("%w: no %s entry point", ErrEntryPoint, stage)
	case len(found) == 0:
		return EntryPoint{}, fmt.Errorf("%w: no %s entry point %q", ErrEntryPoint, stage, name)
	default:
		return EntryPoint{}, fmt.Errorf("%w: %d %s entry points, name one", ErrEntryPoint, len(found), stage)
	}
}

// MaxGroup returns the highest group index referenced by bindings, or -1
// when there are none.
func MaxGroup(bindings ...[]Binding) int {
	maxGroup := -1
	for _, bs := range bindings {
		for _, b := range bs {
			if int(b.Group) > maxGroup {
				maxGroup = int(b.Group)
			}
		}
	}
	return maxGroup
}
