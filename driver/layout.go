// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpuid/internal/shader"
)

func addVisibility(e *gputypes.BindGroupLayoutEntry, s shader.Stage) {
	switch s {
	case shader.StageVertex:
		e.Visibility |= gputypes.ShaderStageVertex
	case shader.StageFragment:
		e.Visibility |= gputypes.ShaderStageFragment
	case shader.StageCompute:
		e.Visibility |= gputypes.ShaderStageCompute
	}
}

func visibleIn(e gputypes.BindGroupLayoutEntry, s shader.Stage) bool {
	switch s {
	case shader.StageVertex:
		return e.Visibility&gputypes.ShaderStageVertex != 0
	case shader.StageFragment:
		return e.Visibility&gputypes.ShaderStageFragment != 0
	case shader.StageCompute:
		return e.Visibility&gputypes.ShaderStageCompute != 0
	}
	return false
}

// deriveGroups builds the bind group layout entries implied by the
// bindings of uses. The result has one slot per group index up to the
// highest group referenced; groups no stage references are empty.
func deriveGroups(uses []stageUse) ([][]gputypes.BindGroupLayoutEntry, error) {
	var all [][]shader.Binding
	for _, u := range uses {
		all = append(all, u.module.reflect.Bindings)
	}
	maxGroup := shader.MaxGroup(all...)
	if maxGroup >= MaxBindGroups {
		return nil, fmt.Errorf("%w: group %d exceeds maximum %d", ErrBindingMismatch, maxGroup, MaxBindGroups-1)
	}
	groups := make([][]gputypes.BindGroupLayoutEntry, maxGroup+1)

	for _, u := range uses {
		for _, b := range u.module.reflect.Bindings {
			if b.Class == shader.ClassHandle {
				return nil, fmt.Errorf("%w: %s binding %q (group %d, binding %d) needs an explicit layout",
					ErrBindingMismatch, b.Class, b.Name, b.Group, b.Binding)
			}
			typ := gputypes.BufferBindingTypeUniform
			if b.Class == shader.ClassStorage {
				typ = gputypes.BufferBindingTypeStorage
			}

			entries := groups[b.Group]
			found := -1
			for i := range entries {
				if entries[i].Binding == b.Binding {
					found = i
					break
				}
			}
			if found < 0 {
				entries = append(entries, gputypes.BindGroupLayoutEntry{
					Binding: b.Binding,
					Buffer:  &gputypes.BufferBindingLayout{Type: typ},
				})
				found = len(entries) - 1
			} else if entries[found].Buffer.Type != typ {
				return nil, fmt.Errorf("%w: group %d binding %d used as both %v and %v",
					ErrBindingMismatch, b.Group, b.Binding, entries[found].Buffer.Type, typ)
			}
			addVisibility(&entries[found], u.entry.Stage)
			groups[b.Group] = entries
		}
	}
	return groups, nil
}

// checkLayout verifies that every binding the stages use is provided by
// layout with a matching type and stage visibility.
func checkLayout(layout *pipelineLayout, uses []stageUse) error {
	for _, u := range uses {
		for _, b := range u.module.reflect.Bindings {
			if int(b.Group) >= len(layout.layouts) {
				return fmt.Errorf("%w: %q uses group %d, layout has %d groups",
					ErrBindingMismatch, b.Name, b.Group, len(layout.layouts))
			}
			le, ok := layout.layouts[b.Group].entry(b.Binding)
			if !ok {
				return fmt.Errorf("%w: %q: group %d has no binding %d", ErrBindingMismatch, b.Name, b.Group, b.Binding)
			}
			if !visibleIn(le, u.entry.Stage) {
				return fmt.Errorf("%w: %q: group %d binding %d not visible to %s stage",
					ErrBindingMismatch, b.Name, b.Group, b.Binding, u.entry.Stage)
			}
			if err := matchClass(le, b); err != nil {
				return err
			}
		}
	}
	return nil
}

func matchClass(le gputypes.BindGroupLayoutEntry, b shader.Binding) error {
	switch b.Class {
	case shader.ClassUniform:
		if le.Buffer != nil && le.Buffer.Type == gputypes.BufferBindingTypeUniform {
			return nil
		}
	case shader.ClassStorage:
		if le.Buffer != nil && (le.Buffer.Type == gputypes.BufferBindingTypeStorage ||
			le.Buffer.Type == gputypes.BufferBindingTypeReadOnlyStorage) {
			return nil
		}
	case shader.ClassHandle:
		if le.Buffer == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (group %d binding %d) is %s, layout disagrees",
		ErrBindingMismatch, b.Name, b.Group, b.Binding, b.Class)
}
