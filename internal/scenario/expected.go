// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenario

import (
	"fmt"

	"github.com/gogpu/gpuid/identity"
)

// expected lists the label and index of every step. All generations are 1.
var expected = []struct {
	label string
	index uint32
}{
	{"adapter", 0},
	{"device", 0},
	{"bind group layout 0", 0},
	{"bind group layout 1", 1},
	{"pipeline layout 0", 0},
	{"implicit bind group layout 0", 2},
	{"implicit bind group layout 1", 3},
	{"implicit bind group layout 2", 4},
	{"implicit bind group layout 3", 5},
	{"implicit pipeline layout", 1},
	{"vertex shader", 0},
	{"fragment shader", 1},
	{"render pipeline", 0},
	{"implicit bind group layout 0", 6},
	{"implicit bind group layout 1", 7},
	{"implicit bind group layout 2", 8},
	{"implicit bind group layout 3", 9},
	{"implicit pipeline layout", 2},
	{"vertex shader", 2},
	{"fragment shader", 3},
	{"render pipeline", 1},
	{"vertex shader", 4},
	{"fragment shader", 5},
	{"render pipeline", 2},
	{"buffer", 0},
	{"bind group 0", 0},
	{"bind group 1", 1},
	{"bind group 2", 2},
	{"bind group 3", 3},
	{"command encoder", 0},
	{"texture", 0},
	{"texture view", 0},
	{"command buffer", 0},
}

// Expected returns the steps a complete replay on a fresh hub produces for
// backend.
func Expected(backend identity.Backend) []Step {
	steps := make([]Step, len(expected))
	for i, e := range expected {
		steps[i] = Step{Label: e.label, ID: identity.Zip(e.index, 1, backend)}
	}
	return steps
}

// Verify compares got against Expected(backend) and reports the first
// difference.
func Verify(got []Step, backend identity.Backend) error {
	want := Expected(backend)
	for i := range min(len(got), len(want)) {
		if got[i] != want[i] {
			return fmt.Errorf("scenario: step %d: got %s, want %s", i, got[i], want[i])
		}
	}
	if len(got) != len(want) {
		return fmt.Errorf("scenario: got %d steps, want %d", len(got), len(want))
	}
	return nil
}
