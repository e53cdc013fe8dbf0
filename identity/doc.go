// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package identity provides the packed GPU object identifier and the
// per-kind registry that hands identifiers out.
//
// An [Id] is a 64-bit value of the form (index, generation, backend):
//
//	bits  0..31  index
//	bits 32..60  generation
//	bits 61..63  backend
//
// and renders as Id(0,1,vk). A [Registry] keeps one index space per
// [Backend]; the first id it returns for a backend is Id(0,1,<tag>).
package identity
