// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"

	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
)

type entryState uint8

const (
	entryValid entryState = iota
	entryInvalid
	entryDestroyed
)

type element[T any] struct {
	value T
	err   error
	state entryState
}

// storage maps ids of one kind to driver objects. Failed creations stay
// registered as invalid entries so later uses report the original cause.
type storage[T any] struct {
	kind    hub.Kind
	entries map[identity.Id]*element[T]
}

func newStorage[T any](kind hub.Kind) *storage[T] {
	return &storage[T]{kind: kind, entries: make(map[identity.Id]*element[T])}
}

// vacant checks that id can be registered.
func (s *storage[T]) vacant(id identity.Id) error {
	if id.IsZero() {
		return ErrMissingID
	}
	if _, ok := s.entries[id]; ok {
		return ErrIDInUse
	}
	return nil
}

func (s *storage[T]) insert(id identity.Id, v T) {
	s.entries[id] = &element[T]{value: v}
}

func (s *storage[T]) insertError(id identity.Id, err error) {
	s.entries[id] = &element[T]{err: err, state: entryInvalid}
}

func (s *storage[T]) get(id identity.Id) (T, error) {
	var zero T
	e, ok := s.entries[id]
	if !ok {
		return zero, &ResourceError{Kind: s.kind, ID: id, Err: ErrUnknownResource}
	}
	switch e.state {
	case entryInvalid:
		return zero, &ResourceError{Kind: s.kind, ID: id, Err: fmt.Errorf("%w: %w", ErrInvalidResource, e.err)}
	case entryDestroyed:
		return zero, &ResourceError{Kind: s.kind, ID: id, Err: ErrDestroyedResource}
	}
	return e.value, nil
}

// remove tombstones id and returns the value it held. Invalid entries are
// tombstoned too and yield the zero value with a nil error.
func (s *storage[T]) remove(id identity.Id) (T, bool, error) {
	var zero T
	e, ok := s.entries[id]
	if !ok {
		return zero, false, &ResourceError{Kind: s.kind, ID: id, Err: ErrUnknownResource}
	}
	if e.state == entryDestroyed {
		return zero, false, &ResourceError{Kind: s.kind, ID: id, Err: ErrDestroyedResource}
	}
	valid := e.state == entryValid
	v := e.value
	*e = element[T]{state: entryDestroyed}
	return v, valid, nil
}

func (s *storage[T]) clear() {
	clear(s.entries)
}
