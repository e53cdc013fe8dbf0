// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
)

// Acquisition errors.
var (
	// ErrNoAdapter is returned when no backend in the id set yields an adapter.
	ErrNoAdapter = errors.New("driver: no suitable adapter")

	// ErrBackendUnavailable is returned when no HAL provider serves a backend.
	ErrBackendUnavailable = errors.New("driver: backend unavailable")
)

// Creation errors.
var (
	// ErrMissingID is returned when a creation call receives the zero id.
	ErrMissingID = errors.New("driver: missing id")

	// ErrIDInUse is returned when the id is already registered.
	ErrIDInUse = errors.New("driver: id already in use")

	// ErrBackendMismatch is returned when an id belongs to another backend
	// than the device it is used with.
	ErrBackendMismatch = errors.New("driver: backend mismatch")

	// ErrDeviceMismatch is returned when objects of different devices are mixed.
	ErrDeviceMismatch = errors.New("driver: object belongs to another device")

	// ErrInvalidDescriptor is returned when a descriptor fails validation.
	ErrInvalidDescriptor = errors.New("driver: invalid descriptor")

	// ErrShaderCompile is returned when WGSL source cannot be parsed.
	ErrShaderCompile = errors.New("driver: shader compilation failed")

	// ErrEntryPointNotFound is returned when a stage's entry point cannot be resolved.
	ErrEntryPointNotFound = errors.New("driver: entry point not found")

	// ErrBindingMismatch is returned when a shader binding is not satisfied
	// by the pipeline layout.
	ErrBindingMismatch = errors.New("driver: shader binding does not match layout")

	// ErrImplicitIDs is returned when implicit layout ids are missing,
	// insufficient, or supplied together with an explicit layout.
	ErrImplicitIDs = errors.New("driver: bad implicit pipeline ids")
)

// Usage errors.
var (
	// ErrUnknownResource is returned for ids that were never registered.
	ErrUnknownResource = errors.New("driver: unknown resource")

	// ErrInvalidResource is returned for ids whose creation failed.
	ErrInvalidResource = errors.New("driver: invalid resource")

	// ErrDestroyedResource is returned for ids that were dropped.
	ErrDestroyedResource = errors.New("driver: resource destroyed")

	// ErrEncoderNotRecording is returned when recording on an encoder that
	// is not in the Recording state.
	ErrEncoderNotRecording = errors.New("driver: encoder not in recording state")

	// ErrEncoderLocked is returned when an encoder has a pass in progress.
	ErrEncoderLocked = errors.New("driver: encoder is locked (pass in progress)")

	// ErrEncoderFinished is returned when an encoder was already finished.
	ErrEncoderFinished = errors.New("driver: encoder already finished")

	// ErrEncoderConsumed is returned when an encoder was already submitted.
	ErrEncoderConsumed = errors.New("driver: encoder has been consumed")

	// ErrPassEnded is returned when recording on an ended pass.
	ErrPassEnded = errors.New("driver: pass has already ended")

	// ErrNoPipeline is returned by draw or dispatch without a pipeline set.
	ErrNoPipeline = errors.New("driver: no pipeline set")

	// ErrIncompatibleBindGroup is returned when a bound group does not match
	// the pipeline layout.
	ErrIncompatibleBindGroup = errors.New("driver: incompatible bind group")

	// ErrBindGroupIndexOutOfRange is returned for bind group indices >= 4.
	ErrBindGroupIndexOutOfRange = errors.New("driver: bind group index exceeds maximum (3)")

	// ErrSubmitTimeout is returned when the queue does not signal in time.
	ErrSubmitTimeout = errors.New("driver: submission timed out")
)

// CreateError reports a failed creation call. ID is the caller-supplied id,
// which the call also returns.
type CreateError struct {
	Kind hub.Kind
	ID   identity.Id
	Err  error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("driver: create %s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// ResourceError reports a lookup of an id that cannot be used.
type ResourceError struct {
	Kind hub.Kind
	ID   identity.Id
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDescriptor, fmt.Sprintf(format, args...))
}
