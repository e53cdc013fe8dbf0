// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
)

// EncoderState is the lifecycle state of a command encoder.
//
//	Recording -> (Begin*Pass)  -> Locked
//	Locked    -> (pass End)    -> Recording
//	Recording -> Finish        -> Finished
//	Finished  -> QueueSubmit   -> Consumed
type EncoderState int

const (
	EncoderStateRecording EncoderState = iota
	EncoderStateLocked
	EncoderStateFinished
	EncoderStateConsumed
	// EncoderStateError is entered when a HAL call fails mid-recording.
	EncoderStateError
)

func (s EncoderState) String() string {
	switch s {
	case EncoderStateRecording:
		return "Recording"
	case EncoderStateLocked:
		return "Locked"
	case EncoderStateFinished:
		return "Finished"
	case EncoderStateConsumed:
		return "Consumed"
	case EncoderStateError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

type commandEncoder struct {
	deviceRef
	label string
	raw   hal.CommandEncoder
	state EncoderState
	// cmd is set once the encoder is finished.
	cmd hal.CommandBuffer
}

// recording returns nil if the encoder accepts new commands.
func (e *commandEncoder) recording() error {
	switch e.state {
	case EncoderStateRecording:
		return nil
	case EncoderStateLocked:
		return ErrEncoderLocked
	case EncoderStateFinished:
		return ErrEncoderFinished
	case EncoderStateConsumed:
		return ErrEncoderConsumed
	default:
		return ErrEncoderNotRecording
	}
}

func (e *commandEncoder) release(d hal.Device) {
	switch e.state {
	case EncoderStateRecording, EncoderStateLocked:
		e.raw.DiscardEncoding()
	case EncoderStateFinished:
		d.FreeCommandBuffer(e.cmd)
	}
}

// DeviceCreateCommandEncoder creates a command encoder under id, ready to
// record.
func (g *Global) DeviceCreateCommandEncoder(deviceID identity.Id, desc *CommandEncoderDescriptor, id identity.Id) (identity.Id, error) {
	return create(g, g.commandEncoders, id, func() (*commandEncoder, error) {
		d, err := g.deviceFor(deviceID, id)
		if err != nil {
			return nil, err
		}
		if desc == nil {
			desc = &CommandEncoderDescriptor{}
		}
		raw, err := d.raw.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: desc.Label})
		if err != nil {
			return nil, err
		}
		if err := raw.BeginEncoding(desc.Label); err != nil {
			return nil, fmt.Errorf("begin encoding: %w", err)
		}
		return &commandEncoder{deviceRef: deviceRef{deviceID}, label: desc.Label, raw: raw}, nil
	})
}

// CommandEncoderState reports the state of an encoder.
func (g *Global) CommandEncoderState(id identity.Id) (EncoderState, error) {
	e, err := g.commandEncoders.get(id)
	if err != nil {
		return EncoderStateError, err
	}
	return e.state, nil
}

// CommandEncoderFinish ends recording. The resulting command buffer is
// addressed by the encoder's id.
func (g *Global) CommandEncoderFinish(id identity.Id) (identity.Id, error) {
	e, err := g.commandEncoders.get(id)
	if err != nil {
		return id, err
	}
	if err := e.recording(); err != nil {
		return id, &ResourceError{Kind: hub.CommandEncoder, ID: id, Err: err}
	}
	cmd, err := e.raw.EndEncoding()
	if err != nil {
		e.state = EncoderStateError
		return id, &ResourceError{Kind: hub.CommandEncoder, ID: id, Err: fmt.Errorf("end encoding %q: %w", e.label, err)}
	}
	e.cmd = cmd
	e.state = EncoderStateFinished
	g.logger().Debug("driver: encoder finished", "global", g.name, "id", id.String(), "label", e.label)
	return id, nil
}

// CommandEncoderDrop releases an encoder or the command buffer it produced.
func (g *Global) CommandEncoderDrop(id identity.Id) error {
	e, valid, err := g.commandEncoders.remove(id)
	if err != nil || !valid {
		return err
	}
	g.withDevice(e.device, func(d *device) { e.release(d.raw) })
	return nil
}

// encoderForPass locks the encoder for a new pass.
func (g *Global) encoderForPass(id identity.Id) (*commandEncoder, error) {
	e, err := g.commandEncoders.get(id)
	if err != nil {
		return nil, err
	}
	if err := e.recording(); err != nil {
		return nil, &ResourceError{Kind: hub.CommandEncoder, ID: id, Err: err}
	}
	return e, nil
}
