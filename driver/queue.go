// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuid/hub"
	"github.com/gogpu/gpuid/identity"
)

// submitTimeout bounds the wait for a submission to complete.
const submitTimeout = 5 * time.Second

// QueueWriteBuffer copies data into a buffer through the queue of queueID
// (the device id).
func (g *Global) QueueWriteBuffer(queueID, bufferID identity.Id, offset uint64, data []byte) error {
	d, err := g.devices.get(queueID)
	if err != nil {
		return err
	}
	b, err := g.buffers.get(bufferID)
	if err != nil {
		return err
	}
	if err := sameDevice(hub.Buffer, bufferID, b.device, queueID); err != nil {
		return err
	}
	switch {
	case b.usage&gputypes.BufferUsageCopyDst == 0:
		return invalidf("write buffer %s: missing CopyDst usage", bufferID)
	case offset%4 != 0 || len(data)%4 != 0:
		return invalidf("write buffer %s: offset %d and size %d must be 4-byte aligned", bufferID, offset, len(data))
	case offset > b.size || uint64(len(data)) > b.size-offset:
		return invalidf("write buffer %s: range %d+%d exceeds size %d", bufferID, offset, len(data), b.size)
	}
	if err := d.queue.WriteBuffer(b.raw, offset, data); err != nil {
		return fmt.Errorf("write buffer %s: %w", bufferID, err)
	}
	return nil
}

// QueueSubmit submits finished command buffers to the queue of queueID
// (the device id) and waits for completion. Every buffer is consumed; none
// is submitted if any is not finished or appears twice.
func (g *Global) QueueSubmit(queueID identity.Id, commandBuffers []identity.Id) error {
	d, err := g.devices.get(queueID)
	if err != nil {
		return err
	}
	encoders := make([]*commandEncoder, len(commandBuffers))
	cmds := make([]hal.CommandBuffer, len(commandBuffers))
	seen := make(map[identity.Id]bool, len(commandBuffers))
	for i, id := range commandBuffers {
		e, err := g.commandEncoders.get(id)
		if err != nil {
			return err
		}
		if err := sameDevice(hub.CommandEncoder, id, e.device, queueID); err != nil {
			return err
		}
		if seen[id] {
			return &ResourceError{Kind: hub.CommandEncoder, ID: id, Err: fmt.Errorf("%w: listed twice", ErrEncoderConsumed)}
		}
		seen[id] = true
		switch e.state {
		case EncoderStateFinished:
		case EncoderStateConsumed:
			return &ResourceError{Kind: hub.CommandEncoder, ID: id, Err: ErrEncoderConsumed}
		default:
			return &ResourceError{Kind: hub.CommandEncoder, ID: id, Err: fmt.Errorf("%w: %s", ErrEncoderNotRecording, e.state)}
		}
		encoders[i] = e
		cmds[i] = e.cmd
	}
	if len(cmds) == 0 {
		return nil
	}

	index, err := d.queue.Submit(cmds)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	for _, e := range encoders {
		e.state = EncoderStateConsumed
	}
	if err := waitSubmission(d.queue, index, submitTimeout); err != nil {
		return err
	}
	for _, e := range encoders {
		d.raw.FreeCommandBuffer(e.cmd)
		e.cmd = nil
	}
	g.logger().Debug("driver: submitted", "global", g.name, "queue", queueID.String(), "buffers", len(cmds), "index", index)
	return nil
}

// waitSubmission polls q until submission index has completed or timeout
// has passed.
func waitSubmission(q hal.Queue, index uint64, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for q.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d", ErrSubmitTimeout, index)
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}
