// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package haldev

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/device"
)

// copyAlign is the queue write granularity.
const copyAlign = 4

func alignUp(n uint64) uint64 { return (n + copyAlign - 1) &^ (copyAlign - 1) }

type buffer struct {
	raw       hal.Buffer
	shadow    []byte // padded to copyAlign
	size      uint64
	usage     gputypes.BufferUsage
	immutable bool
	mapped    bool
}

func (d *Device) destroyBuffer(b *buffer) {
	if b.raw != nil {
		d.device.DestroyBuffer(b.raw)
		b.raw = nil
	}
}

func (d *Device) lookupBuffer(name device.Name) (*buffer, error) {
	b, ok := d.buffers[name]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", device.ErrUnknownName, name)
	}
	return b, nil
}

// BufferStorage implements device.Device.
func (d *Device) BufferStorage(target device.BufferTarget, name device.Name, desc device.BufferStorageDesc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.lookupBuffer(name)
	if err != nil {
		return err
	}
	if b.immutable {
		return fmt.Errorf("%w: buffer %d", device.ErrImmutableStorage, name)
	}
	if desc.Size > d.caps.Limits.MaxBufferSize {
		return fmt.Errorf("%w: size %d exceeds %d", device.ErrOutOfRange, desc.Size, d.caps.Limits.MaxBufferSize)
	}
	if uint64(len(desc.Data)) > desc.Size {
		return fmt.Errorf("%w: %d bytes of data for %d byte buffer", device.ErrOutOfRange, len(desc.Data), desc.Size)
	}

	padded := max(alignUp(desc.Size), copyAlign)
	usage := desc.Usage | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("gpures-%s-%d", target, name),
		Size:  padded,
		Usage: usage,
	})
	if err != nil {
		return fmt.Errorf("haldev: create buffer: %w", err)
	}

	d.destroyBuffer(b)
	b.raw = raw
	b.shadow = make([]byte, padded)
	copy(b.shadow, desc.Data)
	b.size = desc.Size
	b.usage = usage
	b.immutable = desc.Immutable
	b.mapped = false

	if len(desc.Data) > 0 {
		d.queue.WriteBuffer(raw, 0, b.shadow[:alignUp(uint64(len(desc.Data)))])
	}
	return nil
}

// BufferSubData implements device.Device.
func (d *Device) BufferSubData(_ device.BufferTarget, name device.Name, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.lookupBuffer(name)
	if err != nil {
		return err
	}
	end := offset + uint64(len(data))
	if end > b.size {
		return fmt.Errorf("%w: offset %d + %d bytes > size %d", device.ErrOutOfRange, offset, len(data), b.size)
	}
	copy(b.shadow[offset:], data)
	d.flush(b, offset, end)
	return nil
}

// flush writes the aligned span covering [start, end) to the device.
func (d *Device) flush(b *buffer, start, end uint64) {
	if b.raw == nil || start >= end {
		return
	}
	start &^= copyAlign - 1
	end = alignUp(end)
	d.queue.WriteBuffer(b.raw, start, b.shadow[start:end])
}

// MapBuffer implements device.Device. The mapping is the host shadow.
func (d *Device) MapBuffer(_ device.BufferTarget, name device.Name, mode gputypes.MapMode) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.lookupBuffer(name)
	if err != nil {
		return nil, err
	}
	if b.raw == nil {
		return nil, fmt.Errorf("haldev: buffer %d has no storage", name)
	}
	if b.mapped {
		return nil, fmt.Errorf("haldev: buffer %d is already mapped", name)
	}
	b.mapped = true
	device.Logger().Debug("haldev: map buffer", "name", name, "write", mode&gputypes.MapModeWrite != 0)
	return b.shadow[:b.size:b.size], nil
}

// UnmapBuffer implements device.Device. The shadow is written back whole;
// contents are never lost.
func (d *Device) UnmapBuffer(_ device.BufferTarget, name device.Name) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.lookupBuffer(name)
	if err != nil {
		return false, err
	}
	if !b.mapped {
		return false, fmt.Errorf("%w: buffer %d", device.ErrNotMapped, name)
	}
	b.mapped = false
	d.flush(b, 0, b.size)
	return true, nil
}

// BindBuffer implements device.Device.
func (d *Device) BindBuffer(target device.BufferTarget, name device.Name) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name == device.InvalidName {
		delete(d.bufferBindings, target)
		return
	}
	d.bufferBindings[target] = name
}

// BoundBuffer implements device.Device.
func (d *Device) BoundBuffer(target device.BufferTarget) device.Name {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bufferBindings[target]
}

// RawBuffer returns the HAL buffer behind a name, or nil.
func (d *Device) RawBuffer(name device.Name) hal.Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.buffers[name]; ok {
		return b.raw
	}
	return nil
}
