// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/device"
)

type buffer struct {
	data      []byte
	usage     gputypes.BufferUsage
	defined   bool
	immutable bool
	mapped    bool
	mapMode   gputypes.MapMode
}

func (d *Device) lookupBuffer(name device.Name) (*buffer, error) {
	if !d.caps.Has(device.FeatureBufferObjects) {
		return nil, fmt.Errorf("%w: buffer objects", device.ErrUnsupported)
	}
	b, ok := d.buffers[name]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", device.ErrUnknownName, name)
	}
	return b, nil
}

// BufferStorage implements device.Device.
func (d *Device) BufferStorage(target device.BufferTarget, name device.Name, desc device.BufferStorageDesc) error {
	d.record("BufferStorage")
	b, err := d.lookupBuffer(name)
	if err != nil {
		return err
	}
	if desc.Immutable && !d.caps.Has(device.FeatureImmutableBufferStorage) {
		return fmt.Errorf("%w: immutable buffer storage", device.ErrUnsupported)
	}
	if b.immutable {
		return fmt.Errorf("%w: buffer %d", device.ErrImmutableStorage, name)
	}
	if limit := d.caps.Limits.MaxBufferSize; limit > 0 && desc.Size > limit {
		return fmt.Errorf("%w: size %d exceeds %d", device.ErrOutOfRange, desc.Size, limit)
	}
	if uint64(len(desc.Data)) > desc.Size {
		return fmt.Errorf("%w: %d bytes of data for %d byte buffer", device.ErrOutOfRange, len(desc.Data), desc.Size)
	}

	b.data = make([]byte, desc.Size)
	copy(b.data, desc.Data)
	b.usage = desc.Usage
	b.defined = true
	b.immutable = desc.Immutable
	b.mapped = false

	device.Logger().Debug("software: buffer storage",
		"name", name, "target", target.String(), "size", desc.Size, "immutable", desc.Immutable)
	return nil
}

// BufferSubData implements device.Device.
func (d *Device) BufferSubData(_ device.BufferTarget, name device.Name, offset uint64, data []byte) error {
	d.record("BufferSubData")
	b, err := d.lookupBuffer(name)
	if err != nil {
		return err
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("%w: offset %d + %d bytes > size %d",
			device.ErrOutOfRange, offset, len(data), len(b.data))
	}
	copy(b.data[offset:], data)
	return nil
}

// MapBuffer implements device.Device.
func (d *Device) MapBuffer(_ device.BufferTarget, name device.Name, mode gputypes.MapMode) ([]byte, error) {
	d.record("MapBuffer")
	if !d.caps.Has(device.FeatureBufferMapping) {
		return nil, fmt.Errorf("%w: buffer mapping", device.ErrUnsupported)
	}
	b, err := d.lookupBuffer(name)
	if err != nil {
		return nil, err
	}
	if b.mapped {
		return nil, fmt.Errorf("software: buffer %d is already mapped", name)
	}
	if !b.defined {
		return nil, fmt.Errorf("software: buffer %d has no storage", name)
	}
	b.mapped = true
	b.mapMode = mode
	return b.data, nil
}

// UnmapBuffer implements device.Device.
func (d *Device) UnmapBuffer(_ device.BufferTarget, name device.Name) (bool, error) {
	d.record("UnmapBuffer")
	b, err := d.lookupBuffer(name)
	if err != nil {
		return false, err
	}
	if !b.mapped {
		return false, fmt.Errorf("%w: buffer %d", device.ErrNotMapped, name)
	}
	b.mapped = false
	if d.corruptNext {
		d.corruptNext = false
		return false, nil
	}
	return true, nil
}

// BindBuffer implements device.Device.
func (d *Device) BindBuffer(target device.BufferTarget, name device.Name) {
	d.record("BindBuffer")
	if name == device.InvalidName {
		delete(d.bufferBindings, target)
		return
	}
	d.bufferBindings[target] = name
}

// BoundBuffer implements device.Device.
func (d *Device) BoundBuffer(target device.BufferTarget) device.Name {
	d.record("BoundBuffer")
	return d.bufferBindings[target]
}

// BufferData returns a copy of a buffer's device contents.
func (d *Device) BufferData(name device.Name) ([]byte, bool) {
	b, ok := d.buffers[name]
	if !ok || !b.defined {
		return nil, false
	}
	return append([]byte(nil), b.data...), true
}

// BufferUsage returns the usage a buffer's storage was allocated with.
func (d *Device) BufferUsage(name device.Name) gputypes.BufferUsage {
	if b, ok := d.buffers[name]; ok {
		return b.usage
	}
	return 0
}

// BufferImmutable reports whether a buffer has immutable storage.
func (d *Device) BufferImmutable(name device.Name) bool {
	b, ok := d.buffers[name]
	return ok && b.immutable
}
