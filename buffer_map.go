// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/device"
)

// Map exposes the CPU mirror for direct access. End the mapping with
// Unmap.
func (b *Buffer) Map() error {
	if b.state == StateDisposed {
		return b.errDisposed("map")
	}
	if b.path != mapNone {
		return fmt.Errorf("%w: %s", ErrAlreadyMapped, b.id)
	}
	if b.cpu == nil {
		return fmt.Errorf("%w: map %s", ErrNoCPUStorage, b.id)
	}
	b.mapped, b.path = b.cpu.Bytes(), mapHost
	return nil
}

// Unmap ends a mapping established by Map.
func (b *Buffer) Unmap() error {
	switch b.path {
	case mapNone:
		return fmt.Errorf("%w: %s", ErrNotMapped, b.id)
	case mapHost:
		b.mapped, b.path = nil, mapNone
		return nil
	default:
		return fmt.Errorf("%w: %s was mapped with MapDevice", ErrWrongUnmapPath, b.id)
	}
}

// MapDevice exposes the device storage in ctx for direct access. With
// native mapping the device maps the buffer; without buffer objects the
// simulated storage is exposed; with buffer objects but no mapping the CPU
// mirror is exposed and written to the device by UnmapDevice.
func (b *Buffer) MapDevice(ctx device.Context, mode gputypes.MapMode) error {
	if err := b.checkCurrent(ctx, "map buffer"); err != nil {
		return err
	}
	if !b.defined {
		return fmt.Errorf("%w: %s has no device storage", ErrNotCreated, b.id)
	}
	if b.path != mapNone {
		return fmt.Errorf("%w: %s", ErrAlreadyMapped, b.id)
	}
	if b.corrupted {
		return fmt.Errorf("%w: %s must be redefined", ErrCorruptedBuffer, b.id)
	}

	dev := ctx.Device()
	caps := dev.Caps()
	switch {
	case b.sim != nil:
		b.mapped, b.path = b.sim.Bytes(), mapSimulated
	case caps.Has(device.FeatureBufferMapping):
		dev.BindBuffer(b.target, b.id.name)
		data, err := dev.MapBuffer(b.target, b.id.name, mode)
		if err != nil {
			return fmt.Errorf("gpures: map %s: %w", b.id, err)
		}
		b.mapped, b.path = data, mapDevice
	case b.cpu != nil:
		b.mapped, b.path = b.cpu.Bytes(), mapStaged
	default:
		return fmt.Errorf("%w: buffer mapping without a CPU mirror", ErrUnsupportedCapability)
	}
	Logger().Debug("gpures: buffer mapped",
		"name", b.id.name, "mode", uint32(mode), "label", b.label)
	return nil
}

// UnmapDevice ends a mapping established by MapDevice. When the device
// reports the contents were lost, the buffer needs redefinition and
// ErrCorruptedBuffer is returned.
func (b *Buffer) UnmapDevice(ctx device.Context) error {
	switch b.path {
	case mapNone:
		return fmt.Errorf("%w: %s", ErrNotMapped, b.id)
	case mapHost:
		return fmt.Errorf("%w: %s was mapped with Map", ErrWrongUnmapPath, b.id)
	}
	if err := b.checkCurrent(ctx, "unmap buffer"); err != nil {
		return err
	}

	path := b.path
	b.mapped, b.path = nil, mapNone
	dev := ctx.Device()
	switch path {
	case mapDevice:
		intact, err := dev.UnmapBuffer(b.target, b.id.name)
		if err != nil {
			return fmt.Errorf("gpures: unmap %s: %w", b.id, err)
		}
		if !intact {
			b.corrupted = true
			Logger().Warn("gpures: buffer corrupted while mapped", "name", b.id.name, "label", b.label)
			return fmt.Errorf("%w: %s", ErrCorruptedBuffer, b.id)
		}
	case mapStaged:
		mirror := b.cpu.Bytes()[:min(uint64(b.cpu.Size()), b.size)]
		if err := dev.BufferSubData(b.target, b.id.name, 0, mirror); err != nil {
			return fmt.Errorf("gpures: write back %s: %w", b.id, err)
		}
	}
	return nil
}

// IsMapped reports whether the buffer is mapped through either form.
func (b *Buffer) IsMapped() bool { return b.path != mapNone }

// Mapped returns the mapped bytes, or nil. The slice is valid until the
// mapping ends.
func (b *Buffer) Mapped() []byte { return b.mapped }

// Set writes v at byte offset off of the mapped buffer.
//
// Set is unchecked: the caller guarantees off+unsafe.Sizeof(v) does not
// exceed the mapping and that T holds no Go pointers. Only the mapped state
// is verified.
func Set[T any](b *Buffer, v T, off uintptr) error {
	if b.mapped == nil {
		return fmt.Errorf("%w: set on %s", ErrNotMapped, b.id)
	}
	p := unsafe.Add(unsafe.Pointer(unsafe.SliceData(b.mapped)), off)
	n := unsafe.Sizeof(v)
	copy(unsafe.Slice((*byte)(p), n), unsafe.Slice((*byte)(unsafe.Pointer(&v)), n))
	return nil
}

// SetSlice writes vs contiguously from byte offset off of the mapped
// buffer. The contract of Set applies to the whole slice.
func SetSlice[T any](b *Buffer, vs []T, off uintptr) error {
	if b.mapped == nil {
		return fmt.Errorf("%w: set on %s", ErrNotMapped, b.id)
	}
	if len(vs) == 0 {
		return nil
	}
	p := unsafe.Add(unsafe.Pointer(unsafe.SliceData(b.mapped)), off)
	n := uintptr(len(vs)) * unsafe.Sizeof(vs[0])
	copy(unsafe.Slice((*byte)(p), n), unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(vs))), n))
	return nil
}

// Get reads a T at byte offset off of the mapped buffer. The contract of
// Set applies.
func Get[T any](b *Buffer, off uintptr) (T, error) {
	var v T
	if b.mapped == nil {
		return v, fmt.Errorf("%w: get on %s", ErrNotMapped, b.id)
	}
	p := unsafe.Add(unsafe.Pointer(unsafe.SliceData(b.mapped)), off)
	n := unsafe.Sizeof(v)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), n), unsafe.Slice((*byte)(p), n))
	return v, nil
}
