// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/device"
	"github.com/gogpu/gpures/internal/aligned"
)

// UsageHint describes how often buffer contents change and who reads them.
type UsageHint uint8

// Usage hints.
const (
	HintStaticDraw UsageHint = iota
	HintStaticRead
	HintStaticCopy
	HintDynamicDraw
	HintDynamicRead
	HintDynamicCopy
	HintStreamDraw
	HintStreamRead
	HintStreamCopy
)

var hintNames = [...]string{
	"static-draw", "static-read", "static-copy",
	"dynamic-draw", "dynamic-read", "dynamic-copy",
	"stream-draw", "stream-read", "stream-copy",
}

// String returns the hint name.
func (h UsageHint) String() string {
	if int(h) < len(hintNames) {
		return hintNames[h]
	}
	return fmt.Sprintf("UsageHint(%d)", h)
}

func (h UsageHint) reads() bool {
	return h == HintStaticRead || h == HintDynamicRead || h == HintStreamRead
}

func (h UsageHint) writes() bool {
	return h == HintDynamicDraw || h == HintStreamDraw
}

// usageFor derives the capability mask of a mutable buffer.
func usageFor(target device.BufferTarget, h UsageHint) gputypes.BufferUsage {
	u := target.Usage() | gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	switch {
	case h.reads():
		u |= gputypes.BufferUsageMapRead
	case h.writes():
		u |= gputypes.BufferUsageMapWrite
	}
	return u
}

// hintFor derives a representative hint from an explicit mask.
func hintFor(u gputypes.BufferUsage) UsageHint {
	switch {
	case u.Contains(gputypes.BufferUsageMapRead):
		return HintDynamicRead
	case u.Contains(gputypes.BufferUsageMapWrite):
		return HintDynamicDraw
	default:
		return HintStaticDraw
	}
}

type mapPath uint8

const (
	mapNone mapPath = iota
	mapHost
	mapDevice
	mapSimulated
	mapStaged
)

// Buffer is a device buffer with an optional CPU mirror.
//
// Without buffer objects on the device the buffer gets a fake name and
// lives in simulated device storage on the host.
type Buffer struct {
	Resource

	target    device.BufferTarget
	hint      UsageHint
	usage     gputypes.BufferUsage
	immutable bool
	size      uint64

	cpu *aligned.Storage
	sim *aligned.Storage

	defined   bool
	corrupted bool

	mapped []byte
	path   mapPath
}

// NewBuffer returns a mutable buffer. The capability mask is derived from
// the hint.
func NewBuffer(target device.BufferTarget, hint UsageHint) *Buffer {
	b := &Buffer{target: target, hint: hint, usage: usageFor(target, hint)}
	b.setup(device.ClassBuffer, b)
	return b
}

// NewImmutableBuffer returns a buffer whose storage can be defined once,
// with an explicit capability mask.
func NewImmutableBuffer(target device.BufferTarget, usage gputypes.BufferUsage) *Buffer {
	b := &Buffer{
		target:    target,
		hint:      hintFor(usage),
		usage:     usage | target.Usage(),
		immutable: true,
	}
	b.setup(device.ClassBuffer, b)
	return b
}

// Target returns the buffer target.
func (b *Buffer) Target() device.BufferTarget { return b.target }

// Hint returns the usage hint.
func (b *Buffer) Hint() UsageHint { return b.hint }

// Usage returns the capability mask.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.usage }

// Immutable reports whether the storage can be defined only once.
func (b *Buffer) Immutable() bool { return b.immutable }

// Size returns the size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Defined reports whether device storage is defined.
func (b *Buffer) Defined() bool { return b.defined }

// NeedsRedefine reports whether the contents were lost while mapped.
func (b *Buffer) NeedsRedefine() bool { return b.corrupted }

// Allocate records the size to allocate at creation. No device call is
// made.
func (b *Buffer) Allocate(size uint64) error {
	if b.state == StateDisposed {
		return b.errDisposed("allocate")
	}
	if size == 0 {
		return fmt.Errorf("%w: buffer size is zero", ErrInvalidArgument)
	}
	if b.immutable && b.defined {
		return fmt.Errorf("%w: %s", ErrAlreadyDefined, b.id)
	}
	b.size = size
	b.configured()
	return nil
}

// AllocateCPUMirror replaces the CPU mirror with a zeroed block of size
// bytes.
func (b *Buffer) AllocateCPUMirror(size uint64) error {
	if b.state == StateDisposed {
		return b.errDisposed("allocate CPU mirror")
	}
	if size == 0 {
		return fmt.Errorf("%w: mirror size is zero", ErrInvalidArgument)
	}
	if b.path == mapHost || b.path == mapStaged {
		return fmt.Errorf("%w: CPU mirror is mapped", ErrAlreadyMapped)
	}
	st, err := aligned.New(int(size), 0) //nolint:gosec // sizes are bounded by device limits
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	b.releaseMirror()
	b.cpu = st
	if b.size == 0 {
		b.size = size
	}
	b.configured()
	return nil
}

// ReleaseCPUMirror frees the CPU mirror. It is safe to call without one.
// A mirror exposed by Map or by a staged MapDevice cannot be released until
// the mapping ends.
func (b *Buffer) ReleaseCPUMirror() error {
	if b.path == mapHost || b.path == mapStaged {
		return fmt.Errorf("%w: CPU mirror of %s is mapped", ErrAlreadyMapped, b.id)
	}
	b.releaseMirror()
	return nil
}

func (b *Buffer) releaseMirror() {
	if b.cpu == nil {
		return
	}
	if b.sim != b.cpu {
		b.cpu.Release()
	}
	b.cpu = nil
}

// CPUMirror returns the CPU mirror bytes, or nil.
func (b *Buffer) CPUMirror() []byte {
	if b.cpu == nil {
		return nil
	}
	return b.cpu.Bytes()
}

func (b *Buffer) requiresName(ctx device.Context) bool {
	return ctx.Device().Caps().Has(device.FeatureBufferObjects)
}

func (b *Buffer) existsObject(ctx device.Context) bool {
	if b.id.fake {
		return true
	}
	return ctx.Device().IsName(device.ClassBuffer, b.id.name)
}

func (b *Buffer) createObject(ctx device.Context) error {
	if b.defined || b.size == 0 {
		return nil
	}
	return b.DefineDeviceStorage(ctx, b.size, nil)
}

func (b *Buffer) forgetObject() {
	if b.path != mapNone && b.path != mapHost {
		b.mapped, b.path = nil, mapNone
	}
	if b.sim != nil {
		if b.sim != b.cpu {
			b.sim.Release()
		}
		b.sim = nil
	}
	b.defined = false
	b.corrupted = false
}

func (b *Buffer) releaseHost() {
	b.mapped, b.path = nil, mapNone
	b.releaseMirror()
}

// DefineDeviceStorage allocates device storage of size bytes in ctx's
// namespace, initialized from data or, without data, from the CPU mirror.
func (b *Buffer) DefineDeviceStorage(ctx device.Context, size uint64, data []byte) error {
	if err := b.checkCurrent(ctx, "define buffer storage"); err != nil {
		return err
	}
	if b.immutable && b.defined {
		return fmt.Errorf("%w: %s", ErrAlreadyDefined, b.id)
	}
	if size == 0 {
		return fmt.Errorf("%w: buffer size is zero", ErrInvalidArgument)
	}
	if uint64(len(data)) > size {
		return fmt.Errorf("%w: %d bytes of data for %d byte buffer", ErrInvalidArgument, len(data), size)
	}
	if b.path == mapDevice || b.path == mapSimulated || b.path == mapStaged {
		return fmt.Errorf("%w: %s", ErrAlreadyMapped, b.id)
	}

	dev := ctx.Device()
	caps := dev.Caps()
	if !caps.Has(device.FeatureBufferObjects) {
		if err := b.defineSimulated(size, data); err != nil {
			return err
		}
	} else if err := b.defineDevice(dev, caps, size, data); err != nil {
		return err
	}

	b.size = size
	b.defined = true
	b.corrupted = false
	b.configured()
	return nil
}

func (b *Buffer) defineSimulated(size uint64, data []byte) error {
	if b.sim != nil && b.sim != b.cpu {
		b.sim.Release()
	}
	b.sim = nil

	if data == nil && b.cpu != nil && uint64(b.cpu.Size()) == size {
		b.sim = b.cpu
		Logger().Debug("gpures: CPU mirror promoted to simulated storage",
			"name", b.id.name, "size", size, "label", b.label)
		return nil
	}

	st, err := aligned.New(int(size), 0) //nolint:gosec // sizes are bounded by device limits
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	src := data
	if src == nil && b.cpu != nil {
		src = b.cpu.Bytes()
	}
	copy(st.Bytes(), src)
	b.sim = st
	Logger().Warn("gpures: no buffer objects, using simulated storage",
		"name", b.id.name, "size", size, "label", b.label)
	return nil
}

func (b *Buffer) defineDevice(dev device.Device, caps *device.Caps, size uint64, data []byte) error {
	desc := device.BufferStorageDesc{Size: size, Usage: b.usage, Data: data}
	stage := false
	if b.immutable && caps.Has(device.FeatureImmutableBufferStorage) {
		desc.Immutable = true
		if data == nil && b.cpu != nil {
			desc.Data = b.cpu.Bytes()[:min(uint64(b.cpu.Size()), size)]
		}
	} else {
		stage = data == nil && b.cpu != nil
	}

	if err := dev.BufferStorage(b.target, b.id.name, desc); err != nil {
		return fmt.Errorf("gpures: define storage for %s: %w", b.id, err)
	}
	if stage {
		mirror := b.cpu.Bytes()[:min(uint64(b.cpu.Size()), size)]
		if err := dev.BufferSubData(b.target, b.id.name, 0, mirror); err != nil {
			return fmt.Errorf("gpures: stage CPU mirror into %s: %w", b.id, err)
		}
	}
	Logger().Debug("gpures: buffer storage defined",
		"name", b.id.name, "target", b.target.String(), "size", size,
		"immutable", desc.Immutable, "label", b.label)
	return nil
}

// Upload copies the CPU mirror into device storage.
func (b *Buffer) Upload(ctx device.Context) error {
	if err := b.checkCurrent(ctx, "upload buffer"); err != nil {
		return err
	}
	if b.cpu == nil {
		return fmt.Errorf("%w: upload %s", ErrNoCPUStorage, b.id)
	}
	if !b.defined {
		return fmt.Errorf("%w: %s has no device storage", ErrNotCreated, b.id)
	}
	if b.path != mapNone {
		return fmt.Errorf("%w: upload %s", ErrAlreadyMapped, b.id)
	}
	if b.sim != nil {
		if b.sim != b.cpu {
			copy(b.sim.Bytes(), b.cpu.Bytes())
		}
		return nil
	}
	mirror := b.cpu.Bytes()[:min(uint64(b.cpu.Size()), b.size)]
	if err := ctx.Device().BufferSubData(b.target, b.id.name, 0, mirror); err != nil {
		return fmt.Errorf("gpures: upload %s: %w", b.id, err)
	}
	return nil
}

// Bind binds the buffer to its target. It is a no-op without buffer
// objects.
func (b *Buffer) Bind(ctx device.Context) error {
	if err := b.checkCurrent(ctx, "bind buffer"); err != nil {
		return err
	}
	if b.id.fake {
		return nil
	}
	ctx.Device().BindBuffer(b.target, b.id.name)
	return nil
}

// Unbind clears the buffer's target if the buffer is bound to it.
func (b *Buffer) Unbind(ctx device.Context) error {
	if err := b.checkCurrent(ctx, "unbind buffer"); err != nil {
		return err
	}
	if b.id.fake {
		return nil
	}
	dev := ctx.Device()
	if dev.BoundBuffer(b.target) == b.id.name {
		dev.BindBuffer(b.target, device.InvalidName)
	}
	return nil
}

// IsBound reports whether the buffer is bound to its target in ctx.
func (b *Buffer) IsBound(ctx device.Context) bool {
	if ctx == nil || b.id.fake || !b.boundTo(ctx) {
		return false
	}
	return ctx.Device().BoundBuffer(b.target) == b.id.name
}

// ArrayBuffer is a buffer of fixed-size items.
type ArrayBuffer struct {
	Buffer
	itemSize uint64
}

// NewArrayBuffer returns a vertex array buffer of itemSize byte items.
func NewArrayBuffer(itemSize uint64, hint UsageHint) (*ArrayBuffer, error) {
	if itemSize == 0 {
		return nil, fmt.Errorf("%w: item size is zero", ErrInvalidArgument)
	}
	a := &ArrayBuffer{
		Buffer:   Buffer{target: device.TargetArray, hint: hint, usage: usageFor(device.TargetArray, hint)},
		itemSize: itemSize,
	}
	a.setup(device.ClassBuffer, a)
	return a, nil
}

// Allocate records room for count items.
func (a *ArrayBuffer) Allocate(count uint64) error {
	if count == 0 {
		return fmt.Errorf("%w: items count is zero", ErrInvalidArgument)
	}
	return a.Buffer.Allocate(count * a.itemSize)
}

// ItemSize returns the item size in bytes.
func (a *ArrayBuffer) ItemSize() uint64 { return a.itemSize }

// ItemsCount returns the number of whole items that fit the buffer.
func (a *ArrayBuffer) ItemsCount() uint64 { return a.size / a.itemSize }

// ElementBuffer is an index buffer.
type ElementBuffer struct {
	ArrayBuffer
	format gputypes.IndexFormat
}

// NewElementBuffer returns an index buffer of the given format.
func NewElementBuffer(format gputypes.IndexFormat, hint UsageHint) (*ElementBuffer, error) {
	var size uint64
	switch format {
	case gputypes.IndexFormatUint16:
		size = 2
	case gputypes.IndexFormatUint32:
		size = 4
	default:
		return nil, fmt.Errorf("%w: index format %v", ErrInvalidArgument, format)
	}
	e := &ElementBuffer{
		ArrayBuffer: ArrayBuffer{
			Buffer:   Buffer{target: device.TargetElementArray, hint: hint, usage: usageFor(device.TargetElementArray, hint)},
			itemSize: size,
		},
		format: format,
	}
	e.setup(device.ClassBuffer, e)
	return e, nil
}

// Format returns the index format.
func (e *ElementBuffer) Format() gputypes.IndexFormat { return e.format }
