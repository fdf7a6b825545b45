// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Errors reported by device implementations.
var (
	// ErrUnknownName is returned when a call names an object that does not exist.
	ErrUnknownName = errors.New("device: unknown object name")

	// ErrUnsupported is returned for calls the device cannot honor.
	ErrUnsupported = errors.New("device: operation not supported")

	// ErrImmutableStorage is returned when redefining immutable storage.
	ErrImmutableStorage = errors.New("device: storage is immutable")

	// ErrOutOfRange is returned for offsets or sizes outside the object.
	ErrOutOfRange = errors.New("device: range out of bounds")

	// ErrNotMapped is returned by UnmapBuffer for unmapped buffers.
	ErrNotMapped = errors.New("device: buffer is not mapped")
)

// Context is a device context. Device calls are valid only while the
// context is current on the calling execution unit.
type Context interface {
	// Device returns the call surface behind the context.
	Device() Device

	// IsCurrent reports whether the context is current.
	IsCurrent() bool

	// Namespace returns the object-table sharing identifier.
	Namespace() NamespaceID
}

// Device is the opaque call surface. Implementations are not required to be
// safe for concurrent use; callers serialize per context.
//
// Resource lifecycle:
//   - Names are generated with GenName, then given storage
//   - DeleteNames releases names and their storage
//   - A name is never reused while it is alive
type Device interface {
	// Caps returns the capability table. It must not be modified.
	Caps() *Caps

	// GenName returns a fresh name of the class, or InvalidName when the
	// name space is exhausted.
	GenName(class Class) Name

	// DeleteNames releases names. Unknown names are ignored.
	DeleteNames(class Class, names ...Name)

	// IsName reports whether name is a live object of the class.
	IsName(class Class, name Name) bool

	// BufferStorage allocates storage for a buffer.
	BufferStorage(target BufferTarget, name Name, desc BufferStorageDesc) error

	// BufferSubData uploads data at offset.
	BufferSubData(target BufferTarget, name Name, offset uint64, data []byte) error

	// MapBuffer exposes the buffer contents for direct access.
	MapBuffer(target BufferTarget, name Name, mode gputypes.MapMode) ([]byte, error)

	// UnmapBuffer ends a mapping. intact is false when the contents were
	// lost while mapped.
	UnmapBuffer(target BufferTarget, name Name) (intact bool, err error)

	// BindBuffer binds name to target; InvalidName unbinds.
	BindBuffer(target BufferTarget, name Name)

	// BoundBuffer returns the name bound to target.
	BoundBuffer(target BufferTarget) Name

	// TextureStorage allocates immutable storage for all levels.
	TextureStorage(name Name, desc TextureDesc) error

	// TextureImage defines one mutable level; data may be nil.
	TextureImage(name Name, level uint32, desc TextureDesc, data []byte) error

	// TextureSubImage updates a region of a defined level.
	TextureSubImage(name Name, level uint32, region Region, data []byte) error

	// GenerateMipmaps fills levels above the base level from it.
	GenerateMipmaps(name Name) error

	// TextureLevelRange sets the sampled level range.
	TextureLevelRange(name Name, base, top uint32) error

	// TextureSwizzle sets the channel swizzle.
	TextureSwizzle(name Name, swizzle Swizzle) error

	// BindTexture binds name to a texture unit.
	BindTexture(unit uint32, kind TextureKind, name Name)

	// ShaderModule gives a shader name its code.
	ShaderModule(name Name, src ShaderSource) error

	// BindVertexArray binds a vertex array object; InvalidName unbinds.
	BindVertexArray(name Name)

	// VertexAttrib records attribute state. vao is InvalidName when the
	// device has no vertex array objects and state is global.
	VertexAttrib(vao Name, location uint32, attr VertexAttrib) error
}
