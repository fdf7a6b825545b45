// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Name is an opaque device object handle.
type Name uint32

// InvalidName is the zero value, meaning "not created".
const InvalidName Name = 0

// NamespaceID identifies a group of contexts sharing object tables.
type NamespaceID uint64

// NoNamespace means "not bound to any context".
const NoNamespace NamespaceID = 0

// Class identifies the kind of a device object.
type Class uint8

// Object classes.
const (
	ClassBuffer Class = iota + 1
	ClassTexture
	ClassShader
	ClassVertexArray
)

// String returns a human-readable name for the class.
func (c Class) String() string {
	switch c {
	case ClassBuffer:
		return "buffer"
	case ClassTexture:
		return "texture"
	case ClassShader:
		return "shader"
	case ClassVertexArray:
		return "vertex-array"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// BufferTarget is the semantic binding point of a buffer.
type BufferTarget uint8

// Buffer targets.
const (
	TargetArray BufferTarget = iota + 1
	TargetElementArray
	TargetUniform
	TargetStorage
	TargetCopyRead
	TargetCopyWrite
	TargetPixelPack
	TargetPixelUnpack
)

// String returns a human-readable name for the target.
func (t BufferTarget) String() string {
	switch t {
	case TargetArray:
		return "array"
	case TargetElementArray:
		return "element-array"
	case TargetUniform:
		return "uniform"
	case TargetStorage:
		return "storage"
	case TargetCopyRead:
		return "copy-read"
	case TargetCopyWrite:
		return "copy-write"
	case TargetPixelPack:
		return "pixel-pack"
	case TargetPixelUnpack:
		return "pixel-unpack"
	default:
		return fmt.Sprintf("BufferTarget(%d)", int(t))
	}
}

// Usage returns the buffer usage implied by binding to the target.
func (t BufferTarget) Usage() gputypes.BufferUsage {
	switch t {
	case TargetArray:
		return gputypes.BufferUsageVertex
	case TargetElementArray:
		return gputypes.BufferUsageIndex
	case TargetUniform:
		return gputypes.BufferUsageUniform
	case TargetStorage:
		return gputypes.BufferUsageStorage
	default:
		return 0
	}
}

// BufferStorageDesc describes a buffer storage allocation.
type BufferStorageDesc struct {
	Size  uint64
	Usage gputypes.BufferUsage

	// Immutable requests storage whose size can never change.
	Immutable bool

	// Data initializes the storage; nil leaves it zero-filled.
	Data []byte
}

// TextureKind is the dimensionality of a texture.
type TextureKind uint8

// Texture kinds.
const (
	Texture1D TextureKind = iota + 1
	Texture2D
	Texture3D
	Texture2DArray
)

// String returns a human-readable name for the kind.
func (k TextureKind) String() string {
	switch k {
	case Texture1D:
		return "1d"
	case Texture2D:
		return "2d"
	case Texture3D:
		return "3d"
	case Texture2DArray:
		return "2d-array"
	default:
		return fmt.Sprintf("TextureKind(%d)", int(k))
	}
}

// Dimension returns the WebGPU dimension of the kind.
func (k TextureKind) Dimension() gputypes.TextureDimension {
	switch k {
	case Texture1D:
		return gputypes.TextureDimension1D
	case Texture3D:
		return gputypes.TextureDimension3D
	default:
		return gputypes.TextureDimension2D
	}
}

// TextureDesc describes texture storage. Depth doubles as the layer count
// for array textures.
type TextureDesc struct {
	Kind   TextureKind
	Format gputypes.TextureFormat
	Width  uint32
	Height uint32
	Depth  uint32
	Levels uint32
}

// Region is a box inside one texture level.
type Region struct {
	X, Y, Z              uint32
	Width, Height, Depth uint32
}

// Channel is a texture swizzle source.
type Channel uint8

// Swizzle sources.
const (
	ChannelRed Channel = iota
	ChannelGreen
	ChannelBlue
	ChannelAlpha
	ChannelZero
	ChannelOne
)

// Swizzle maps the red, green, blue and alpha outputs to sources.
type Swizzle [4]Channel

// IdentitySwizzle leaves every channel in place.
var IdentitySwizzle = Swizzle{ChannelRed, ChannelGreen, ChannelBlue, ChannelAlpha}

// ShaderSource is a shader module payload.
type ShaderSource struct {
	Label string
	Stage gputypes.ShaderStage
	WGSL  string
	SPIRV []uint32
}

// VertexAttrib describes one vertex attribute fetched from a buffer.
type VertexAttrib struct {
	Buffer     Name
	Format     gputypes.VertexFormat
	Offset     uint64
	Stride     uint64
	Normalized bool
}
