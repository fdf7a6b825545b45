// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"
)

// Feature is a bitmask of optional device features.
type Feature uint32

// Optional features. Every "if the device supports X" branch in gpures
// reads one of these.
const (
	FeatureBufferObjects Feature = 1 << iota
	FeatureImmutableBufferStorage
	FeatureBufferMapping
	FeatureImmutableTextureStorage
	FeatureTexture3D
	FeatureTextureArrays
	FeatureTextureSwizzle
	FeatureNPOTTextures
	FeatureMipmapGeneration
	FeatureVertexArrayObjects
)

// AllFeatures has every optional feature set.
const AllFeatures = FeatureBufferObjects |
	FeatureImmutableBufferStorage |
	FeatureBufferMapping |
	FeatureImmutableTextureStorage |
	FeatureTexture3D |
	FeatureTextureArrays |
	FeatureTextureSwizzle |
	FeatureNPOTTextures |
	FeatureMipmapGeneration |
	FeatureVertexArrayObjects

var featureNames = []struct {
	f    Feature
	name string
}{
	{FeatureBufferObjects, "buffer_objects"},
	{FeatureImmutableBufferStorage, "immutable_buffer_storage"},
	{FeatureBufferMapping, "buffer_mapping"},
	{FeatureImmutableTextureStorage, "immutable_texture_storage"},
	{FeatureTexture3D, "texture_3d"},
	{FeatureTextureArrays, "texture_arrays"},
	{FeatureTextureSwizzle, "texture_swizzle"},
	{FeatureNPOTTextures, "npot_textures"},
	{FeatureMipmapGeneration, "mipmap_generation"},
	{FeatureVertexArrayObjects, "vertex_array_objects"},
}

// Has reports whether every feature in g is present in f.
func (f Feature) Has(g Feature) bool { return f&g == g }

// Names returns the names of the features set in f.
func (f Feature) Names() []string {
	var names []string
	for _, e := range featureNames {
		if f&e.f != 0 {
			names = append(names, e.name)
		}
	}
	return names
}

// String returns the feature names joined by '|'.
func (f Feature) String() string {
	if f == 0 {
		return "none"
	}
	return strings.Join(f.Names(), "|")
}

// ParseFeature returns the feature with the given name.
func ParseFeature(name string) (Feature, error) {
	for _, e := range featureNames {
		if e.name == name {
			return e.f, nil
		}
	}
	return 0, fmt.Errorf("device: unknown feature %q", name)
}

// Limits are the numeric device limits that configuration is checked against.
type Limits struct {
	MaxTextureDimension1D uint32 `yaml:"max_texture_dimension_1d"`
	MaxTextureDimension2D uint32 `yaml:"max_texture_dimension_2d"`
	MaxTextureDimension3D uint32 `yaml:"max_texture_dimension_3d"`
	MaxTextureArrayLayers uint32 `yaml:"max_texture_array_layers"`
	MaxBufferSize         uint64 `yaml:"max_buffer_size"`
	MaxVertexAttributes   uint32 `yaml:"max_vertex_attributes"`
}

// defaultMaxVertexAttributes is the WebGPU baseline.
const defaultMaxVertexAttributes = 16

// LimitsFromWGPU converts WebGPU limits.
func LimitsFromWGPU(l gputypes.Limits) Limits {
	return Limits{
		MaxTextureDimension1D: l.MaxTextureDimension1D,
		MaxTextureDimension2D: l.MaxTextureDimension2D,
		MaxTextureDimension3D: l.MaxTextureDimension3D,
		MaxTextureArrayLayers: l.MaxTextureArrayLayers,
		MaxBufferSize:         l.MaxBufferSize,
		MaxVertexAttributes:   defaultMaxVertexAttributes,
	}
}

// DefaultFormats lists the texture formats every implementation in this
// module understands.
var DefaultFormats = []gputypes.TextureFormat{
	gputypes.TextureFormatR8Unorm,
	gputypes.TextureFormatRGBA8Unorm,
	gputypes.TextureFormatBGRA8Unorm,
	gputypes.TextureFormatR32Float,
	gputypes.TextureFormatRGBA16Float,
	gputypes.TextureFormatDepth24PlusStencil8,
}

// FormatSize returns the bytes per texel of f, or 0 for unknown formats.
func FormatSize(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatR32Float, gputypes.TextureFormatDepth24PlusStencil8:
		return 4
	case gputypes.TextureFormatRGBA16Float:
		return 8
	default:
		return 0
	}
}

// Caps is the capability table of a device.
type Caps struct {
	Features Feature
	Limits   Limits
	Formats  []gputypes.TextureFormat
}

// DefaultCaps returns a table with every feature, the WebGPU default
// limits and DefaultFormats.
func DefaultCaps() *Caps {
	return &Caps{
		Features: AllFeatures,
		Limits:   LimitsFromWGPU(gputypes.DefaultLimits()),
		Formats:  slices.Clone(DefaultFormats),
	}
}

// Has reports whether the device has feature f.
func (c *Caps) Has(f Feature) bool { return c.Features.Has(f) }

// SupportsFormat reports whether f can be used as a texture internal format.
func (c *Caps) SupportsFormat(f gputypes.TextureFormat) bool {
	return slices.Contains(c.Formats, f)
}

// MaxDimension returns the largest width/height/depth for kind.
func (c *Caps) MaxDimension(kind TextureKind) uint32 {
	switch kind {
	case Texture1D:
		return c.Limits.MaxTextureDimension1D
	case Texture3D:
		return c.Limits.MaxTextureDimension3D
	default:
		return c.Limits.MaxTextureDimension2D
	}
}

// Clone returns a deep copy.
func (c *Caps) Clone() *Caps {
	cc := *c
	cc.Formats = slices.Clone(c.Formats)
	return &cc
}

var formatNames = []struct {
	f    gputypes.TextureFormat
	name string
}{
	{gputypes.TextureFormatR8Unorm, "r8unorm"},
	{gputypes.TextureFormatRGBA8Unorm, "rgba8unorm"},
	{gputypes.TextureFormatBGRA8Unorm, "bgra8unorm"},
	{gputypes.TextureFormatR32Float, "r32float"},
	{gputypes.TextureFormatRGBA16Float, "rgba16float"},
	{gputypes.TextureFormatDepth24PlusStencil8, "depth24plus-stencil8"},
}

// FormatName returns the WebGPU name of f.
func FormatName(f gputypes.TextureFormat) string {
	for _, e := range formatNames {
		if e.f == f {
			return e.name
		}
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat returns the format with the given WebGPU name.
func ParseFormat(name string) (gputypes.TextureFormat, error) {
	for _, e := range formatNames {
		if e.name == name {
			return e.f, nil
		}
	}
	return gputypes.TextureFormatUndefined, fmt.Errorf("device: unknown texture format %q", name)
}
