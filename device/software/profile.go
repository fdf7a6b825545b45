// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/gpures/device"
)

// Profile is a named capability table in serializable form.
//
// Example:
//
//	name: legacy
//	features: [npot_textures]
//	limits:
//	  max_texture_dimension_2d: 2048
//	formats: [rgba8unorm, r8unorm]
type Profile struct {
	Name     string        `yaml:"name"`
	Features []string      `yaml:"features"`
	Limits   device.Limits `yaml:"limits"`
	Formats  []string      `yaml:"formats"`
}

var baselineLimits = device.Limits{
	MaxTextureDimension1D: 8192,
	MaxTextureDimension2D: 8192,
	MaxTextureDimension3D: 2048,
	MaxTextureArrayLayers: 256,
	MaxBufferSize:         256 << 20,
	MaxVertexAttributes:   16,
}

var allFormatNames = []string{"r8unorm", "rgba8unorm", "bgra8unorm", "r32float", "rgba16float", "depth24plus-stencil8"}

// Built-in profiles.
var (
	// ProfileFull has every optional feature.
	ProfileFull = Profile{
		Name:     "full",
		Features: device.AllFeatures.Names(),
		Limits:   baselineLimits,
		Formats:  allFormatNames,
	}

	// ProfileES2 has buffer objects but no mapping, immutable storage,
	// vertex array objects, 3D or NPOT textures.
	ProfileES2 = Profile{
		Name:     "es2",
		Features: []string{"buffer_objects"},
		Limits: device.Limits{
			MaxTextureDimension1D: 2048,
			MaxTextureDimension2D: 2048,
			MaxBufferSize:         64 << 20,
			MaxVertexAttributes:   8,
		},
		Formats: []string{"r8unorm", "rgba8unorm"},
	}

	// ProfileLegacy has no buffer objects at all: buffers are emulated in
	// host memory and get fake names.
	ProfileLegacy = Profile{
		Name:     "legacy",
		Features: []string{"npot_textures"},
		Limits: device.Limits{
			MaxTextureDimension1D: 1024,
			MaxTextureDimension2D: 1024,
			MaxVertexAttributes:   8,
		},
		Formats: []string{"rgba8unorm"},
	}
)

// Profiles returns the built-in profiles by name.
func Profiles() map[string]Profile {
	return map[string]Profile{
		ProfileFull.Name:   ProfileFull,
		ProfileES2.Name:    ProfileES2,
		ProfileLegacy.Name: ProfileLegacy,
	}
}

// Caps converts the profile to a capability table.
func (p Profile) Caps() (*device.Caps, error) {
	c := &device.Caps{Limits: p.Limits}
	for _, name := range p.Features {
		f, err := device.ParseFeature(name)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		c.Features |= f
	}
	for _, name := range p.Formats {
		f, err := device.ParseFormat(name)
		if err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		c.Formats = append(c.Formats, f)
	}
	return c, nil
}

// ParseProfile decodes a YAML profile and validates it.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("software: decode profile: %w", err)
	}
	if _, err := p.Caps(); err != nil {
		return Profile{}, fmt.Errorf("software: %w", err)
	}
	return p, nil
}

// LoadProfile reads a YAML profile from a file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("software: read profile: %w", err)
	}
	return ParseProfile(data)
}

// Marshal encodes the profile as YAML.
func (p Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
