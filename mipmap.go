// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"math/bits"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/device"
)

// DefaultMaxLevel is the initial upper bound of the sampled level range.
const DefaultMaxLevel = 1000

// Mipmap describes one defined texture level.
type Mipmap struct {
	Format               gputypes.TextureFormat
	Width, Height, Depth uint32
}

// levelCount returns the length of the full mip chain for a base size.
func levelCount(w, h, d uint32) uint32 {
	return uint32(bits.Len32(max(w, h, d, 1))) //nolint:gosec // at most 32
}

// chain returns the full mip chain length for a base level of the
// texture's kind. Array layers do not shrink.
func (t *Texture) chain(m Mipmap) uint32 {
	switch t.kind {
	case device.Texture1D:
		return levelCount(m.Width, 1, 1)
	case device.Texture3D:
		return levelCount(m.Width, m.Height, m.Depth)
	default:
		return levelCount(m.Width, m.Height, 1)
	}
}

// halve returns the size the next level has under the texture's kind.
func (t *Texture) halve(m Mipmap) Mipmap {
	m.Width = max(m.Width/2, 1)
	if t.kind != device.Texture1D {
		m.Height = max(m.Height/2, 1)
	}
	if t.kind == device.Texture3D {
		m.Depth = max(m.Depth/2, 1)
	}
	return m
}

// setMipmap records level metadata, growing the sparse table as needed.
func (t *Texture) setMipmap(level uint32, m Mipmap) {
	if int(level) >= len(t.mipmaps) {
		t.mipmaps = append(t.mipmaps, make([]*Mipmap, int(level)+1-len(t.mipmaps))...)
	}
	t.mipmaps[level] = &m
}

// Mipmap returns the metadata of a level.
func (t *Texture) Mipmap(level uint32) (Mipmap, bool) {
	if int(level) >= len(t.mipmaps) || t.mipmaps[level] == nil {
		return Mipmap{}, false
	}
	return *t.mipmaps[level], true
}

// Levels returns the length of the mipmap table, defined or not.
func (t *Texture) Levels() int { return len(t.mipmaps) }

// IsMipmapComplete reports whether every level in the sampled range exists
// with the base format and the halved base size. The range ends at the
// level range maximum or at the end of the full chain, whichever is lower.
// An empty level range is complete.
func (t *Texture) IsMipmapComplete() bool {
	if t.baseLevel >= t.maxLevel {
		return true
	}
	base, ok := t.Mipmap(t.baseLevel)
	if !ok {
		return false
	}
	top := min(t.maxLevel, t.baseLevel+t.chain(base))
	want := base
	for level := t.baseLevel + 1; level < top; level++ {
		want = t.halve(want)
		got, ok := t.Mipmap(level)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// synthesizeMipmaps fills level metadata above the base level by halving,
// as auto-generation on the device would. For immutable textures only the
// allocated levels are touched.
func (t *Texture) synthesizeMipmaps() {
	base, ok := t.Mipmap(t.baseLevel)
	if !ok {
		return
	}
	top := min(t.maxLevel, t.baseLevel+t.chain(base))
	m := base
	for level := t.baseLevel + 1; level < top; level++ {
		if t.immutable && int(level) >= len(t.mipmaps) {
			break
		}
		m = t.halve(m)
		t.setMipmap(level, m)
	}
}

// RemoveMipmap drops the metadata of a level. The device object is not
// changed.
func (t *Texture) RemoveMipmap(level uint32) {
	if int(level) < len(t.mipmaps) {
		t.mipmaps[level] = nil
	}
}
