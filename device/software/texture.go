// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"

	"github.com/gogpu/gpures/device"
)

type level struct {
	desc device.TextureDesc
	data []byte
}

type texture struct {
	kind      device.TextureKind
	immutable bool
	levels    map[uint32]*level
	base, top uint32
	swizzle   device.Swizzle
}

// LevelInfo describes one texture level as the device sees it.
type LevelInfo struct {
	Desc device.TextureDesc
	Data []byte
}

func (d *Device) lookupTexture(name device.Name) (*texture, error) {
	t, ok := d.textures[name]
	if !ok {
		return nil, fmt.Errorf("%w: texture %d", device.ErrUnknownName, name)
	}
	return t, nil
}

func levelBytes(desc device.TextureDesc) int {
	return device.FormatSize(desc.Format) * int(desc.Width) * int(max(desc.Height, 1)) * int(max(desc.Depth, 1))
}

func (d *Device) checkKind(kind device.TextureKind) error {
	switch kind {
	case device.Texture3D:
		if !d.caps.Has(device.FeatureTexture3D) {
			return fmt.Errorf("%w: 3d textures", device.ErrUnsupported)
		}
	case device.Texture2DArray:
		if !d.caps.Has(device.FeatureTextureArrays) {
			return fmt.Errorf("%w: texture arrays", device.ErrUnsupported)
		}
	}
	return nil
}

// halve returns the size of the next mip level.
func halve(v uint32) uint32 { return max(v/2, 1) }

// TextureStorage implements device.Device.
func (d *Device) TextureStorage(name device.Name, desc device.TextureDesc) error {
	d.record("TextureStorage")
	if !d.caps.Has(device.FeatureImmutableTextureStorage) {
		return fmt.Errorf("%w: immutable texture storage", device.ErrUnsupported)
	}
	t, err := d.lookupTexture(name)
	if err != nil {
		return err
	}
	if err := d.checkKind(desc.Kind); err != nil {
		return err
	}
	if t.immutable {
		return fmt.Errorf("%w: texture %d", device.ErrImmutableStorage, name)
	}

	t.kind = desc.Kind
	t.immutable = true
	t.levels = make(map[uint32]*level)
	ld := desc
	ld.Levels = 1
	for i := uint32(0); i < max(desc.Levels, 1); i++ {
		t.levels[i] = &level{desc: ld, data: make([]byte, levelBytes(ld))}
		ld.Width = halve(ld.Width)
		if desc.Kind != device.Texture1D {
			ld.Height = halve(ld.Height)
		}
		if desc.Kind == device.Texture3D {
			ld.Depth = halve(ld.Depth)
		}
	}
	return nil
}

// TextureImage implements device.Device.
func (d *Device) TextureImage(name device.Name, lvl uint32, desc device.TextureDesc, data []byte) error {
	d.record("TextureImage")
	t, err := d.lookupTexture(name)
	if err != nil {
		return err
	}
	if err := d.checkKind(desc.Kind); err != nil {
		return err
	}
	if t.immutable {
		return fmt.Errorf("%w: texture %d", device.ErrImmutableStorage, name)
	}
	n := levelBytes(desc)
	if data != nil && len(data) < n {
		return fmt.Errorf("%w: %d bytes for a %d byte level", device.ErrOutOfRange, len(data), n)
	}

	l := &level{desc: desc, data: make([]byte, n)}
	copy(l.data, data)
	t.kind = desc.Kind
	t.levels[lvl] = l
	return nil
}

// TextureSubImage implements device.Device.
func (d *Device) TextureSubImage(name device.Name, lvl uint32, r device.Region, data []byte) error {
	d.record("TextureSubImage")
	t, err := d.lookupTexture(name)
	if err != nil {
		return err
	}
	l, ok := t.levels[lvl]
	if !ok {
		return fmt.Errorf("%w: texture %d has no level %d", device.ErrOutOfRange, name, lvl)
	}

	w, h, dep := r.Width, max(r.Height, 1), max(r.Depth, 1)
	lh, ld := max(l.desc.Height, 1), max(l.desc.Depth, 1)
	if r.X+w > l.desc.Width || r.Y+h > lh || r.Z+dep > ld {
		return fmt.Errorf("%w: region %+v outside level %d", device.ErrOutOfRange, r, lvl)
	}
	texel := device.FormatSize(l.desc.Format)
	row := int(w) * texel
	if len(data) < row*int(h)*int(dep) {
		return fmt.Errorf("%w: %d bytes for region %+v", device.ErrOutOfRange, len(data), r)
	}

	src := 0
	for z := uint32(0); z < dep; z++ {
		for y := uint32(0); y < h; y++ {
			dst := ((int(r.Z+z)*int(lh)+int(r.Y+y))*int(l.desc.Width) + int(r.X)) * texel
			copy(l.data[dst:dst+row], data[src:src+row])
			src += row
		}
	}
	return nil
}

// GenerateMipmaps implements device.Device.
func (d *Device) GenerateMipmaps(name device.Name) error {
	d.record("GenerateMipmaps")
	if !d.caps.Has(device.FeatureMipmapGeneration) {
		return fmt.Errorf("%w: mipmap generation", device.ErrUnsupported)
	}
	t, err := d.lookupTexture(name)
	if err != nil {
		return err
	}
	base, ok := t.levels[t.base]
	if !ok {
		return fmt.Errorf("%w: texture %d has no base level", device.ErrOutOfRange, name)
	}

	ld := base.desc
	for i := t.base + 1; ld.Width > 1 || ld.Height > 1 || (t.kind == device.Texture3D && ld.Depth > 1); i++ {
		ld.Width = halve(ld.Width)
		if t.kind != device.Texture1D {
			ld.Height = halve(ld.Height)
		}
		if t.kind == device.Texture3D {
			ld.Depth = halve(ld.Depth)
		}
		if t.immutable && t.levels[i] == nil {
			break
		}
		t.levels[i] = &level{desc: ld, data: make([]byte, levelBytes(ld))}
	}
	return nil
}

// TextureLevelRange implements device.Device.
func (d *Device) TextureLevelRange(name device.Name, base, top uint32) error {
	d.record("TextureLevelRange")
	t, err := d.lookupTexture(name)
	if err != nil {
		return err
	}
	if base > top {
		return fmt.Errorf("%w: base level %d > max level %d", device.ErrOutOfRange, base, top)
	}
	t.base, t.top = base, top
	return nil
}

// TextureSwizzle implements device.Device.
func (d *Device) TextureSwizzle(name device.Name, s device.Swizzle) error {
	d.record("TextureSwizzle")
	if !d.caps.Has(device.FeatureTextureSwizzle) {
		return fmt.Errorf("%w: texture swizzle", device.ErrUnsupported)
	}
	t, err := d.lookupTexture(name)
	if err != nil {
		return err
	}
	t.swizzle = s
	return nil
}

// BindTexture implements device.Device.
func (d *Device) BindTexture(unit uint32, _ device.TextureKind, name device.Name) {
	d.record("BindTexture")
	if name == device.InvalidName {
		delete(d.textureUnits, unit)
		return
	}
	d.textureUnits[unit] = name
}

// TextureLevel returns the device view of one level.
func (d *Device) TextureLevel(name device.Name, lvl uint32) (LevelInfo, bool) {
	t, ok := d.textures[name]
	if !ok {
		return LevelInfo{}, false
	}
	l, ok := t.levels[lvl]
	if !ok {
		return LevelInfo{}, false
	}
	return LevelInfo{Desc: l.desc, Data: append([]byte(nil), l.data...)}, true
}

// TextureLevelCount returns the number of levels the device holds.
func (d *Device) TextureLevelCount(name device.Name) int {
	if t, ok := d.textures[name]; ok {
		return len(t.levels)
	}
	return 0
}

// TextureState returns the sampled level range and swizzle of a texture.
func (d *Device) TextureState(name device.Name) (base, top uint32, s device.Swizzle) {
	if t, ok := d.textures[name]; ok {
		return t.base, t.top, t.swizzle
	}
	return 0, 0, device.Swizzle{}
}

// BoundTexture returns the texture bound to a unit.
func (d *Device) BoundTexture(unit uint32) device.Name { return d.textureUnits[unit] }
