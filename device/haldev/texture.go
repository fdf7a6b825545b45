// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package haldev

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/device"
)

type level struct {
	desc   device.TextureDesc
	shadow []byte
}

type texture struct {
	raw       hal.Texture
	rawLevels uint32
	rawDesc   device.TextureDesc
	immutable bool
	levels    map[uint32]*level
	base, top uint32
}

func (d *Device) destroyTexture(t *texture) {
	if t.raw != nil {
		d.device.DestroyTexture(t.raw)
		t.raw = nil
		t.rawLevels = 0
	}
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

func nextLevel(desc device.TextureDesc) device.TextureDesc {
	desc.Width = max(desc.Width/2, 1)
	if desc.Kind != device.Texture1D {
		desc.Height = max(desc.Height/2, 1)
	}
	if desc.Kind == device.Texture3D {
		desc.Depth = max(desc.Depth/2, 1)
	}
	return desc
}

func (d *Device) createRaw(name device.Name, desc device.TextureDesc, levels uint32) (hal.Texture, error) {
	return d.device.CreateTexture(&hal.TextureDescriptor{
		Label: fmt.Sprintf("gpures-texture-%d", name),
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             max(desc.Height, 1),
			DepthOrArrayLayers: max(desc.Depth, 1),
		},
		MipLevelCount: levels,
		SampleCount:   1,
		Dimension:     desc.Kind.Dimension(),
		Format:        desc.Format,
		Usage: gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageTextureBinding,
	})
}

func (d *Device) writeLevel(t *texture, lvl uint32) {
	l := t.levels[lvl]
	if t.raw == nil || l == nil || lvl >= t.rawLevels {
		return
	}
	h, depth := max(l.desc.Height, 1), max(l.desc.Depth, 1)
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.raw, MipLevel: lvl},
		l.shadow,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  l.desc.Width * uint32(device.FormatSize(l.desc.Format)), //nolint:gosec // texel size is small
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: l.desc.Width, Height: h, DepthOrArrayLayers: depth},
	)
}

// chainLength returns the number of levels, starting at 0, that form a
// consistent mip chain.
func chainLength(t *texture) uint32 {
	base, ok := t.levels[0]
	if !ok {
		return 0
	}
	n := uint32(1)
	want := base.desc
	for {
		want = nextLevel(want)
		l, ok := t.levels[n]
		if !ok || l.desc.Width != want.Width || l.desc.Height != want.Height ||
			l.desc.Depth != want.Depth || l.desc.Format != want.Format {
			return n
		}
		n++
	}
}

// realize makes the HAL texture match the defined mutable levels. When
// it had to be recreated every level is uploaded and recreated is true.
func (d *Device) realize(name device.Name, t *texture) (recreated bool, err error) {
	n := chainLength(t)
	if n == 0 {
		return false, nil
	}
	base := t.levels[0].desc
	if t.raw != nil && t.rawLevels == n && t.rawDesc == base {
		return false, nil
	}
	raw, err := d.createRaw(name, base, n)
	if err != nil {
		return false, fmt.Errorf("haldev: create texture: %w", err)
	}
	d.destroyTexture(t)
	t.raw, t.rawLevels, t.rawDesc = raw, n, base
	for i := uint32(0); i < n; i++ {
		d.writeLevel(t, i)
	}
	return true, nil
}

// TextureStorage implements device.Device.
func (d *Device) TextureStorage(name device.Name, desc device.TextureDesc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.lookupTexture(name)
	if err != nil {
		return err
	}
	if t.immutable {
		return fmt.Errorf("%w: texture %d", device.ErrImmutableStorage, name)
	}
	levels := max(desc.Levels, 1)
	raw, err := d.createRaw(name, desc, levels)
	if err != nil {
		return fmt.Errorf("haldev: create texture: %w", err)
	}

	d.destroyTexture(t)
	t.raw, t.rawLevels, t.rawDesc = raw, levels, desc
	t.immutable = true
	t.levels = make(map[uint32]*level, levels)
	ld := desc
	ld.Levels = 1
	for i := uint32(0); i < levels; i++ {
		t.levels[i] = &level{desc: ld, shadow: make([]byte, levelBytes(ld))}
		ld = nextLevel(ld)
	}
	return nil
}

// TextureImage implements device.Device.
func (d *Device) TextureImage(name device.Name, lvl uint32, desc device.TextureDesc, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.lookupTexture(name)
	if err != nil {
		return err
	}
	if t.immutable {
		return fmt.Errorf("%w: texture %d", device.ErrImmutableStorage, name)
	}
	n := levelBytes(desc)
	if data != nil && len(data) < n {
		return fmt.Errorf("%w: %d bytes for a %d byte level", device.ErrOutOfRange, len(data), n)
	}
	desc.Levels = 1
	l := &level{desc: desc, shadow: make([]byte, n)}
	copy(l.shadow, data)
	t.levels[lvl] = l

	recreated, err := d.realize(name, t)
	if err != nil {
		return err
	}
	if !recreated {
		d.writeLevel(t, lvl)
	}
	return nil
}

// TextureSubImage implements device.Device. The region is merged into the
// shadow and the whole level is uploaded.
func (d *Device) TextureSubImage(name device.Name, lvl uint32, r device.Region, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

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
			copy(l.shadow[dst:dst+row], data[src:src+row])
			src += row
		}
	}
	d.writeLevel(t, lvl)
	return nil
}

// GenerateMipmaps implements device.Device.
func (d *Device) GenerateMipmaps(device.Name) error {
	return fmt.Errorf("%w: mipmap generation", device.ErrUnsupported)
}

// TextureLevelRange implements device.Device.
func (d *Device) TextureLevelRange(name device.Name, base, top uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

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
func (d *Device) TextureSwizzle(device.Name, device.Swizzle) error {
	return fmt.Errorf("%w: texture swizzle", device.ErrUnsupported)
}

// BindTexture implements device.Device.
func (d *Device) BindTexture(unit uint32, _ device.TextureKind, name device.Name) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if name == device.InvalidName {
		delete(d.textureUnits, unit)
		return
	}
	d.textureUnits[unit] = name
}

// RawTexture returns the HAL texture behind a name and its level count.
func (d *Device) RawTexture(name device.Name) (hal.Texture, uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.textures[name]; ok {
		return t.raw, t.rawLevels
	}
	return nil, 0
}
