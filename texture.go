// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/gpures/device"
)

// Texture is a device texture populated by queued techniques.
//
// Configuration calls validate against Caps and record techniques; nothing
// reaches the device until Create.
type Texture struct {
	Resource

	kind      device.TextureKind
	unit      uint32
	immutable bool

	mipmaps   []*Mipmap
	baseLevel uint32
	maxLevel  uint32
	swizzle   device.Swizzle

	pending []Technique

	generate     bool
	rangeDirty   bool
	swizzleDirty bool
}

// NewTexture returns an unconfigured texture of the given kind.
func NewTexture(kind device.TextureKind) *Texture {
	t := &Texture{
		kind:     kind,
		maxLevel: DefaultMaxLevel,
		swizzle:  device.IdentitySwizzle,
	}
	t.setup(device.ClassTexture, t)
	return t
}

// Kind returns the texture kind.
func (t *Texture) Kind() device.TextureKind { return t.kind }

// SetUnit sets the texture unit Create binds to. The default is 0.
func (t *Texture) SetUnit(unit uint32) { t.unit = unit }

// Immutable reports whether the storage was allocated immutably.
func (t *Texture) Immutable() bool { return t.immutable }

// LevelRange returns the sampled level range.
func (t *Texture) LevelRange() (base, top uint32) { return t.baseLevel, t.maxLevel }

// Swizzle returns the channel swizzle.
func (t *Texture) Swizzle() device.Swizzle { return t.swizzle }

// PendingTechniques returns the number of techniques waiting for Create.
func (t *Texture) PendingTechniques() int { return len(t.pending) }

// SetTechnique queues a technique. Techniques run in queue order at
// creation and are dropped after running.
func (t *Texture) SetTechnique(tech Technique) {
	if tech == nil {
		return
	}
	t.pending = append(t.pending, tech)
	t.configured()
}

// size normalizes w, h, d for the kind and validates them against caps.
func (t *Texture) size(caps *device.Caps, format gputypes.TextureFormat, w, h, d uint32) (uint32, uint32, uint32, error) {
	switch t.kind {
	case device.Texture1D:
		h, d = 1, 1
	case device.Texture2D:
		d = 1
	case device.Texture3D:
		if !caps.Has(device.FeatureTexture3D) {
			return 0, 0, 0, fmt.Errorf("%w: 3d textures", ErrUnsupportedCapability)
		}
	case device.Texture2DArray:
		if !caps.Has(device.FeatureTextureArrays) {
			return 0, 0, 0, fmt.Errorf("%w: texture arrays", ErrUnsupportedCapability)
		}
	default:
		return 0, 0, 0, fmt.Errorf("%w: texture kind %v", ErrInvalidArgument, t.kind)
	}
	if w == 0 || h == 0 || d == 0 {
		return 0, 0, 0, fmt.Errorf("%w: texture size %dx%dx%d", ErrInvalidArgument, w, h, d)
	}

	limit := caps.MaxDimension(t.kind)
	if w > limit || (t.kind != device.Texture1D && h > limit) {
		return 0, 0, 0, fmt.Errorf("%w: %s size %dx%d exceeds %d",
			ErrUnsupportedCapability, t.kind, w, h, limit)
	}
	if t.kind == device.Texture3D && d > limit {
		return 0, 0, 0, fmt.Errorf("%w: 3d depth %d exceeds %d", ErrUnsupportedCapability, d, limit)
	}
	if t.kind == device.Texture2DArray && d > caps.Limits.MaxTextureArrayLayers {
		return 0, 0, 0, fmt.Errorf("%w: %d array layers exceed %d",
			ErrUnsupportedCapability, d, caps.Limits.MaxTextureArrayLayers)
	}
	if !caps.Has(device.FeatureNPOTTextures) {
		depth := d
		if t.kind == device.Texture2DArray {
			depth = 1
		}
		if !pow2(w) || !pow2(h) || !pow2(depth) {
			return 0, 0, 0, fmt.Errorf("%w: non power of two size %dx%dx%d",
				ErrUnsupportedCapability, w, h, d)
		}
	}
	if !caps.SupportsFormat(format) {
		return 0, 0, 0, fmt.Errorf("%w: internal format %s",
			ErrUnsupportedCapability, device.FormatName(format))
	}
	return w, h, d, nil
}

func pow2(v uint32) bool { return bits.OnesCount32(v) == 1 }

// DefineStorage queues storage for levels levels of the given base size.
// Immutable storage is used when the device has it; otherwise every level
// is defined empty.
func (t *Texture) DefineStorage(format gputypes.TextureFormat, w, h, d, levels uint32) error {
	if t.state == StateDisposed {
		return t.errDisposed("define storage")
	}
	caps := Caps()
	w, h, d, err := t.size(caps, format, w, h, d)
	if err != nil {
		return err
	}
	if full := t.chain(Mipmap{format, w, h, d}); levels == 0 || levels > full {
		return fmt.Errorf("%w: %d levels for a %d level chain", ErrInvalidArgument, levels, full)
	}

	if caps.Has(device.FeatureImmutableTextureStorage) {
		t.SetTechnique(ImmutableStorage{Format: format, Width: w, Height: h, Depth: d, Levels: levels})
		return nil
	}
	m := Mipmap{format, w, h, d}
	for level := uint32(0); level < levels; level++ {
		t.SetTechnique(EmptyStorage{Level: level, Format: format, Width: m.Width, Height: m.Height, Depth: m.Depth})
		m = t.halve(m)
	}
	return nil
}

// DefineLevel queues a mutable level with optional contents. data must
// hold the whole level when not nil.
func (t *Texture) DefineLevel(level uint32, format gputypes.TextureFormat, w, h, d uint32, data []byte) error {
	if t.state == StateDisposed {
		return t.errDisposed("define level")
	}
	w, h, d, err := t.size(Caps(), format, w, h, d)
	if err != nil {
		return err
	}
	if data == nil {
		t.SetTechnique(EmptyStorage{Level: level, Format: format, Width: w, Height: h, Depth: d})
		return nil
	}
	if need := device.FormatSize(format) * int(w) * int(h) * int(d); len(data) < need {
		return fmt.Errorf("%w: %d bytes for a %d byte level", ErrInvalidArgument, len(data), need)
	}
	t.SetTechnique(LevelImage{Level: level, Format: format, Width: w, Height: h, Depth: d, Data: data})
	return nil
}

// UploadImage queues img as an RGBA8 level of a 2D texture.
func (t *Texture) UploadImage(level uint32, img image.Image) error {
	if t.kind != device.Texture2D {
		return fmt.Errorf("%w: image upload to %s texture", ErrInvalidArgument, t.kind)
	}
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidArgument)
	}
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return t.DefineLevel(level, gputypes.TextureFormatRGBA8Unorm,
		uint32(b.Dx()), uint32(b.Dy()), 1, rgba.Pix) //nolint:gosec // image sizes are non-negative
}

// UploadSubImage queues an update of a region of a level. The level must be
// defined by the time the technique runs.
func (t *Texture) UploadSubImage(level uint32, r device.Region, data []byte) error {
	if t.state == StateDisposed {
		return t.errDisposed("upload sub-image")
	}
	if r.Width == 0 || len(data) == 0 {
		return fmt.Errorf("%w: empty sub-image", ErrInvalidArgument)
	}
	t.SetTechnique(SubImage{Level: level, Region: r, Data: data})
	return nil
}

// GenerateMipmaps requests the levels above the base level to be derived
// from it at the next Create. Without device support only the level
// metadata is derived; no texel data is produced.
func (t *Texture) GenerateMipmaps() {
	t.generate = true
}

// SetLevelRange sets the sampled level range [base, top).
func (t *Texture) SetLevelRange(base, top uint32) error {
	if base > top {
		return fmt.Errorf("%w: base level %d > max level %d", ErrInvalidArgument, base, top)
	}
	if base != t.baseLevel || top != t.maxLevel {
		t.baseLevel, t.maxLevel = base, top
		t.rangeDirty = true
	}
	return nil
}

// SetSwizzle sets the channel swizzle.
func (t *Texture) SetSwizzle(s device.Swizzle) error {
	if !Caps().Has(device.FeatureTextureSwizzle) {
		return fmt.Errorf("%w: texture swizzle", ErrUnsupportedCapability)
	}
	if s != t.swizzle {
		t.swizzle = s
		t.swizzleDirty = true
	}
	return nil
}

func (t *Texture) requiresName(device.Context) bool { return true }

func (t *Texture) existsObject(ctx device.Context) bool {
	return ctx.Device().IsName(device.ClassTexture, t.id.name)
}

func (t *Texture) createObject(ctx device.Context) error {
	dev := ctx.Device()
	dev.BindTexture(t.unit, t.kind, t.id.name)

	for len(t.pending) > 0 {
		tech := t.pending[0]
		t.pending[0] = nil
		t.pending = t.pending[1:]
		if err := t.run(dev, tech); err != nil {
			return err
		}
	}

	if t.generate {
		if dev.Caps().Has(device.FeatureMipmapGeneration) {
			if err := dev.GenerateMipmaps(t.id.name); err != nil {
				return fmt.Errorf("gpures: generate mipmaps of %s: %w", t.id, err)
			}
		} else {
			Logger().Warn("gpures: no mipmap generation, deriving level metadata only",
				"name", t.id.name, "label", t.label)
		}
		t.synthesizeMipmaps()
		t.generate = false
	}

	if t.rangeDirty {
		if err := dev.TextureLevelRange(t.id.name, t.baseLevel, t.maxLevel); err != nil {
			return fmt.Errorf("gpures: level range of %s: %w", t.id, err)
		}
		t.rangeDirty = false
	}
	if t.swizzleDirty {
		if err := dev.TextureSwizzle(t.id.name, t.swizzle); err != nil {
			return fmt.Errorf("gpures: swizzle of %s: %w", t.id, err)
		}
		t.swizzleDirty = false
	}
	return nil
}

// forgetObject drops the level table with the device object. Storage for
// the recorded levels is queued ahead of any pending techniques so the next
// Create allocates it again; level contents are not kept. Parameters that
// differ from the defaults are pushed again on the next Create.
func (t *Texture) forgetObject() {
	if restore := t.storageTechniques(); len(restore) > 0 {
		t.pending = append(restore, t.pending...)
	}
	t.mipmaps = nil
	t.immutable = false
	t.rangeDirty = t.baseLevel != 0 || t.maxLevel != DefaultMaxLevel
	t.swizzleDirty = t.swizzle != device.IdentitySwizzle
}

func (t *Texture) releaseHost() {
	t.pending = nil
}

// storageTechniques returns techniques that allocate empty storage matching
// the current level table.
func (t *Texture) storageTechniques() []Technique {
	if base, ok := t.Mipmap(0); ok && t.immutable {
		levels := uint32(len(t.mipmaps)) //nolint:gosec // bounded by the level chain
		return []Technique{ImmutableStorage{
			Format: base.Format,
			Width:  base.Width,
			Height: base.Height,
			Depth:  base.Depth,
			Levels: levels,
		}}
	}
	var out []Technique
	for level, m := range t.mipmaps {
		if m == nil {
			continue
		}
		out = append(out, EmptyStorage{
			Level:  uint32(level), //nolint:gosec // bounded by the level chain
			Format: m.Format,
			Width:  m.Width,
			Height: m.Height,
			Depth:  m.Depth,
		})
	}
	return out
}
