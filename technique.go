// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/device"
)

// Technique is a deferred texture population step, run once when the
// texture is created. The concrete types are EmptyStorage,
// ImmutableStorage, LevelImage and SubImage.
type Technique interface {
	technique()
}

// EmptyStorage defines one mutable level without contents.
type EmptyStorage struct {
	Level                uint32
	Format               gputypes.TextureFormat
	Width, Height, Depth uint32
}

// ImmutableStorage allocates all levels at once with immutable storage.
type ImmutableStorage struct {
	Format               gputypes.TextureFormat
	Width, Height, Depth uint32
	Levels               uint32
}

// LevelImage defines one mutable level with contents.
type LevelImage struct {
	Level                uint32
	Format               gputypes.TextureFormat
	Width, Height, Depth uint32
	Data                 []byte
}

// SubImage updates a region of a defined level.
type SubImage struct {
	Level  uint32
	Region device.Region
	Data   []byte
}

func (EmptyStorage) technique()     {}
func (ImmutableStorage) technique() {}
func (LevelImage) technique()       {}
func (SubImage) technique()         {}

// run executes one technique against the texture's device object and
// records the resulting level metadata.
func (t *Texture) run(dev device.Device, tech Technique) error {
	name := t.id.name
	switch tc := tech.(type) {
	case EmptyStorage:
		desc := t.desc(tc.Format, tc.Width, tc.Height, tc.Depth, 1)
		if err := dev.TextureImage(name, tc.Level, desc, nil); err != nil {
			return fmt.Errorf("gpures: define level %d of %s: %w", tc.Level, t.id, err)
		}
		t.setMipmap(tc.Level, Mipmap{tc.Format, tc.Width, tc.Height, tc.Depth})

	case LevelImage:
		desc := t.desc(tc.Format, tc.Width, tc.Height, tc.Depth, 1)
		if err := dev.TextureImage(name, tc.Level, desc, tc.Data); err != nil {
			return fmt.Errorf("gpures: upload level %d of %s: %w", tc.Level, t.id, err)
		}
		t.setMipmap(tc.Level, Mipmap{tc.Format, tc.Width, tc.Height, tc.Depth})

	case ImmutableStorage:
		desc := t.desc(tc.Format, tc.Width, tc.Height, tc.Depth, tc.Levels)
		if err := dev.TextureStorage(name, desc); err != nil {
			return fmt.Errorf("gpures: define storage of %s: %w", t.id, err)
		}
		t.immutable = true
		m := Mipmap{tc.Format, tc.Width, tc.Height, tc.Depth}
		for level := uint32(0); level < tc.Levels; level++ {
			t.setMipmap(level, m)
			m = t.halve(m)
		}

	case SubImage:
		if _, ok := t.Mipmap(tc.Level); !ok {
			return fmt.Errorf("%w: level %d of %s is not defined", ErrInvalidArgument, tc.Level, t.id)
		}
		if err := dev.TextureSubImage(name, tc.Level, tc.Region, tc.Data); err != nil {
			return fmt.Errorf("gpures: update level %d of %s: %w", tc.Level, t.id, err)
		}

	default:
		return fmt.Errorf("%w: technique %T", ErrInvalidArgument, tech)
	}
	return nil
}

func (t *Texture) desc(f gputypes.TextureFormat, w, h, d, levels uint32) device.TextureDesc {
	return device.TextureDesc{
		Kind:   t.kind,
		Format: f,
		Width:  w,
		Height: h,
		Depth:  d,
		Levels: levels,
	}
}
