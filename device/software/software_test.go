// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/device"
)

func TestContextsShareNamespace(t *testing.T) {
	d := New()
	a, b := d.NewContext(), d.NewContext()
	if a.Namespace() != b.Namespace() {
		t.Errorf("namespaces differ: %d vs %d", a.Namespace(), b.Namespace())
	}
	if a.Namespace() == device.NoNamespace {
		t.Error("namespace is NoNamespace")
	}
	if other := New().NewContext(); other.Namespace() == a.Namespace() {
		t.Error("separate devices share a namespace")
	}
}

func TestMakeCurrent(t *testing.T) {
	defer ClearCurrent()
	d := New()
	a, b := d.NewContext(), d.NewContext()

	a.MakeCurrent()
	if !a.IsCurrent() || b.IsCurrent() {
		t.Fatal("only a should be current")
	}
	b.MakeCurrent()
	if a.IsCurrent() || !b.IsCurrent() {
		t.Fatal("only b should be current")
	}
	if Current() != b {
		t.Error("Current() != b")
	}
	ClearCurrent()
	if b.IsCurrent() {
		t.Error("b still current after ClearCurrent")
	}
}

func TestGenNameAndDelete(t *testing.T) {
	d := New()
	n1 := d.GenName(device.ClassBuffer)
	n2 := d.GenName(device.ClassBuffer)
	if n1 == device.InvalidName || n2 == device.InvalidName || n1 == n2 {
		t.Fatalf("GenName = %d, %d; want two distinct valid names", n1, n2)
	}
	if !d.IsName(device.ClassBuffer, n1) {
		t.Error("IsName(n1) = false")
	}
	if d.IsName(device.ClassTexture, n1) {
		t.Error("buffer name reported as texture")
	}
	d.DeleteNames(device.ClassBuffer, n1, n2)
	if d.IsName(device.ClassBuffer, n1) {
		t.Error("IsName(n1) = true after delete")
	}
	if d.Objects(device.ClassBuffer) != 0 {
		t.Errorf("Objects(buffer) = %d, want 0", d.Objects(device.ClassBuffer))
	}
}

func TestNameLimit(t *testing.T) {
	d := New(WithNameLimit(2))
	for i := 0; i < 2; i++ {
		if d.GenName(device.ClassTexture) == device.InvalidName {
			t.Fatalf("GenName #%d returned InvalidName", i)
		}
	}
	if got := d.GenName(device.ClassTexture); got != device.InvalidName {
		t.Errorf("GenName past limit = %d, want InvalidName", got)
	}
	if d.GenName(device.ClassBuffer) == device.InvalidName {
		t.Error("limit should apply per class")
	}
}

func TestBufferStorageAndMap(t *testing.T) {
	d := New()
	name := d.GenName(device.ClassBuffer)

	err := d.BufferStorage(device.TargetArray, name, device.BufferStorageDesc{
		Size:  8,
		Usage: gputypes.BufferUsageVertex,
		Data:  []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("BufferStorage failed: %v", err)
	}
	if err := d.BufferSubData(device.TargetArray, name, 4, []byte{9, 9}); err != nil {
		t.Fatalf("BufferSubData failed: %v", err)
	}
	if err := d.BufferSubData(device.TargetArray, name, 7, []byte{9, 9}); !errors.Is(err, device.ErrOutOfRange) {
		t.Errorf("BufferSubData past end error = %v, want ErrOutOfRange", err)
	}

	mapped, err := d.MapBuffer(device.TargetArray, name, gputypes.MapModeWrite)
	if err != nil {
		t.Fatalf("MapBuffer failed: %v", err)
	}
	if !bytes.Equal(mapped, []byte{1, 2, 3, 0, 9, 9, 0, 0}) {
		t.Errorf("mapped = %v", mapped)
	}
	mapped[7] = 42

	intact, err := d.UnmapBuffer(device.TargetArray, name)
	if err != nil || !intact {
		t.Fatalf("UnmapBuffer = %v, %v; want true, nil", intact, err)
	}
	data, _ := d.BufferData(name)
	if data[7] != 42 {
		t.Errorf("write through mapping lost: %v", data)
	}

	if _, err := d.UnmapBuffer(device.TargetArray, name); !errors.Is(err, device.ErrNotMapped) {
		t.Errorf("second UnmapBuffer error = %v, want ErrNotMapped", err)
	}
}

func TestCorruptNextUnmap(t *testing.T) {
	d := New()
	name := d.GenName(device.ClassBuffer)
	if err := d.BufferStorage(device.TargetArray, name, device.BufferStorageDesc{Size: 4}); err != nil {
		t.Fatal(err)
	}
	d.CorruptNextUnmap()
	if _, err := d.MapBuffer(device.TargetArray, name, gputypes.MapModeRead); err != nil {
		t.Fatal(err)
	}
	intact, err := d.UnmapBuffer(device.TargetArray, name)
	if err != nil || intact {
		t.Errorf("UnmapBuffer = %v, %v; want false, nil", intact, err)
	}
}

func TestImmutableBufferStorage(t *testing.T) {
	d := New()
	name := d.GenName(device.ClassBuffer)
	desc := device.BufferStorageDesc{Size: 16, Immutable: true}
	if err := d.BufferStorage(device.TargetUniform, name, desc); err != nil {
		t.Fatalf("BufferStorage failed: %v", err)
	}
	if !d.BufferImmutable(name) {
		t.Error("BufferImmutable = false")
	}
	if err := d.BufferStorage(device.TargetUniform, name, desc); !errors.Is(err, device.ErrImmutableStorage) {
		t.Errorf("redefine error = %v, want ErrImmutableStorage", err)
	}
}

func TestLegacyProfileRejectsBuffers(t *testing.T) {
	d := New(WithProfile(ProfileLegacy))
	name := d.GenName(device.ClassBuffer)
	err := d.BufferStorage(device.TargetArray, name, device.BufferStorageDesc{Size: 4})
	if !errors.Is(err, device.ErrUnsupported) {
		t.Errorf("BufferStorage error = %v, want ErrUnsupported", err)
	}
}

func TestTextureImageAndSubImage(t *testing.T) {
	d := New()
	name := d.GenName(device.ClassTexture)
	desc := device.TextureDesc{
		Kind:   device.Texture2D,
		Format: gputypes.TextureFormatR8Unorm,
		Width:  4,
		Height: 2,
		Levels: 1,
	}
	if err := d.TextureImage(name, 0, desc, nil); err != nil {
		t.Fatalf("TextureImage failed: %v", err)
	}
	region := device.Region{X: 1, Y: 1, Width: 2, Height: 1}
	if err := d.TextureSubImage(name, 0, region, []byte{7, 8}); err != nil {
		t.Fatalf("TextureSubImage failed: %v", err)
	}
	info, ok := d.TextureLevel(name, 0)
	if !ok {
		t.Fatal("level 0 missing")
	}
	want := []byte{0, 0, 0, 0, 0, 7, 8, 0}
	if !bytes.Equal(info.Data, want) {
		t.Errorf("level data = %v, want %v", info.Data, want)
	}

	outside := device.Region{X: 3, Width: 2, Height: 1}
	if err := d.TextureSubImage(name, 0, outside, []byte{1, 2}); !errors.Is(err, device.ErrOutOfRange) {
		t.Errorf("out of bounds error = %v, want ErrOutOfRange", err)
	}
}

func TestTextureStorageAndMipmaps(t *testing.T) {
	d := New()
	name := d.GenName(device.ClassTexture)
	desc := device.TextureDesc{
		Kind:   device.Texture2D,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Width:  8,
		Height: 4,
		Levels: 4,
	}
	if err := d.TextureStorage(name, desc); err != nil {
		t.Fatalf("TextureStorage failed: %v", err)
	}
	if got := d.TextureLevelCount(name); got != 4 {
		t.Errorf("TextureLevelCount = %d, want 4", got)
	}
	l3, _ := d.TextureLevel(name, 3)
	if l3.Desc.Width != 1 || l3.Desc.Height != 1 {
		t.Errorf("level 3 = %dx%d, want 1x1", l3.Desc.Width, l3.Desc.Height)
	}
	if err := d.TextureImage(name, 0, desc, nil); !errors.Is(err, device.ErrImmutableStorage) {
		t.Errorf("TextureImage on immutable error = %v, want ErrImmutableStorage", err)
	}

	mutable := d.GenName(device.ClassTexture)
	desc.Levels = 1
	if err := d.TextureImage(mutable, 0, desc, nil); err != nil {
		t.Fatal(err)
	}
	if err := d.GenerateMipmaps(mutable); err != nil {
		t.Fatalf("GenerateMipmaps failed: %v", err)
	}
	if got := d.TextureLevelCount(mutable); got != 4 {
		t.Errorf("levels after GenerateMipmaps = %d, want 4", got)
	}
}

func TestVertexAttrib(t *testing.T) {
	d := New(WithProfile(ProfileES2))
	attr := device.VertexAttrib{Buffer: 1, Format: gputypes.VertexFormatFloat32x2, Stride: 8}
	if err := d.VertexAttrib(device.InvalidName, 0, attr); err != nil {
		t.Fatalf("VertexAttrib failed: %v", err)
	}
	if got, ok := d.VertexAttribState(device.InvalidName, 0); !ok || got != attr {
		t.Errorf("VertexAttribState = %+v, %v", got, ok)
	}
	if err := d.VertexAttrib(device.InvalidName, 8, attr); !errors.Is(err, device.ErrOutOfRange) {
		t.Errorf("location past limit error = %v, want ErrOutOfRange", err)
	}
	if err := d.VertexAttrib(5, 0, attr); !errors.Is(err, device.ErrUnsupported) {
		t.Errorf("VAO attrib on es2 error = %v, want ErrUnsupported", err)
	}
}

func TestCallCounting(t *testing.T) {
	d := New()
	if d.Calls() != 0 {
		t.Fatalf("Calls() = %d on a fresh device", d.Calls())
	}
	d.GenName(device.ClassShader)
	d.BindBuffer(device.TargetArray, device.InvalidName)
	if d.Calls() != 2 || d.CallCount("GenName") != 1 {
		t.Errorf("Calls() = %d, GenName = %d; want 2, 1", d.Calls(), d.CallCount("GenName"))
	}
}

func TestRegistered(t *testing.T) {
	defer ClearCurrent()
	ctx, err := device.Open(Name)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !ctx.IsCurrent() {
		t.Error("opened context is not current")
	}
}
