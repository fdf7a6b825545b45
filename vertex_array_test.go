// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/device"
	"github.com/gogpu/gpures/device/software"
)

type quad struct {
	va      *VertexArray
	pos, uv *ArrayBuffer
	indices *ElementBuffer
}

func newQuad(t *testing.T) quad {
	t.Helper()
	q := quad{
		va:  NewVertexArray(),
		pos: mustArrayBuffer(t, 12, 4),
		uv:  mustArrayBuffer(t, 8, 4),
	}
	idx, err := NewElementBuffer(gputypes.IndexFormatUint16, HintStaticDraw)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Allocate(6); err != nil {
		t.Fatal(err)
	}
	q.indices = idx

	if err := q.va.SetAttribute("position", q.pos, VertexAttribute{Format: gputypes.VertexFormatFloat32x3}); err != nil {
		t.Fatalf("SetAttribute(position) error = %v", err)
	}
	if err := q.va.SetAttribute("uv", q.uv, VertexAttribute{Format: gputypes.VertexFormatFloat32x2}); err != nil {
		t.Fatalf("SetAttribute(uv) error = %v", err)
	}
	err = q.va.AddElements(Elements{Mode: gputypes.PrimitiveTopologyTriangleList, Indices: idx, Count: 6})
	if err != nil {
		t.Fatalf("AddElements() error = %v", err)
	}
	return q
}

var quadLocations = AttribLocations{"position": 0, "uv": 1}

func TestVertexArrayLinks(t *testing.T) {
	q := newQuad(t)
	if got := len(q.va.Links()); got != 3 {
		t.Fatalf("Links() = %d, want 3", got)
	}
	for _, r := range []Managed{q.pos, q.uv, q.indices} {
		if r.RefCount() != 1 {
			t.Errorf("RefCount() = %d, want 1", r.RefCount())
		}
	}
	if got := q.va.Semantics(); !slices.Equal(got, []string{"position", "uv"}) {
		t.Errorf("Semantics() = %v", got)
	}

	// Sourcing uv from the position buffer drops the uv buffer.
	if err := q.va.SetAttribute("uv", q.pos, VertexAttribute{Format: gputypes.VertexFormatFloat32x2, Offset: 4}); err != nil {
		t.Fatal(err)
	}
	if q.uv.RefCount() != 0 || q.pos.RefCount() != 1 || len(q.va.Links()) != 2 {
		t.Errorf("after replace: uv refs %d, pos refs %d, links %d",
			q.uv.RefCount(), q.pos.RefCount(), len(q.va.Links()))
	}
	buf, attr, ok := q.va.Attribute("uv")
	if !ok || buf != q.pos || attr.Offset != 4 {
		t.Errorf("Attribute(uv) = %v, %+v, %v", buf, attr, ok)
	}

	if err := q.va.RemoveAttribute("uv"); err != nil {
		t.Fatal(err)
	}
	if q.pos.RefCount() != 1 {
		t.Error("position still sources a semantic and must stay linked")
	}
	if err := q.va.ClearElements(); err != nil {
		t.Fatal(err)
	}
	if q.indices.RefCount() != 0 || len(q.va.Elements()) != 0 {
		t.Error("ClearElements should drop the element buffer")
	}
}

func TestVertexArrayErrors(t *testing.T) {
	va := NewVertexArray()
	a := mustArrayBuffer(t, 4, 1)
	if err := va.SetAttribute("", a, VertexAttribute{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty semantic error = %v", err)
	}
	if err := va.SetAttribute("position", nil, VertexAttribute{}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil buffer error = %v", err)
	}
	if err := va.AddElements(Elements{Mode: gputypes.PrimitiveTopologyTriangleList}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero count error = %v", err)
	}
	ctx, _ := newTestContext(t)
	if err := va.Bind(ctx, quadLocations); !errors.Is(err, ErrNotCreated) {
		t.Errorf("Bind() before Create error = %v, want ErrNotCreated", err)
	}
}

func TestVertexArrayBindVAO(t *testing.T) {
	ctx, dev := newTestContext(t)
	q := newQuad(t)
	if err := q.va.Create(ctx); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, r := range []Managed{q.va, q.pos, q.uv, q.indices} {
		if !r.Exists(ctx) {
			t.Fatal("Create should create every linked buffer")
		}
	}
	if q.va.Identity().Fake() {
		t.Fatal("vertex array should get a device name")
	}

	if err := q.va.Bind(ctx, quadLocations); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	vao := q.va.Identity().Name()
	if dev.BoundVertexArray() != vao {
		t.Error("Bind should bind the vertex array object")
	}
	pos, ok := dev.VertexAttribState(vao, 0)
	if !ok || pos.Buffer != q.pos.Identity().Name() || pos.Stride != 12 || pos.Format != gputypes.VertexFormatFloat32x3 {
		t.Errorf("location 0 = %+v, %v", pos, ok)
	}
	uv, ok := dev.VertexAttribState(vao, 1)
	if !ok || uv.Buffer != q.uv.Identity().Name() || uv.Stride != 8 {
		t.Errorf("location 1 = %+v, %v", uv, ok)
	}
	if dev.BoundBuffer(device.TargetElementArray) != q.indices.Identity().Name() {
		t.Error("Bind should bind the element buffer")
	}

	if err := q.va.Unbind(ctx); err != nil {
		t.Fatal(err)
	}
	if dev.BoundVertexArray() != device.InvalidName {
		t.Error("Unbind should clear the vertex array binding")
	}

	if err := q.va.Dispose(); err != nil {
		t.Fatal(err)
	}
	if dev.Objects(device.ClassVertexArray) != 0 {
		t.Error("vertex array object should be deleted")
	}
	if q.pos.RefCount() != 0 || q.pos.State() != StateCreated {
		t.Error("buffers should outlive the vertex array with their creator's reference")
	}
}

func TestVertexArrayBindGlobal(t *testing.T) {
	tests := []struct {
		name        string
		profile     software.Profile
		fakeBuffers bool
	}{
		{"es2", software.ProfileES2, false},
		{"legacy", software.ProfileLegacy, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dev := newTestContext(t, withProfile(tt.profile))
			q := newQuad(t)
			if err := q.va.Create(ctx); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if !q.va.Identity().Fake() {
				t.Fatal("vertex array should get a fake name without vertex array objects")
			}
			if err := q.va.Bind(ctx, AttribLocations{"position": 3}); err != nil {
				t.Fatalf("Bind() error = %v", err)
			}

			a, ok := dev.VertexAttribState(device.InvalidName, 3)
			if !ok {
				t.Fatal("global attribute state missing")
			}
			wantBuf := q.pos.Identity().Name()
			if tt.fakeBuffers {
				wantBuf = device.InvalidName
			}
			if a.Buffer != wantBuf {
				t.Errorf("attribute buffer = %d, want %d", a.Buffer, wantBuf)
			}
			if _, ok := dev.VertexAttribState(device.InvalidName, 1); ok {
				t.Error("uv has no location and should be skipped")
			}
			if dev.CallCount("BindVertexArray") != 0 {
				t.Error("fake vertex array should not bind a vertex array object")
			}
		})
	}
}

func TestVertexArrayLocationOutOfRange(t *testing.T) {
	ctx, _ := newTestContext(t, withProfile(software.ProfileES2))
	q := newQuad(t)
	if err := q.va.Create(ctx); err != nil {
		t.Fatal(err)
	}
	err := q.va.Bind(ctx, AttribLocations{"position": 8})
	if !errors.Is(err, device.ErrOutOfRange) || !IsDeviceError(err) {
		t.Errorf("Bind() error = %v, want device.ErrOutOfRange", err)
	}
}
