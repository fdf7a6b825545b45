// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"errors"
	"testing"

	"github.com/gogpu/gpures/device"
	"github.com/gogpu/gpures/device/software"
)

func newCreatedBuffer(t *testing.T, ctx device.Context, size uint64) *Buffer {
	t.Helper()
	b := NewBuffer(device.TargetArray, HintStaticDraw)
	if err := b.Allocate(size); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if err := b.Create(ctx); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return b
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateUnconfigured, "unconfigured"},
		{StateConfigured, "configured"},
		{StateCreated, "created"},
		{StateDisposed, "disposed"},
		{State(9), "State(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestDeleteWhileReferenced(t *testing.T) {
	ctx, dev := newTestContext(t)
	b := newCreatedBuffer(t, ctx, 16)

	b.IncRef()
	before := b.Identity()
	if err := b.Delete(ctx); !errors.Is(err, ErrStillReferenced) {
		t.Fatalf("Delete() error = %v, want ErrStillReferenced", err)
	}
	if b.Identity() != before {
		t.Errorf("identity changed: %v -> %v", before, b.Identity())
	}
	if !b.Exists(ctx) {
		t.Error("referenced buffer should still exist")
	}

	b.DecRef()
	if err := b.Delete(ctx); err != nil {
		t.Fatalf("Delete() after DecRef error = %v", err)
	}
	if dev.Objects(device.ClassBuffer) != 0 {
		t.Errorf("Objects(buffer) = %d, want 0", dev.Objects(device.ClassBuffer))
	}
}

func TestCreateExistsDelete(t *testing.T) {
	ctx, _ := newTestContext(t)
	b := NewBuffer(device.TargetArray, HintStaticDraw)
	if b.State() != StateUnconfigured {
		t.Errorf("State() = %v, want unconfigured", b.State())
	}
	if err := b.Allocate(8); err != nil {
		t.Fatal(err)
	}
	if b.State() != StateConfigured {
		t.Errorf("State() = %v, want configured", b.State())
	}
	if b.Exists(ctx) {
		t.Error("Exists() before Create = true")
	}

	if err := b.Create(ctx); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !b.Exists(ctx) || b.State() != StateCreated {
		t.Fatalf("after Create: Exists = %v, State = %v", b.Exists(ctx), b.State())
	}
	first := b.Identity().Name()

	if err := b.Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if b.Exists(ctx) || b.Identity().Bound() {
		t.Error("buffer should not exist after Delete")
	}
	if b.State() != StateConfigured {
		t.Errorf("State() after Delete = %v, want configured", b.State())
	}

	if err := b.Create(ctx); err != nil {
		t.Fatalf("re-Create() error = %v", err)
	}
	if b.Identity().Name() == first {
		t.Errorf("re-created buffer reused name %d", first)
	}
	if b.Size() != 8 || !b.Defined() {
		t.Errorf("re-created buffer: Size = %d, Defined = %v", b.Size(), b.Defined())
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	ctx, dev := newTestContext(t)
	b := newCreatedBuffer(t, ctx, 4)
	name := b.Identity().Name()
	if err := b.Create(ctx); err != nil {
		t.Fatalf("second Create() error = %v", err)
	}
	if b.Identity().Name() != name {
		t.Errorf("name changed from %d to %d", name, b.Identity().Name())
	}
	if got := dev.CallCount("GenName"); got != 1 {
		t.Errorf("GenName calls = %d, want 1", got)
	}
}

func TestCrossNamespaceCreate(t *testing.T) {
	ctx1, _ := newTestContext(t)
	b := newCreatedBuffer(t, ctx1, 4)
	before := b.Identity()

	ctx2 := software.New().NewContext()
	ctx2.MakeCurrent()
	t.Cleanup(func() { Forget(ctx2) })

	if err := b.Create(ctx2); !errors.Is(err, ErrCrossContextLeak) {
		t.Fatalf("Create(ctx2) error = %v, want ErrCrossContextLeak", err)
	}
	if b.Identity() != before {
		t.Errorf("identity changed: %v -> %v", before, b.Identity())
	}
	if b.Exists(ctx2) {
		t.Error("Exists(ctx2) = true")
	}
	if err := b.Delete(ctx2); !errors.Is(err, ErrCrossContextLeak) {
		t.Errorf("Delete(ctx2) error = %v, want ErrCrossContextLeak", err)
	}
}

func TestNotCurrent(t *testing.T) {
	ctx, _ := newTestContext(t)
	b := newCreatedBuffer(t, ctx, 4)
	software.ClearCurrent()

	other := NewBuffer(device.TargetArray, HintStaticDraw)
	if err := other.Create(ctx); !errors.Is(err, ErrNotCurrent) {
		t.Errorf("Create() error = %v, want ErrNotCurrent", err)
	}
	if err := b.Delete(ctx); !errors.Is(err, ErrNotCurrent) {
		t.Errorf("Delete() error = %v, want ErrNotCurrent", err)
	}
	if err := b.Bind(ctx); !errors.Is(err, ErrNotCurrent) {
		t.Errorf("Bind() error = %v, want ErrNotCurrent", err)
	}
	if err := other.Create(nil); !errors.Is(err, ErrNotCurrent) {
		t.Errorf("Create(nil) error = %v, want ErrNotCurrent", err)
	}
}

func TestDisposeReleasesReferences(t *testing.T) {
	ctx, dev := newTestContext(t)
	b := newCreatedBuffer(t, ctx, 4)
	b.IncRef()

	if err := b.Dispose(); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if b.State() != StateCreated || b.RefCount() != 0 {
		t.Fatalf("after first Dispose: State = %v, RefCount = %d", b.State(), b.RefCount())
	}
	if err := b.Dispose(); err != nil {
		t.Fatalf("final Dispose() error = %v", err)
	}
	if b.State() != StateDisposed {
		t.Errorf("State() = %v, want disposed", b.State())
	}
	if dev.Objects(device.ClassBuffer) != 0 {
		t.Errorf("Objects(buffer) = %d, want 0", dev.Objects(device.ClassBuffer))
	}

	if err := b.Dispose(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Dispose() on disposed error = %v, want ErrDisposed", err)
	}
	if err := b.Create(ctx); !errors.Is(err, ErrDisposed) {
		t.Errorf("Create() on disposed error = %v, want ErrDisposed", err)
	}
	if err := b.Allocate(4); !errors.Is(err, ErrDisposed) {
		t.Errorf("Allocate() on disposed error = %v, want ErrDisposed", err)
	}
}

func TestDecRefBelowZeroPanics(t *testing.T) {
	b := NewBuffer(device.TargetArray, HintStaticDraw)
	defer func() {
		if recover() == nil {
			t.Error("DecRef below zero should panic")
		}
	}()
	b.DecRef()
}

func TestDeferredDeletion(t *testing.T) {
	ctx, dev := newTestContext(t)
	b := newCreatedBuffer(t, ctx, 4)
	tex := NewTexture(device.Texture2D)
	if err := tex.DefineLevel(0, defaultFormat, 2, 2, 1, nil); err != nil {
		t.Fatal(err)
	}
	if err := tex.Create(ctx); err != nil {
		t.Fatal(err)
	}

	software.ClearCurrent()
	if err := b.Dispose(); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if err := tex.Dispose(); err != nil {
		t.Fatalf("Dispose() error = %v", err)
	}
	if got := Pending(ctx.Namespace()); got != 2 {
		t.Fatalf("Pending() = %d, want 2", got)
	}
	if dev.Objects(device.ClassBuffer) != 1 {
		t.Error("buffer should stay alive until a context is current")
	}

	if _, err := Collect(ctx); !errors.Is(err, ErrNotCurrent) {
		t.Errorf("Collect() without current context error = %v, want ErrNotCurrent", err)
	}

	ctx.MakeCurrent()
	n, err := Collect(ctx)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if n != 2 || Pending(ctx.Namespace()) != 0 {
		t.Errorf("Collect() = %d, Pending = %d; want 2, 0", n, Pending(ctx.Namespace()))
	}
	if dev.Objects(device.ClassBuffer) != 0 || dev.Objects(device.ClassTexture) != 0 {
		t.Error("deferred names were not deleted")
	}
}

func TestDeferredDeletionDrainedByCreate(t *testing.T) {
	ctx, dev := newTestContext(t)
	b := newCreatedBuffer(t, ctx, 4)

	software.ClearCurrent()
	if err := b.Dispose(); err != nil {
		t.Fatal(err)
	}
	ctx.MakeCurrent()
	newCreatedBuffer(t, ctx, 4)

	if Pending(ctx.Namespace()) != 0 {
		t.Errorf("Pending() = %d after Create, want 0", Pending(ctx.Namespace()))
	}
	if got := dev.Objects(device.ClassBuffer); got != 1 {
		t.Errorf("Objects(buffer) = %d, want 1", got)
	}
}

func TestDisposeThroughSharedContext(t *testing.T) {
	ctx1, dev := newTestContext(t)
	b := newCreatedBuffer(t, ctx1, 4)

	ctx2 := dev.NewContext()
	ctx2.MakeCurrent()
	t.Cleanup(func() { Forget(ctx2) })
	if err := b.DisposeContext(ctx2); err != nil {
		t.Fatalf("DisposeContext() error = %v", err)
	}
	if Pending(dev.Namespace()) != 0 {
		t.Error("deletion should not be deferred with a current shared context")
	}
	if dev.Objects(device.ClassBuffer) != 0 {
		t.Error("buffer was not deleted through the shared context")
	}
}

func TestNameExhaustion(t *testing.T) {
	ctx, _ := newTestContext(t, software.WithNameLimit(1))
	newCreatedBuffer(t, ctx, 4)

	b := NewBuffer(device.TargetArray, HintStaticDraw)
	if err := b.Allocate(4); err != nil {
		t.Fatal(err)
	}
	err := b.Create(ctx)
	if !errors.Is(err, ErrNameExhausted) {
		t.Fatalf("Create() error = %v, want ErrNameExhausted", err)
	}
	if !IsDeviceError(err) {
		t.Error("IsDeviceError(ErrNameExhausted) = false")
	}
	if b.Identity().Bound() || b.State() != StateConfigured {
		t.Errorf("failed Create left identity %v, state %v", b.Identity(), b.State())
	}
}

func TestLinkResource(t *testing.T) {
	ctx, dev := newTestContext(t)
	parent := NewBuffer(device.TargetArray, HintStaticDraw)
	child := NewBuffer(device.TargetArray, HintStaticDraw)
	if err := child.Allocate(4); err != nil {
		t.Fatal(err)
	}

	if err := parent.LinkResource(child); err != nil {
		t.Fatalf("LinkResource() error = %v", err)
	}
	if child.RefCount() != 1 {
		t.Errorf("child RefCount() = %d, want 1", child.RefCount())
	}
	if links := parent.Links(); len(links) != 1 || links[0] != Managed(child) {
		t.Errorf("Links() = %v", links)
	}
	if err := parent.Create(ctx); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !child.Exists(ctx) || !parent.Exists(ctx) {
		t.Fatal("Create should create linked resources")
	}
	if err := child.Delete(ctx); !errors.Is(err, ErrStillReferenced) {
		t.Errorf("Delete(child) error = %v, want ErrStillReferenced", err)
	}

	if err := parent.Dispose(); err != nil {
		t.Fatalf("Dispose(parent) error = %v", err)
	}
	if child.State() != StateCreated || child.RefCount() != 0 {
		t.Errorf("child after parent Dispose: State = %v, RefCount = %d", child.State(), child.RefCount())
	}
	if err := child.Dispose(); err != nil {
		t.Fatal(err)
	}
	if dev.Objects(device.ClassBuffer) != 0 {
		t.Errorf("Objects(buffer) = %d, want 0", dev.Objects(device.ClassBuffer))
	}
}

func TestLinkErrors(t *testing.T) {
	a := NewBuffer(device.TargetArray, HintStaticDraw)
	b := NewBuffer(device.TargetArray, HintStaticDraw)
	c := NewBuffer(device.TargetArray, HintStaticDraw)

	if err := a.LinkResource(a); !errors.Is(err, ErrOwnershipCycle) {
		t.Errorf("self link error = %v, want ErrOwnershipCycle", err)
	}
	if err := a.LinkResource(b); err != nil {
		t.Fatal(err)
	}
	if err := a.LinkResource(b); !errors.Is(err, ErrAlreadyLinked) {
		t.Errorf("double link error = %v, want ErrAlreadyLinked", err)
	}
	if err := b.LinkResource(c); err != nil {
		t.Fatal(err)
	}
	if err := c.LinkResource(a); !errors.Is(err, ErrOwnershipCycle) {
		t.Errorf("cycle error = %v, want ErrOwnershipCycle", err)
	}
	if err := a.UnlinkResource(c); !errors.Is(err, ErrNotLinked) {
		t.Errorf("unlink error = %v, want ErrNotLinked", err)
	}
	if err := a.UnlinkResource(b); err != nil {
		t.Fatal(err)
	}
	if b.RefCount() != 0 {
		t.Errorf("RefCount() after unlink = %d, want 0", b.RefCount())
	}
}

func TestLinkNamespaceMismatch(t *testing.T) {
	ctx1, _ := newTestContext(t)
	a := newCreatedBuffer(t, ctx1, 4)

	ctx2 := software.New().NewContext()
	ctx2.MakeCurrent()
	t.Cleanup(func() { Forget(ctx2) })
	b := newCreatedBuffer(t, ctx2, 4)

	if err := a.LinkResource(b); !errors.Is(err, ErrNamespaceMismatch) {
		t.Errorf("LinkResource() error = %v, want ErrNamespaceMismatch", err)
	}
}

func TestLabelInErrors(t *testing.T) {
	b := NewBuffer(device.TargetArray, HintStaticDraw)
	b.SetLabel("vertices")
	if b.Label() != "vertices" {
		t.Errorf("Label() = %q", b.Label())
	}
	if err := b.Dispose(); err != nil {
		t.Fatal(err)
	}
	err := b.Allocate(4)
	if err == nil || !errors.Is(err, ErrDisposed) {
		t.Fatalf("Allocate() error = %v", err)
	}
}
