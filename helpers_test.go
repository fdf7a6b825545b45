// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"testing"

	"github.com/gogpu/gpures/device/software"
)

// newTestContext creates a software device, makes one of its contexts
// current and installs its capabilities process-wide.
func newTestContext(t *testing.T, opts ...software.Option) (*software.Context, *software.Device) {
	t.Helper()
	dev := software.New(opts...)
	ctx := dev.NewContext()
	ctx.MakeCurrent()
	SetCaps(dev.Caps())
	t.Cleanup(func() {
		software.ClearCurrent()
		Forget(ctx)
		SetCaps(nil)
	})
	return ctx, dev
}

func withProfile(p software.Profile) software.Option { return software.WithProfile(p) }

func mustArrayBuffer(t *testing.T, itemSize, count uint64) *ArrayBuffer {
	t.Helper()
	a, err := NewArrayBuffer(itemSize, HintStaticDraw)
	if err != nil {
		t.Fatalf("NewArrayBuffer(%d) error = %v", itemSize, err)
	}
	if err := a.Allocate(count); err != nil {
		t.Fatalf("Allocate(%d) error = %v", count, err)
	}
	return a
}
