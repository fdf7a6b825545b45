// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpures manages the lifecycle of GPU-visible objects.
//
// # Overview
//
// Every buffer, texture, shader and vertex array is a [Resource]: it can be
// configured before any device context exists, created once a context is
// current, shared between contexts of the same namespace, and destroyed
// through whichever context owns the namespace. Deletions that cannot be
// issued immediately are queued per namespace and drained by [Collect] or by
// the next Create in that namespace.
//
// The device itself is reached through the [device.Device] call surface.
// Two implementations ship with the module: device/software, a host-memory
// device with capability profiles, and device/haldev, a layer over
// gogpu/wgpu/hal.
//
// # Quick Start
//
//	ctx, _ := device.Open("software")
//	gpures.SetCaps(ctx.Device().Caps())
//
//	vbo, _ := gpures.NewArrayBuffer(16, gpures.HintStaticDraw)
//	_ = vbo.Allocate(4) // 64 bytes, no device call yet
//	if err := vbo.Create(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer vbo.Dispose()
//
// # Reference Counting
//
// The creator of a resource holds an implicit reference. IncRef adds an
// owner, Dispose releases one reference, and the resource is deleted and
// finalized when the last reference goes away. RefCount reports the owners
// beyond the creator, so Delete fails with [ErrStillReferenced] while any
// owner remains. Linking a sub-resource with [Resource.LinkResource] adds
// an owner; disposing the parent releases it.
//
// # Host Storage
//
// A [Buffer] can keep a CPU mirror of its bytes. When the device has no
// buffer objects the buffer lives entirely in simulated device storage, and
// mapping exposes that storage directly. Typed access through [Set], [Get]
// and [SetSlice] is unchecked; see their documentation.
//
// # Errors
//
// Errors are sentinel values wrapped with context. [IsConfigError],
// [IsProtocolError] and [IsDeviceError] classify them.
//
// # Logging
//
// By default gpures produces no log output. Call [SetLogger] to enable it.
package gpures
