// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package device defines the device call layer that managed resources are
// built on.
//
// The layer is deliberately thin: it names device objects, allocates and
// uploads their storage, maps buffers, binds objects to targets and reports
// which optional features the device has. It knows nothing about reference
// counting, sharing policy or deferred creation; those live in package gpures.
//
// # Contexts and namespaces
//
// A [Context] is the unit that must be current before device calls are
// issued. Contexts whose object tables are shared report the same
// [NamespaceID]; a device name is meaningful only inside its namespace.
//
// # Implementations
//
//   - device/software: host-memory device with configurable capabilities
//   - device/haldev: gogpu/wgpu HAL device
//
// Implementations register themselves with [Register] so that tools can
// open a device by name.
package device
