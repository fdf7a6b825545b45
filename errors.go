// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"errors"

	"github.com/gogpu/gpures/device"
)

// Configuration errors. They are reported before any device call and are
// fixed by correcting the input.
var (
	// ErrInvalidArgument is returned for zero sizes, counts and similar.
	ErrInvalidArgument = errors.New("gpures: invalid argument")

	// ErrUnsupportedCapability is returned when a request exceeds the
	// device limits or needs a feature the device lacks.
	ErrUnsupportedCapability = errors.New("gpures: unsupported capability")
)

// Protocol errors. They mean the lifecycle contract was violated and are
// never retried.
var (
	// ErrNotCurrent is returned when the context is not current.
	ErrNotCurrent = errors.New("gpures: context is not current")

	// ErrCrossContextLeak is returned when a resource named in one
	// namespace is used with a context of another.
	ErrCrossContextLeak = errors.New("gpures: resource belongs to another namespace")

	// ErrNamespaceMismatch is returned when linking resources bound to
	// different namespaces.
	ErrNamespaceMismatch = errors.New("gpures: namespace mismatch")

	// ErrStillReferenced is returned by Delete while owners remain.
	ErrStillReferenced = errors.New("gpures: resource is still referenced")

	// ErrDisposed is returned by any operation on a disposed resource.
	ErrDisposed = errors.New("gpures: resource is disposed")

	// ErrAlreadyLinked is returned when linking the same sub-resource twice.
	ErrAlreadyLinked = errors.New("gpures: resource is already linked")

	// ErrNotLinked is returned when unlinking a resource that is not linked.
	ErrNotLinked = errors.New("gpures: resource is not linked")

	// ErrOwnershipCycle is returned when a link would make the ownership
	// graph cyclic.
	ErrOwnershipCycle = errors.New("gpures: ownership cycle")

	// ErrNotCreated is returned when a device operation needs a resource
	// that does not exist for the context.
	ErrNotCreated = errors.New("gpures: resource is not created")

	// ErrAlreadyDefined is returned when defining immutable storage twice.
	ErrAlreadyDefined = errors.New("gpures: storage is already defined")

	// ErrAlreadyMapped is returned when mapping a mapped buffer.
	ErrAlreadyMapped = errors.New("gpures: buffer is already mapped")

	// ErrNotMapped is returned for typed access or unmapping while unmapped.
	ErrNotMapped = errors.New("gpures: buffer is not mapped")

	// ErrWrongUnmapPath is returned when a mapping is ended through the
	// other unmap form than the one that established it.
	ErrWrongUnmapPath = errors.New("gpures: mapping established through the other map form")

	// ErrNoCPUStorage is returned by the host map form without a CPU mirror.
	ErrNoCPUStorage = errors.New("gpures: buffer has no CPU mirror")
)

// Device errors. The affected resource must be redefined.
var (
	// ErrNameExhausted is returned when the device hands out no more names.
	ErrNameExhausted = errors.New("gpures: device names exhausted")

	// ErrCorruptedBuffer is returned when buffer contents were lost while
	// mapped.
	ErrCorruptedBuffer = errors.New("gpures: buffer contents corrupted while mapped")
)

var (
	configErrors = []error{ErrInvalidArgument, ErrUnsupportedCapability}

	protocolErrors = []error{
		ErrNotCurrent, ErrCrossContextLeak, ErrNamespaceMismatch,
		ErrStillReferenced, ErrDisposed, ErrAlreadyLinked, ErrNotLinked,
		ErrOwnershipCycle, ErrNotCreated, ErrAlreadyDefined,
		ErrAlreadyMapped, ErrNotMapped, ErrWrongUnmapPath, ErrNoCPUStorage,
	}

	deviceErrors = []error{
		ErrNameExhausted, ErrCorruptedBuffer,
		device.ErrUnknownName, device.ErrUnsupported, device.ErrImmutableStorage,
		device.ErrOutOfRange, device.ErrNotMapped,
	}
)

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool { return isAny(err, configErrors) }

// IsProtocolError reports whether err is a lifecycle contract violation.
func IsProtocolError(err error) bool { return isAny(err, protocolErrors) }

// IsDeviceError reports whether err came from the device or left a
// resource needing redefinition.
func IsDeviceError(err error) bool { return isAny(err, deviceErrors) }
