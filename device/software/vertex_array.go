// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"

	"github.com/gogpu/gpures/device"
)

type vertexArray struct {
	attribs map[uint32]device.VertexAttrib
}

// BindVertexArray implements device.Device.
func (d *Device) BindVertexArray(name device.Name) {
	d.record("BindVertexArray")
	d.boundArray = name
}

// VertexAttrib implements device.Device.
func (d *Device) VertexAttrib(vao device.Name, location uint32, attr device.VertexAttrib) error {
	d.record("VertexAttrib")
	if limit := d.caps.Limits.MaxVertexAttributes; limit > 0 && location >= limit {
		return fmt.Errorf("%w: attribute location %d >= %d", device.ErrOutOfRange, location, limit)
	}
	if vao == device.InvalidName {
		d.globalAttribs[location] = attr
		return nil
	}
	if !d.caps.Has(device.FeatureVertexArrayObjects) {
		return fmt.Errorf("%w: vertex array objects", device.ErrUnsupported)
	}
	va, ok := d.arrays[vao]
	if !ok {
		return fmt.Errorf("%w: vertex array %d", device.ErrUnknownName, vao)
	}
	va.attribs[location] = attr
	return nil
}

// VertexAttribState returns the attribute recorded at location, either in
// a vertex array object or, for InvalidName, in global state.
func (d *Device) VertexAttribState(vao device.Name, location uint32) (device.VertexAttrib, bool) {
	if vao == device.InvalidName {
		a, ok := d.globalAttribs[location]
		return a, ok
	}
	va, ok := d.arrays[vao]
	if !ok {
		return device.VertexAttrib{}, false
	}
	a, ok := va.attribs[location]
	return a, ok
}

// BoundVertexArray returns the bound vertex array object.
func (d *Device) BoundVertexArray() device.Name { return d.boundArray }
