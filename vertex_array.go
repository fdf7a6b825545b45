// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpures

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/device"
)

// VertexAttribute describes how one semantic is fetched from its buffer.
// A zero Stride means the buffer's item size.
type VertexAttribute struct {
	Format     gputypes.VertexFormat
	Offset     uint64
	Stride     uint64
	Normalized bool
}

// Elements is a draw-element descriptor. Indices may be nil for
// non-indexed draws.
type Elements struct {
	Mode    gputypes.PrimitiveTopology
	Indices *ElementBuffer
	Offset  uint64
	Count   uint64
}

// AttribLocator resolves attribute semantics to shader input locations.
type AttribLocator interface {
	AttribLocation(semantic string) (uint32, bool)
}

// AttribLocations is an AttribLocator backed by a map.
type AttribLocations map[string]uint32

// AttribLocation implements AttribLocator.
func (m AttribLocations) AttribLocation(semantic string) (uint32, bool) {
	loc, ok := m[semantic]
	return loc, ok
}

type attribute struct {
	semantic string
	buf      *ArrayBuffer
	attr     VertexAttribute
}

// VertexArray aggregates the buffers and element descriptors of a draw.
//
// Every distinct buffer is linked once, so the vertex array owns it and
// creates it first. Without vertex array objects on the device the array
// gets a fake name and Bind writes global attribute state.
type VertexArray struct {
	Resource

	attribs  []attribute
	elements []Elements
}

// NewVertexArray returns an empty vertex array.
func NewVertexArray() *VertexArray {
	va := &VertexArray{}
	va.setup(device.ClassVertexArray, va)
	return va
}

// SetAttribute sources semantic from buf, replacing any previous source.
func (va *VertexArray) SetAttribute(semantic string, buf *ArrayBuffer, a VertexAttribute) error {
	if va.state == StateDisposed {
		return va.errDisposed("set attribute")
	}
	if semantic == "" || buf == nil {
		return fmt.Errorf("%w: attribute needs a semantic and a buffer", ErrInvalidArgument)
	}
	if !va.isLinked(buf) {
		if err := va.LinkResource(buf); err != nil {
			return err
		}
	}

	i := slices.IndexFunc(va.attribs, func(at attribute) bool { return at.semantic == semantic })
	if i < 0 {
		va.attribs = append(va.attribs, attribute{semantic, buf, a})
		va.configured()
		return nil
	}
	old := va.attribs[i].buf
	va.attribs[i] = attribute{semantic, buf, a}
	return va.release(old.resource())
}

// RemoveAttribute drops semantic. Removing an unknown semantic is a no-op.
func (va *VertexArray) RemoveAttribute(semantic string) error {
	i := slices.IndexFunc(va.attribs, func(at attribute) bool { return at.semantic == semantic })
	if i < 0 {
		return nil
	}
	old := va.attribs[i].buf
	va.attribs = slices.Delete(va.attribs, i, i+1)
	return va.release(old.resource())
}

// AddElements appends a draw-element descriptor.
func (va *VertexArray) AddElements(e Elements) error {
	if va.state == StateDisposed {
		return va.errDisposed("add elements")
	}
	if e.Count == 0 {
		return fmt.Errorf("%w: elements count is zero", ErrInvalidArgument)
	}
	if e.Indices != nil && !va.isLinked(e.Indices) {
		if err := va.LinkResource(e.Indices); err != nil {
			return err
		}
	}
	va.elements = append(va.elements, e)
	va.configured()
	return nil
}

// ClearElements drops all element descriptors.
func (va *VertexArray) ClearElements() error {
	elems := va.elements
	va.elements = nil
	for _, e := range elems {
		if e.Indices == nil {
			continue
		}
		if err := va.release(e.Indices.resource()); err != nil {
			return err
		}
	}
	return nil
}

// release unlinks r once nothing in the array refers to it.
func (va *VertexArray) release(r *Resource) error {
	if va.uses(r) || !slices.Contains(va.links, r) {
		return nil
	}
	return va.UnlinkResource(r.managed())
}

func (va *VertexArray) uses(r *Resource) bool {
	for _, at := range va.attribs {
		if at.buf.resource() == r {
			return true
		}
	}
	for _, e := range va.elements {
		if e.Indices != nil && e.Indices.resource() == r {
			return true
		}
	}
	return false
}

// Attribute returns the source of semantic.
func (va *VertexArray) Attribute(semantic string) (*ArrayBuffer, VertexAttribute, bool) {
	for _, at := range va.attribs {
		if at.semantic == semantic {
			return at.buf, at.attr, true
		}
	}
	return nil, VertexAttribute{}, false
}

// Semantics returns the attribute semantics in insertion order.
func (va *VertexArray) Semantics() []string {
	out := make([]string, len(va.attribs))
	for i, at := range va.attribs {
		out[i] = at.semantic
	}
	return out
}

// Elements returns the element descriptors in insertion order.
func (va *VertexArray) Elements() []Elements { return slices.Clone(va.elements) }

func (va *VertexArray) requiresName(ctx device.Context) bool {
	return ctx.Device().Caps().Has(device.FeatureVertexArrayObjects)
}

func (va *VertexArray) existsObject(ctx device.Context) bool {
	if va.id.fake {
		return true
	}
	return ctx.Device().IsName(device.ClassVertexArray, va.id.name)
}

func (va *VertexArray) createObject(device.Context) error { return nil }

func (va *VertexArray) forgetObject() {}

func (va *VertexArray) releaseHost() {
	va.attribs = nil
	va.elements = nil
}

// Bind binds the vertex array and records attribute state for every
// semantic loc resolves. Semantics loc does not know are skipped.
func (va *VertexArray) Bind(ctx device.Context, loc AttribLocator) error {
	if err := va.checkCurrent(ctx, "bind vertex array"); err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("%w: nil attribute locator", ErrInvalidArgument)
	}
	dev := ctx.Device()
	vao := device.InvalidName
	if !va.id.fake {
		vao = va.id.name
		dev.BindVertexArray(vao)
	}

	for _, at := range va.attribs {
		location, ok := loc.AttribLocation(at.semantic)
		if !ok {
			Logger().Debug("gpures: attribute not used by shader",
				"semantic", at.semantic, "label", va.label)
			continue
		}
		if !at.buf.boundTo(ctx) {
			return fmt.Errorf("%w: buffer of %q", ErrNotCreated, at.semantic)
		}
		name := device.InvalidName
		if !at.buf.id.fake {
			name = at.buf.id.name
			dev.BindBuffer(device.TargetArray, name)
		}
		stride := at.attr.Stride
		if stride == 0 {
			stride = at.buf.itemSize
		}
		err := dev.VertexAttrib(vao, location, device.VertexAttrib{
			Buffer:     name,
			Format:     at.attr.Format,
			Offset:     at.attr.Offset,
			Stride:     stride,
			Normalized: at.attr.Normalized,
		})
		if err != nil {
			return fmt.Errorf("gpures: attribute %q at location %d: %w", at.semantic, location, err)
		}
	}

	for _, e := range va.elements {
		if e.Indices == nil {
			continue
		}
		if !e.Indices.boundTo(ctx) {
			return fmt.Errorf("%w: element buffer", ErrNotCreated)
		}
		if !e.Indices.id.fake {
			dev.BindBuffer(device.TargetElementArray, e.Indices.id.name)
		}
		break
	}
	return nil
}

// Unbind unbinds the vertex array object, if the device has one.
func (va *VertexArray) Unbind(ctx device.Context) error {
	if err := va.checkCurrent(ctx, "unbind vertex array"); err != nil {
		return err
	}
	if !va.id.fake {
		ctx.Device().BindVertexArray(device.InvalidName)
	}
	return nil
}
